package main

import (
	"path/filepath"

	"github.com/extremevalue/research-kit/internal/config"
	"github.com/extremevalue/research-kit/internal/ids"
)

func proposalAllocator(cfg *config.Config) (*ids.Allocator, error) {
	return ids.Open(filepath.Join(cfg.WorkspaceDir, "state"), "PROP")
}

func strategyAllocator(cfg *config.Config) (*ids.Allocator, error) {
	return ids.Open(filepath.Join(cfg.WorkspaceDir, "state"), "STRAT")
}

func ideaAllocator(cfg *config.Config) (*ids.Allocator, error) {
	return ids.Open(filepath.Join(cfg.WorkspaceDir, "state"), "IDEA")
}

func learningAllocator(cfg *config.Config) (*ids.Allocator, error) {
	return ids.Open(filepath.Join(cfg.WorkspaceDir, "state"), "LRN")
}
