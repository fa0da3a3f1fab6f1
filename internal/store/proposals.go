package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/pipeline"
)

func (s *Store) proposalPath(id string) string {
	return filepath.Join(s.root, "proposals", id+".yaml")
}

// CreateProposal persists a new proposal queue entry.
func (s *Store) CreateProposal(p domain.ProposalRecord) error {
	path := s.proposalPath(p.ID)
	if _, err := os.Stat(path); err == nil {
		return pipeline.Wrap("store", pipeline.KindConflict, fmt.Errorf("proposal %s already exists", p.ID))
	}
	return writeYAMLFile(path, p)
}

// GetProposal loads a proposal by ID.
func (s *Store) GetProposal(id string) (domain.ProposalRecord, error) {
	var p domain.ProposalRecord
	data, err := os.ReadFile(s.proposalPath(id))
	if os.IsNotExist(err) {
		return p, pipeline.Wrap("store", pipeline.KindNotFound, fmt.Errorf("proposal %s not found", id))
	}
	if err != nil {
		return p, fmt.Errorf("read proposal %s: %w", id, err)
	}
	if err := unmarshalYAML(data, &p); err != nil {
		return p, fmt.Errorf("parse proposal %s: %w", id, err)
	}
	return p, nil
}

// UpdateProposal rewrites a proposal record in place (status transitions,
// decision metadata).
func (s *Store) UpdateProposal(p domain.ProposalRecord) error {
	return writeYAMLFile(s.proposalPath(p.ID), p)
}

// ListProposals returns every proposal with the given status, in id order.
func (s *Store) ListProposals(status domain.ProposalStatus) ([]domain.ProposalRecord, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "proposals"))
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	var out []domain.ProposalRecord
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, "proposals", e.Name()))
		if err != nil {
			return nil, err
		}
		var p domain.ProposalRecord
		if err := unmarshalYAML(data, &p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}
