package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/extremevalue/research-kit/internal/domain"
)

// Processor tracks which source documents have already been ingested by
// content hash, so re-running ingestion over an unchanged inbox is a
// no-op (property: idempotence of ingestion).
//
// Grounded on the content-hash index used by the original ingestion
// pipeline: a flat hash-to-entry-id file next to the inbox, loaded once
// and rewritten on every new acceptance.
type Processor struct {
	mu        sync.Mutex
	indexPath string
	processed map[string]string // content hash -> strategy/idea id
	log       zerolog.Logger
}

// NewProcessor opens (or creates) the idempotency index at
// {workspaceDir}/state/ingested.index.
func NewProcessor(workspaceDir string, log zerolog.Logger) (*Processor, error) {
	indexPath := filepath.Join(workspaceDir, "state", "ingested.index")
	p := &Processor{
		indexPath: indexPath,
		processed: map[string]string{},
		log:       log.With().Str("component", "ingest").Logger(),
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Processor) load() error {
	data, err := os.ReadFile(p.indexPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read ingestion index: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}
		p.processed[parts[0]] = parts[1]
	}
	return nil
}

// AlreadyProcessed reports whether contentHash has already been ingested,
// returning the id it was assigned.
func (p *Processor) AlreadyProcessed(contentHash string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.processed[contentHash]
	return id, ok
}

// MarkProcessed records that contentHash produced record id, appending to
// the on-disk index.
func (p *Processor) MarkProcessed(contentHash, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.processed[contentHash]; ok {
		return nil
	}
	p.processed[contentHash] = id

	f, err := os.OpenFile(p.indexPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ingestion index: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s %s\n", contentHash, id); err != nil {
		return fmt.Errorf("write ingestion index: %w", err)
	}
	return nil
}

// Outcome is the complete result of processing one source document.
type Outcome struct {
	Assessment  Assessment
	Decision    domain.IngestionDecision
	AlreadySeen bool
}

// Process runs the full quality filter over content, returning early with
// AlreadySeen=true if this exact content hash has been ingested before.
// seed carries the specificity and trust component scores, which this
// package cannot derive from raw text itself and expects from an upstream
// scorer (a human analyst or a persona, per rationale inference's own
// source_stated/inferred split).
func (p *Processor) Process(content []byte, th Thresholds, doc SourceDoc, hasRationale bool, seed Assessment) (Outcome, string) {
	hash := domain.ContentHash(content)
	if id, ok := p.AlreadyProcessed(hash); ok {
		return Outcome{AlreadySeen: true}, id
	}

	assessment := seed
	assessment.RedFlags = nil
	assessment.Warnings = nil
	assessment.RejectionReason = ""
	assessment.Decision = ""
	for _, id := range DetectHardFlags(doc) {
		assessment.RedFlags = append(assessment.RedFlags, hardFlag(id))
	}
	for _, id := range DetectSoftFlags(doc, hasRationale) {
		assessment.RedFlags = append(assessment.RedFlags, softFlag(id))
	}
	assessment.Trust.RedFlagPenalty = redFlagPenaltyPerFlag * len(assessment.RedFlags)
	assessment.Decide(th)

	return Outcome{Assessment: assessment, Decision: assessment.Decision}, hash
}
