// Package queue implements the Proposal Queue (C11): the human review
// inbox for publish decisions, code review, block resolution and idea
// approval, plus a scheduled sweep that expires stale proposals.
//
// Adapted from the job-queue shape used elsewhere in this codebase
// (job type enum, priority, description-map-with-fallback) to proposal
// status semantics: pending/deferred/approved/rejected/expired instead of
// queued/running/done/failed.
package queue

import (
	"fmt"
	"time"

	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/pipeline"
	"github.com/extremevalue/research-kit/internal/store"
)

// descriptions maps a proposal kind to its human-facing summary template,
// with a fallback for kinds added after this map was last updated.
var descriptions = map[domain.ProposalKind]string{
	domain.ProposalPublish:      "publish strategy %s to the validated catalog",
	domain.ProposalReviewCode:   "review generated code for %s before execution",
	domain.ProposalResolveBlock: "resolve blocking verification failure for %s",
	domain.ProposalApproveIdea:  "approve idea %s for promotion to a strategy",
}

// DescriptionFor returns the human-facing summary for a proposal kind and
// subject id, falling back to a generic description for unknown kinds.
func DescriptionFor(kind domain.ProposalKind, subjectID string) string {
	tmpl, ok := descriptions[kind]
	if !ok {
		return fmt.Sprintf("review %s", subjectID)
	}
	return fmt.Sprintf(tmpl, subjectID)
}

// Queue is the Proposal Queue, backed by the record store.
type Queue struct {
	store *store.Store
	ids   IDAllocator
	ttl   time.Duration
}

// IDAllocator allocates PROP-NNN identifiers.
type IDAllocator interface {
	Next() (string, error)
}

// New builds a Queue. ttl controls how long a pending proposal survives
// before a sweep marks it expired.
func New(s *store.Store, ids IDAllocator, ttl time.Duration) *Queue {
	return &Queue{store: s, ids: ids, ttl: ttl}
}

// Enqueue creates a new pending proposal.
func (q *Queue) Enqueue(kind domain.ProposalKind, subjectID, summary string) (domain.ProposalRecord, error) {
	id, err := q.ids.Next()
	if err != nil {
		return domain.ProposalRecord{}, fmt.Errorf("allocate proposal id: %w", err)
	}
	now := time.Now().UTC()
	rec := domain.ProposalRecord{
		ID:        id,
		Kind:      kind,
		SubjectID: subjectID,
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
		Status:    domain.ProposalPending,
		Summary:   summary,
	}
	if err := q.store.CreateProposal(rec); err != nil {
		return domain.ProposalRecord{}, err
	}
	return rec, nil
}

// Decide records a human decision on a proposal. Only pending or deferred
// proposals can be decided; deciding a terminal proposal is a conflict.
func (q *Queue) Decide(id string, status domain.ProposalStatus, decidedBy, notes string) (domain.ProposalRecord, error) {
	if status != domain.ProposalApproved && status != domain.ProposalRejected && status != domain.ProposalDeferred {
		return domain.ProposalRecord{}, pipeline.Wrap("queue", pipeline.KindValidationFailed, fmt.Errorf("invalid decision status %q", status))
	}
	rec, err := q.store.GetProposal(id)
	if err != nil {
		return domain.ProposalRecord{}, err
	}
	if rec.Status != domain.ProposalPending && rec.Status != domain.ProposalDeferred {
		return domain.ProposalRecord{}, pipeline.Wrap("queue", pipeline.KindConflict, fmt.Errorf("proposal %s is already %s", id, rec.Status))
	}
	rec.Status = status
	rec.DecidedAt = time.Now().UTC()
	rec.DecidedBy = decidedBy
	rec.Notes = notes
	if err := q.store.UpdateProposal(rec); err != nil {
		return domain.ProposalRecord{}, err
	}
	return rec, nil
}

// SweepExpired marks every pending/deferred proposal past its TTL as
// expired, returning how many were swept.
func (q *Queue) SweepExpired() (int, error) {
	now := time.Now().UTC()
	count := 0
	for _, status := range []domain.ProposalStatus{domain.ProposalPending, domain.ProposalDeferred} {
		proposals, err := q.store.ListProposals(status)
		if err != nil {
			return count, err
		}
		for _, p := range proposals {
			if p.ExpiresAt.IsZero() || p.ExpiresAt.After(now) {
				continue
			}
			p.Status = domain.ProposalExpired
			p.DecidedAt = now
			if err := q.store.UpdateProposal(p); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}
