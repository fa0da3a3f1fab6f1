// Package idea implements the supplemented Idea Record lifecycle: low-cost
// hypotheses proposed by personas or humans that haven't yet earned a full
// Strategy record, with cycle-checked lineage and TTL-based expiry.
package idea

import (
	"fmt"
	"time"

	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/pipeline"
	"github.com/extremevalue/research-kit/internal/store"
)

// IDAllocator allocates IDEA-NNN identifiers.
type IDAllocator interface {
	Next() (string, error)
}

// Manager implements idea creation, approval and expiry.
type Manager struct {
	store *store.Store
	ids   IDAllocator
	ttl   time.Duration
}

// New builds a Manager. ttl is how long a proposed idea survives before
// expiring unapproved.
func New(s *store.Store, ids IDAllocator, ttl time.Duration) *Manager {
	return &Manager{store: s, ids: ids, ttl: ttl}
}

// Propose creates a new idea in `proposed` status. Parents must already
// exist and accepting them must not create a cycle in the idea DAG.
func (m *Manager) Propose(proponent, hypothesis, mechanism string, parents []string) (domain.IdeaRecord, error) {
	id, err := m.ids.Next()
	if err != nil {
		return domain.IdeaRecord{}, fmt.Errorf("allocate idea id: %w", err)
	}

	for _, parent := range parents {
		if _, err := m.store.GetIdea(parent); err != nil {
			return domain.IdeaRecord{}, fmt.Errorf("parent idea %s: %w", parent, err)
		}
	}

	now := time.Now().UTC()
	rec := domain.IdeaRecord{
		ID:         id,
		CreatedAt:  now,
		Status:     domain.IdeaProposed,
		Proponent:  proponent,
		Hypothesis: hypothesis,
		Mechanism:  mechanism,
		Parents:    parents,
		TTL:        now.Add(m.ttl),
	}
	for _, parent := range parents {
		cyclic, err := m.store.HasCycle(id, parent)
		if err != nil {
			return domain.IdeaRecord{}, err
		}
		if cyclic {
			return domain.IdeaRecord{}, pipeline.Wrap("idea", pipeline.KindValidationFailed,
				fmt.Errorf("accepting %s as a parent of %s would create a lineage cycle", parent, id))
		}
	}

	if err := m.store.CreateIdea(rec); err != nil {
		return domain.IdeaRecord{}, err
	}
	return rec, nil
}

// Approve marks an idea approved and links it to the strategy id it was
// promoted into.
func (m *Manager) Approve(ideaID, promotedTo string) (domain.IdeaRecord, error) {
	rec, err := m.store.GetIdea(ideaID)
	if err != nil {
		return domain.IdeaRecord{}, err
	}
	if rec.Status != domain.IdeaProposed {
		return domain.IdeaRecord{}, pipeline.Wrap("idea", pipeline.KindConflict, fmt.Errorf("idea %s is %s, not proposed", ideaID, rec.Status))
	}
	for _, parent := range rec.Parents {
		cyclic, err := m.store.HasCycle(ideaID, parent)
		if err != nil {
			return domain.IdeaRecord{}, err
		}
		if cyclic {
			return domain.IdeaRecord{}, pipeline.Wrap("idea", pipeline.KindValidationFailed,
				fmt.Errorf("approving %s would create a lineage cycle through %s", ideaID, parent))
		}
	}
	rec.Status = domain.IdeaApproved
	rec.PromotedTo = promotedTo
	if err := m.store.UpdateIdea(rec); err != nil {
		return domain.IdeaRecord{}, err
	}
	return rec, nil
}

// Reject marks an idea rejected.
func (m *Manager) Reject(ideaID string) (domain.IdeaRecord, error) {
	rec, err := m.store.GetIdea(ideaID)
	if err != nil {
		return domain.IdeaRecord{}, err
	}
	rec.Status = domain.IdeaRejected
	if err := m.store.UpdateIdea(rec); err != nil {
		return domain.IdeaRecord{}, err
	}
	return rec, nil
}

// SweepExpired marks every proposed idea past its TTL as expired.
func (m *Manager) SweepExpired() (int, error) {
	ideas, err := m.store.ListIdeas(domain.IdeaProposed)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	count := 0
	for _, idea := range ideas {
		if idea.TTL.IsZero() || idea.TTL.After(now) {
			continue
		}
		idea.Status = domain.IdeaExpired
		if err := m.store.UpdateIdea(idea); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
