package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/logging"
	"github.com/extremevalue/research-kit/internal/store"
)

type seqAllocator struct{ n int }

func (s *seqAllocator) Next() (string, error) {
	s.n++
	return "PROP-00" + string(rune('0'+s.n)), nil
}

func newTestQueue(t *testing.T, ttl time.Duration) *Queue {
	t.Helper()
	log := logging.New(logging.Config{Level: "error"})
	st, err := store.Open(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, &seqAllocator{}, ttl)
}

func TestDescriptionFor_KnownKind(t *testing.T) {
	desc := DescriptionFor(domain.ProposalPublish, "STRAT-042")
	assert.Equal(t, "publish strategy STRAT-042 to the validated catalog", desc)
}

func TestDescriptionFor_UnknownKind_Fallback(t *testing.T) {
	desc := DescriptionFor(domain.ProposalKind("unknown_kind"), "STRAT-042")
	assert.Equal(t, "review STRAT-042", desc)
}

func TestEnqueue_CreatesPendingProposal(t *testing.T) {
	q := newTestQueue(t, time.Hour)
	rec, err := q.Enqueue(domain.ProposalPublish, "STRAT-042", "publish it")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalPending, rec.Status)
	assert.Equal(t, "STRAT-042", rec.SubjectID)
}

func TestDecide_ApprovePending_Succeeds(t *testing.T) {
	q := newTestQueue(t, time.Hour)
	rec, err := q.Enqueue(domain.ProposalPublish, "STRAT-042", "publish it")
	require.NoError(t, err)

	decided, err := q.Decide(rec.ID, domain.ProposalApproved, "human", "looks good")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalApproved, decided.Status)
	assert.Equal(t, "human", decided.DecidedBy)
}

func TestDecide_InvalidTargetStatus_Rejected(t *testing.T) {
	q := newTestQueue(t, time.Hour)
	rec, err := q.Enqueue(domain.ProposalPublish, "STRAT-042", "publish it")
	require.NoError(t, err)

	_, err = q.Decide(rec.ID, domain.ProposalPending, "human", "")
	assert.Error(t, err)
}

func TestDecide_AlreadyDecided_Conflicts(t *testing.T) {
	q := newTestQueue(t, time.Hour)
	rec, err := q.Enqueue(domain.ProposalPublish, "STRAT-042", "publish it")
	require.NoError(t, err)

	_, err = q.Decide(rec.ID, domain.ProposalApproved, "human", "")
	require.NoError(t, err)

	_, err = q.Decide(rec.ID, domain.ProposalRejected, "human", "")
	assert.Error(t, err)
}

func TestSweepExpired_ExpiresPastTTLOnly(t *testing.T) {
	q := newTestQueue(t, -1*time.Hour)
	rec, err := q.Enqueue(domain.ProposalPublish, "STRAT-042", "publish it")
	require.NoError(t, err)

	count, err := q.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	reloaded, err := q.store.GetProposal(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalExpired, reloaded.Status)
}

func TestSweepExpired_LeavesFreshProposalsAlone(t *testing.T) {
	q := newTestQueue(t, time.Hour)
	_, err := q.Enqueue(domain.ProposalPublish, "STRAT-042", "publish it")
	require.NoError(t, err)

	count, err := q.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
