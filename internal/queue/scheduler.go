package queue

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs periodic workspace maintenance: TTL-expiring stale
// proposals and, in future, re-checking BLOCKED strategies whose
// dependency may have resolved. Built on robfig/cron rather than a raw
// ticker loop since maintenance cadences are calendar expressions
// (nightly, hourly) rather than fixed intervals.
type Scheduler struct {
	cron  *cron.Cron
	queue *Queue
	log   zerolog.Logger
}

// NewScheduler builds a Scheduler bound to queue.
func NewScheduler(q *Queue, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		queue: q,
		log:   log.With().Str("component", "queue_scheduler").Logger(),
	}
}

// Start schedules the proposal TTL sweep on the given cron expression
// (e.g. "0 * * * *" for hourly) and starts the scheduler goroutine.
func (s *Scheduler) Start(sweepSchedule string) error {
	_, err := s.cron.AddFunc(sweepSchedule, s.runSweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSweep() {
	count, err := s.queue.SweepExpired()
	if err != nil {
		s.log.Error().Err(err).Msg("proposal sweep failed")
		return
	}
	if count > 0 {
		s.log.Info().Int("count", count).Msg("expired stale proposals")
	}
}
