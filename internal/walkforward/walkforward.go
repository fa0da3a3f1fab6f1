// Package walkforward implements the Walk-Forward Executor (C7): slices a
// strategy's backtest range into calendar-aligned windows, dispatches
// them to the backtest backend in parallel, and persists the immutable
// per-window results.
//
// The parallel dispatch shape is grounded directly on the evaluation
// worker pool used elsewhere in this codebase for batch sequence
// evaluation: index-tagged jobs/results channels drained by a fixed
// worker count, generalized here from sequences to calendar windows.
package walkforward

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/extremevalue/research-kit/internal/backend"
	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/reliability"
)

// Plan controls window slicing. Defaults match a 12-window, 3-year
// in-sample / 1-year out-of-sample calendar-aligned walk-forward.
type Plan struct {
	InSampleYears  int
	OutSampleYears int
	WindowCount    int
	StartDate      time.Time
}

// DefaultPlan is the standard 12x3yr walk-forward configuration.
func DefaultPlan(start time.Time) Plan {
	return Plan{InSampleYears: 3, OutSampleYears: 1, WindowCount: 12, StartDate: start}
}

// Windows generates the calendar-aligned (in-sample, out-of-sample) pairs
// for the plan. Each window starts one out-of-sample period after the
// previous window's start, so windows overlap their in-sample ranges by
// design (a rolling walk-forward, not a non-overlapping split).
func (p Plan) Windows() []domain.DateRange {
	ranges := make([]domain.DateRange, 0, p.WindowCount*2)
	cursor := p.StartDate
	for i := 0; i < p.WindowCount; i++ {
		inStart := cursor
		inEnd := inStart.AddDate(p.InSampleYears, 0, 0)
		outEnd := inEnd.AddDate(p.OutSampleYears, 0, 0)
		ranges = append(ranges, domain.DateRange{Start: inStart, End: inEnd})
		ranges = append(ranges, domain.DateRange{Start: inEnd, End: outEnd})
		cursor = cursor.AddDate(p.OutSampleYears, 0, 0)
	}
	return ranges
}

// WindowSpec is one in-sample/out-of-sample pair to execute.
type WindowSpec struct {
	Index     int
	InSample  domain.DateRange
	OutSample domain.DateRange
	Seed      int64
}

// Specs builds the (in-sample, out-of-sample) WindowSpec list for a plan.
func Specs(p Plan) []WindowSpec {
	specs := make([]WindowSpec, 0, p.WindowCount)
	cursor := p.StartDate
	for i := 0; i < p.WindowCount; i++ {
		inStart := cursor
		inEnd := inStart.AddDate(p.InSampleYears, 0, 0)
		outEnd := inEnd.AddDate(p.OutSampleYears, 0, 0)
		specs = append(specs, WindowSpec{
			Index:     i,
			InSample:  domain.DateRange{Start: inStart, End: inEnd},
			OutSample: domain.DateRange{Start: inEnd, End: outEnd},
			Seed:      int64(i) + 1,
		})
		cursor = cursor.AddDate(p.OutSampleYears, 0, 0)
	}
	return specs
}

// Executor runs walk-forward windows against a backtest backend with a
// bounded worker pool.
type Executor struct {
	numWorkers       int
	be               backend.Backend
	maxFailedWindows int
	log              zerolog.Logger
}

// NewExecutor builds an Executor. numWorkers <= 0 defaults to 10,
// matching the evaluation worker pool's default. maxFailedWindows caps how
// many windows may land in WindowError before RunAll fails the run instead
// of returning a partial validation.
func NewExecutor(numWorkers int, be backend.Backend, maxFailedWindows int, log zerolog.Logger) *Executor {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	return &Executor{numWorkers: numWorkers, be: be, maxFailedWindows: maxFailedWindows, log: log.With().Str("component", "walkforward").Logger()}
}

type windowJob struct {
	index int
	spec  WindowSpec
	isOOS bool
}

type windowOutcome struct {
	index  int
	result domain.WindowResult
	err    error
}

// RunAll executes every window (both in-sample and out-of-sample halves)
// for strat's code, returning results ordered by index regardless of
// completion order. oosAlreadyRun reports, per window index, whether the
// out-of-sample half has already been executed before: it is only ever
// executed once per strategy (OOS one-shot enforcement). Passing true for
// any index makes RunAll return an error before any window is dispatched.
func (e *Executor) RunAll(ctx context.Context, strat domain.Strategy, code domain.ValidationRecord, specs []WindowSpec, oosAlreadyRun map[int]bool) ([]domain.WindowResult, error) {
	jobs := make(chan windowJob, len(specs)*2)
	results := make(chan windowOutcome, len(specs)*2)

	numJobs := 0
	for _, spec := range specs {
		if oosAlreadyRun[spec.Index] {
			return nil, fmt.Errorf("window %d out-of-sample half already executed: one-shot violation", spec.Index)
		}
		jobs <- windowJob{index: spec.Index*2, spec: spec, isOOS: false}
		jobs <- windowJob{index: spec.Index*2 + 1, spec: spec, isOOS: true}
		numJobs += 2
	}
	close(jobs)

	workers := e.numWorkers
	if numJobs < workers {
		workers = numJobs
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx, strat, code, jobs, results)
		}()
	}

	wg.Wait()
	close(results)

	ordered := make([]domain.WindowResult, numJobs)
	failed := 0
	for outcome := range results {
		if outcome.err != nil {
			e.log.Error().Err(outcome.err).Int("job", outcome.index).Msg("window execution failed")
			failed++
		}
		ordered[outcome.index] = outcome.result
	}
	if failed > e.maxFailedWindows {
		return ordered, fmt.Errorf("%d windows failed, exceeding the configured bound of %d", failed, e.maxFailedWindows)
	}
	return ordered, nil
}

func (e *Executor) worker(ctx context.Context, strat domain.Strategy, code domain.ValidationRecord, jobs <-chan windowJob, results chan<- windowOutcome) {
	for job := range jobs {
		rng := job.spec.InSample
		if job.isOOS {
			rng = job.spec.OutSample
		}

		var submitResult backend.SubmitResult
		err := reliability.Retry(ctx, e.log, reliability.DefaultBackoff, func(ctx context.Context) error {
			var innerErr error
			submitResult, innerErr = e.be.Submit(ctx, backend.SubmitRequest{
				CodeHash:   code.CodeHash,
				Instrument: strat.Definition.Universe.Instruments,
				Range:      rng,
				Seed:       job.spec.Seed,
			})
			return innerErr
		})
		if err != nil {
			wrapped := fmt.Errorf("window %d: %w", job.spec.Index, err)
			results <- windowOutcome{index: job.index, err: wrapped, result: domain.WindowResult{
				Index:        job.spec.Index,
				InSample:     job.spec.InSample,
				OutSample:    job.spec.OutSample,
				IsOOS:        job.isOOS,
				Status:       domain.WindowError,
				ErrorMessage: wrapped.Error(),
				Seed:         job.spec.Seed,
			}}
			continue
		}

		results <- windowOutcome{index: job.index, result: domain.WindowResult{
			Index:      job.spec.Index,
			InSample:   job.spec.InSample,
			OutSample:  job.spec.OutSample,
			IsOOS:      job.isOOS,
			Status:     domain.WindowOK,
			Metrics:    submitResult.Metrics,
			Seed:       job.spec.Seed,
			BackendRef: submitResult.BackendRef,
		}}
	}
}
