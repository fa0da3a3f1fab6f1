// Package persona implements the Persona Orchestrator (C10): a fixed
// roster of typed personas dispatched in parallel against a strategy,
// each returning its own opinion schema, reconciled into a quorum
// decision.
package persona

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/extremevalue/research-kit/internal/domain"
)

// Kind identifies one persona in the fixed roster.
type Kind string

const (
	KindMomentumTrader  Kind = "momentum_trader"
	KindRiskManager     Kind = "risk_manager"
	KindQuantResearcher Kind = "quant_researcher"
	KindContrarian      Kind = "contrarian"
	KindMadGenius       Kind = "mad_genius"
	KindSynthesizer      Kind = "synthesizer"
	KindIdeator          Kind = "ideator"
	KindRationaleAnalyst Kind = "rationale_analyst"
)

// Opinion is a persona's structured response to a strategy review
// request. Every persona kind fills the same shape; personas that don't
// produce a numeric score (e.g. the ideator) leave Score at zero and rely
// on Notes.
type Opinion struct {
	Persona    Kind
	Strategy   string
	Verdict    string // endorse, reject, abstain
	Score      float64
	Notes      string
	Missing    bool // true if this persona timed out or errored
}

// Provider is the boundary to whatever actually generates a persona's
// opinion (an LLM call, a rules engine, a human-in-the-loop queue). The
// orchestrator is agnostic to what's behind it.
type Provider interface {
	Invoke(ctx context.Context, kind Kind, strat domain.Strategy) (Opinion, error)
}

// Orchestrator dispatches a strategy to every persona in the roster in
// parallel, bounded by a worker pool and a token-bucket rate limiter
// shared across personas (since personas typically call the same rate
// limited upstream LLM provider).
type Orchestrator struct {
	roster     []Kind
	quorum     int
	timeout    time.Duration
	limiter    *rate.Limiter
	provider   Provider
	numWorkers int
	log        zerolog.Logger
}

// New builds an Orchestrator. ratePerSecond <= 0 disables rate limiting.
func New(roster []Kind, quorum int, timeout time.Duration, ratePerSecond float64, provider Provider, log zerolog.Logger) *Orchestrator {
	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return &Orchestrator{
		roster:     roster,
		quorum:     quorum,
		timeout:    timeout,
		limiter:    limiter,
		provider:   provider,
		numWorkers: len(roster),
		log:        log.With().Str("component", "persona").Logger(),
	}
}

type dispatchJob struct {
	index int
	kind  Kind
}

type dispatchResult struct {
	index   int
	opinion Opinion
}

// Panel is the full result of dispatching one strategy to the roster.
type Panel struct {
	Opinions  []Opinion
	QuorumMet bool
}

// Dispatch fans out strat to every persona in the roster, waits for all
// (or their individual timeouts) to complete, and reports whether enough
// personas responded to form a quorum.
func (o *Orchestrator) Dispatch(ctx context.Context, strat domain.Strategy) Panel {
	jobs := make(chan dispatchJob, len(o.roster))
	results := make(chan dispatchResult, len(o.roster))

	var wg sync.WaitGroup
	workers := o.numWorkers
	if workers <= 0 || workers > len(o.roster) {
		workers = len(o.roster)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.worker(ctx, strat, jobs, results)
		}()
	}

	for i, kind := range o.roster {
		jobs <- dispatchJob{index: i, kind: kind}
	}
	close(jobs)

	wg.Wait()
	close(results)

	opinions := make([]Opinion, len(o.roster))
	for r := range results {
		opinions[r.index] = r.opinion
	}

	responded := 0
	for _, op := range opinions {
		if !op.Missing {
			responded++
		}
	}

	return Panel{Opinions: opinions, QuorumMet: responded >= o.quorum}
}

func (o *Orchestrator) worker(ctx context.Context, strat domain.Strategy, jobs <-chan dispatchJob, results chan<- dispatchResult) {
	for job := range jobs {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				results <- dispatchResult{index: job.index, opinion: Opinion{Persona: job.kind, Strategy: strat.ID, Missing: true, Notes: err.Error()}}
				continue
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		opinion, err := o.provider.Invoke(callCtx, job.kind, strat)
		cancel()

		if err != nil {
			o.log.Warn().Err(err).Str("persona", string(job.kind)).Str("strategy_id", strat.ID).Msg("persona dispatch failed")
			results <- dispatchResult{index: job.index, opinion: Opinion{Persona: job.kind, Strategy: strat.ID, Missing: true, Notes: err.Error()}}
			continue
		}
		opinion.Persona = job.kind
		opinion.Strategy = strat.ID
		if err := Validate(opinion); err != nil {
			o.log.Warn().Err(err).Str("persona", string(job.kind)).Str("strategy_id", strat.ID).Msg("persona returned malformed opinion")
			opinion = Opinion{Persona: job.kind, Strategy: strat.ID, Missing: true, Notes: err.Error()}
		}
		results <- dispatchResult{index: job.index, opinion: opinion}
	}
}

// Validate checks that an Opinion came back well-formed: a non-missing
// opinion must carry one of the three recognized verdicts. Used at the
// Dispatch boundary so a malformed provider response surfaces as
// `status: missing` rather than silently corrupting the panel.
func Validate(o Opinion) error {
	if o.Missing {
		return nil
	}
	switch o.Verdict {
	case "endorse", "reject", "abstain":
		return nil
	default:
		return fmt.Errorf("persona %s returned unrecognized verdict %q", o.Persona, o.Verdict)
	}
}
