package persona

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/rand"

	"github.com/extremevalue/research-kit/internal/domain"
)

// StubInvoker is a deterministic, seeded RawInvoker used when no live
// model provider is configured. It derives a verdict and a one-line note
// from a hash of the rendered prompt, so the same strategy always produces
// the same opinion from a given persona. Exercises the orchestrator and
// synthesis logic end to end without requiring a live LLM credential.
type StubInvoker struct{}

func (StubInvoker) InvokeRaw(ctx context.Context, kind Kind, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	digest := sha256.Sum256([]byte(string(kind) + prompt))
	rng := rand.New(rand.NewSource(int64(digest[0])<<8 | int64(digest[1])))
	verdicts := []string{"endorse", "reject", "abstain"}
	verdict := verdicts[rng.Intn(len(verdicts))]

	switch kind {
	case KindRiskManager:
		return fmt.Sprintf("VERDICT=%s CONCERN=leverage and drawdown profile reviewed", verdict), nil
	case KindMomentumTrader:
		return fmt.Sprintf("VERDICT=%s CONVICTION=%.2f", verdict, rng.Float64()), nil
	case KindQuantResearcher:
		return fmt.Sprintf("VERDICT=%s OVERFIT_CONCERN=parameter count and sample size reviewed", verdict), nil
	case KindContrarian:
		return fmt.Sprintf("VERDICT=%s COUNTER_ARGUMENT=edge may already be arbitraged away", verdict), nil
	case KindMadGenius:
		return fmt.Sprintf("VERDICT=%s ANGLE=regime dependence not addressed", verdict), nil
	case KindRationaleAnalyst:
		confidences := []string{"high", "medium", "low"}
		return fmt.Sprintf("MECHANISM=pattern consistent with a known risk premium CONFIDENCE=%s", confidences[rng.Intn(len(confidences))]), nil
	case KindIdeator:
		return "HYPOTHESIS=apply the same entry logic to a related instrument with slower mean reversion MECHANISM=cross-asset transfer", nil
	default:
		return fmt.Sprintf("VERDICT=%s", verdict), nil
	}
}

// TypedProvider implements Provider by dispatching to each roster
// persona's own typed request/response shape via Dispatch, then flattening
// the result into the orchestrator's common Opinion shape.
type TypedProvider struct {
	Invoker RawInvoker
}

func (tp TypedProvider) Invoke(ctx context.Context, kind Kind, strat domain.Strategy) (Opinion, error) {
	switch kind {
	case KindRiskManager:
		resp, err := Dispatch[RiskManagerRequest, RiskManagerResponse](ctx, RiskManagerPersona{}, tp.Invoker, strat)
		if err != nil {
			return Opinion{}, err
		}
		return Opinion{Verdict: resp.Verdict, Notes: resp.Concern}, nil
	case KindMomentumTrader:
		resp, err := Dispatch[MomentumTraderRequest, MomentumTraderResponse](ctx, MomentumTraderPersona{}, tp.Invoker, strat)
		if err != nil {
			return Opinion{}, err
		}
		return Opinion{Verdict: resp.Verdict, Score: resp.Conviction}, nil
	case KindQuantResearcher:
		resp, err := Dispatch[QuantResearcherRequest, QuantResearcherResponse](ctx, QuantResearcherPersona{}, tp.Invoker, strat)
		if err != nil {
			return Opinion{}, err
		}
		return Opinion{Verdict: resp.Verdict, Notes: resp.OverfitConcern}, nil
	case KindContrarian:
		resp, err := Dispatch[ContrarianRequest, ContrarianResponse](ctx, ContrarianPersona{}, tp.Invoker, strat)
		if err != nil {
			return Opinion{}, err
		}
		return Opinion{Verdict: resp.Verdict, Notes: resp.CounterArgument}, nil
	case KindMadGenius:
		resp, err := Dispatch[MadGeniusRequest, MadGeniusResponse](ctx, MadGeniusPersona{}, tp.Invoker, strat)
		if err != nil {
			return Opinion{}, err
		}
		return Opinion{Verdict: resp.Verdict, Notes: resp.Angle}, nil
	case KindIdeator:
		resp, err := Dispatch[IdeatorRequest, IdeatorResponse](ctx, IdeatorPersona{}, tp.Invoker, strat)
		if err != nil {
			return Opinion{}, err
		}
		return Opinion{Verdict: "endorse", Notes: resp.Hypothesis + " (" + resp.Mechanism + ")"}, nil
	case KindRationaleAnalyst:
		resp, err := Dispatch[RationaleAnalystRequest, RationaleAnalystResponse](ctx, RationaleAnalystPersona{}, tp.Invoker, strat)
		if err != nil {
			return Opinion{}, err
		}
		return Opinion{Verdict: "abstain", Notes: resp.Mechanism}, nil
	default:
		return Opinion{}, fmt.Errorf("no typed persona registered for %s", kind)
	}
}

// RationaleFallback adapts the rationale-analyst persona's typed dispatch
// into the shape rationale.Infer expects from its catalog-miss fallback,
// so C4 shares the same schema-validated sub-agent boundary as C10 instead
// of a bespoke LLM call path.
func RationaleFallback(invoker RawInvoker) func(strategyText string) (string, domain.Confidence, error) {
	return func(strategyText string) (string, domain.Confidence, error) {
		strat := domain.Strategy{Provenance: domain.Provenance{Excerpt: strategyText}}
		resp, err := Dispatch[RationaleAnalystRequest, RationaleAnalystResponse](context.Background(), RationaleAnalystPersona{}, invoker, strat)
		if err != nil {
			return "", domain.ConfidenceLow, err
		}
		return resp.Mechanism, resp.Confidence, nil
	}
}
