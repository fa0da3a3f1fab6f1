// Package ingest implements the Ingestion Quality Filter (C3): specificity
// and trust scoring, red-flag detection, and the accept/archive/reject
// decision gate that runs before a strategy enters verification (Decide
// never returns DecisionQueue).
package ingest

import (
	"fmt"
	"strings"

	"github.com/extremevalue/research-kit/internal/domain"
)

// Specificity is the 8-point "can we actually backtest this" score.
type Specificity struct {
	HasEntryRules        bool
	HasExitRules         bool
	HasPositionSizing    bool
	HasUniverseDefinition bool
	HasBacktestPeriod    bool
	HasOutOfSample       bool
	HasTransactionCosts  bool
	HasCodeOrPseudocode  bool
}

// Score sums the eight boolean components (0-8).
func (s Specificity) Score() int {
	total := 0
	for _, b := range []bool{
		s.HasEntryRules, s.HasExitRules, s.HasPositionSizing, s.HasUniverseDefinition,
		s.HasBacktestPeriod, s.HasOutOfSample, s.HasTransactionCosts, s.HasCodeOrPseudocode,
	} {
		if b {
			total++
		}
	}
	return total
}

// Trust is the 0-100 "worth testing" composite score.
type Trust struct {
	EconomicRationale     int // 0-30
	OutOfSampleEvidence   int // 0-25
	ImplementationRealism int // 0-20
	SourceCredibility     int // 0-15
	Novelty               int // 0-10
	RedFlagPenalty        int // <= 0, -15 per red flag
}

// Total clamps the raw sum to [0, 100].
func (t Trust) Total() int {
	raw := t.EconomicRationale + t.OutOfSampleEvidence + t.ImplementationRealism +
		t.SourceCredibility + t.Novelty + t.RedFlagPenalty
	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return raw
}

const redFlagPenaltyPerFlag = -15

// HardRedFlags enumerates the flags that force an automatic reject.
var HardRedFlags = map[string]string{
	"sharpe_above_3":        "claimed Sharpe > 3.0 (non-HFT) - almost certainly overfit or fraud",
	"no_losing_periods":     "never had a losing month/year - statistically implausible",
	"works_all_conditions":  "works in all market conditions - nothing does",
	"author_selling":        "author selling courses/signals/newsletters - incentive bias",
	"convenient_start_date": "backtest starts after a known drawdown - cherry-picked period",
	"excessive_parameters":  "more than 5 tunable parameters - overfitting machine",
}

// SoftRedFlags enumerates advisory flags that trigger a warning but not
// rejection.
var SoftRedFlags = map[string]string{
	"unknown_rationale":    "no rationale found after rationale inference",
	"no_transaction_costs": "no discussion of costs or slippage",
	"no_drawdown_mentioned": "no drawdown discussed",
	"single_market":        "only tested in one geography",
	"single_regime":        "only tested in a bull market",
	"small_sample":         "fewer than 30 independent observations",
	"high_leverage":        "requires leverage above 3x",
	"crowded_factor":       "relies on a well-known factor",
	"magic_numbers":        "specific parameters without justification",
	"stopped_discussing":   "strategy no longer mentioned by the source",
}

func hardFlag(id string) domain.RedFlag {
	return domain.RedFlag{ID: id, Severity: domain.SeverityHard, Message: HardRedFlags[id]}
}

func softFlag(id string) domain.RedFlag {
	return domain.RedFlag{ID: id, Severity: domain.SeveritySoft, Message: SoftRedFlags[id]}
}

// Thresholds configures the accept/archive boundary, loaded from
// config.GatesConfig.Ingestion.
type Thresholds struct {
	Specificity int
	Trust       int
}

// Assessment is the full quality-filter output for one strategy.
type Assessment struct {
	Specificity     Specificity
	Trust           Trust
	RedFlags        []domain.RedFlag
	Decision        domain.IngestionDecision
	RejectionReason string
	Warnings        []string
}

func (a Assessment) hardFlags() []domain.RedFlag {
	var out []domain.RedFlag
	for _, f := range a.RedFlags {
		if f.Severity == domain.SeverityHard {
			out = append(out, f)
		}
	}
	return out
}

func (a Assessment) softFlags() []domain.RedFlag {
	var out []domain.RedFlag
	for _, f := range a.RedFlags {
		if f.Severity == domain.SeveritySoft {
			out = append(out, f)
		}
	}
	return out
}

// Decide computes the ingestion decision from the assessment's scores and
// flags, in the order mandated by the original filter: hard flags reject
// outright, then specificity, then trust, then soft flags downgrade to a
// warning-bearing accept.
func (a *Assessment) Decide(th Thresholds) domain.IngestionDecision {
	if hard := a.hardFlags(); len(hard) > 0 {
		ids := make([]string, len(hard))
		for i, f := range hard {
			ids[i] = f.ID
		}
		a.RejectionReason = fmt.Sprintf("hard red flags: %s", strings.Join(ids, ", "))
		a.Decision = domain.DecisionReject
		return a.Decision
	}

	if a.Specificity.Score() < th.Specificity {
		a.RejectionReason = fmt.Sprintf("specificity %d/%d - too vague to test", a.Specificity.Score(), th.Specificity)
		a.Decision = domain.DecisionArchive
		return a.Decision
	}

	if a.Trust.Total() < th.Trust {
		a.RejectionReason = fmt.Sprintf("trust %d/%d - not worth testing", a.Trust.Total(), th.Trust)
		a.Decision = domain.DecisionArchive
		return a.Decision
	}

	if soft := a.softFlags(); len(soft) > 0 {
		for _, f := range soft {
			a.Warnings = append(a.Warnings, f.Message)
		}
		a.Decision = domain.DecisionAccept
		return a.Decision
	}

	a.Decision = domain.DecisionAccept
	return a.Decision
}

// ToQuality converts the assessment into the domain.IngestionQuality
// record persisted on the strategy.
func (a Assessment) ToQuality() domain.IngestionQuality {
	return domain.IngestionQuality{
		Specificity: a.Specificity.Score(),
		Trust:       a.Trust.Total(),
		RedFlags:    a.RedFlags,
		Decision:    a.Decision,
	}
}
