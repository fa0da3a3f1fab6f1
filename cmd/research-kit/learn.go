package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/extremevalue/research-kit/internal/config"
	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/store"
)

// cmdLearn distills a completed validation run into a reusable
// LearningRecord: what the outcome implies about the strategy's edge and
// under which regimes it held up or broke down.
func cmdLearn(st *store.Store, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("learn", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: research-kit learn <STRAT-ID>")
		return exitUsage
	}
	id := fs.Arg(0)

	strat, err := st.GetStrategy(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	validation, err := st.LatestValidation(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	allocator, err := learningAllocator(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	learnID, err := allocator.Next()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	rec := distillLearning(learnID, strat, validation)
	if err := st.AppendLearning(rec); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	fmt.Printf("%s: %s (%s)\n", rec.ID, rec.Summary, rec.Category)
	return exitOK
}

// distillLearning converts a validation outcome into a learning record.
// Regime-sensitive strategies (strong in some buckets, weak in others) are
// flagged distinctly from a flat edge-confirmed/edge-refuted verdict,
// since that distinction is the more useful thing to remember for future
// strategy design.
func distillLearning(id string, strat domain.Strategy, v domain.ValidationRecord) domain.LearningRecord {
	category := domain.LearningEdgeRefuted
	summary := fmt.Sprintf("%s did not validate: adjusted p-value %.4f", strat.Name, v.Significance.AdjustedPValue)

	switch v.Verdict {
	case domain.VerdictValidated:
		category = domain.LearningEdgeConfirmed
		summary = fmt.Sprintf("%s validated: consistency %.2f across %d windows", strat.Name, v.Consistency, len(v.Windows))
	case domain.VerdictConditional:
		category = domain.LearningEdgeConfirmed
		summary = fmt.Sprintf("%s passed the performance gates only in some regimes (p=%.4f)", strat.Name, v.Significance.AdjustedPValue)
	}

	if regimeSpread(v) {
		category = domain.LearningRegimeSensitive
		summary += "; performance diverges sharply by regime"
	}

	confidence := domain.ConfidenceMedium
	if v.Significance.FamilySize <= 1 {
		confidence = domain.ConfidenceLow
	}
	if v.Verdict == domain.VerdictValidated && v.Consistency > 0.8 {
		confidence = domain.ConfidenceHigh
	}

	regimes := make([]domain.RegimeLabel, 0, len(v.RegimeBuckets))
	for _, b := range v.RegimeBuckets {
		regimes = append(regimes, b.Regime)
	}

	return domain.LearningRecord{
		ID:         id,
		StrategyID: strat.ID,
		CreatedAt:  time.Now().UTC(),
		Category:   category,
		Summary:    summary,
		Evidence:   fmt.Sprintf("run %s, %d out-of-sample windows, sharpe CI [%.2f, %.2f]", v.RunID, len(v.Windows), v.Significance.SharpeLowerCI, v.Significance.SharpeUpperCI),
		Regimes:    regimes,
		Confidence: confidence,
	}
}

// regimeSpread reports whether mean Sharpe across regime buckets varies
// widely enough to call the strategy regime-sensitive rather than
// uniformly good or bad.
func regimeSpread(v domain.ValidationRecord) bool {
	if len(v.RegimeBuckets) < 2 {
		return false
	}
	min, max := v.RegimeBuckets[0].Mean.Sharpe, v.RegimeBuckets[0].Mean.Sharpe
	for _, b := range v.RegimeBuckets[1:] {
		if b.Mean.Sharpe < min {
			min = b.Mean.Sharpe
		}
		if b.Mean.Sharpe > max {
			max = b.Mean.Sharpe
		}
	}
	return max-min > 1.0
}
