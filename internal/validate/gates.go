package validate

import (
	"github.com/extremevalue/research-kit/internal/config"
	"github.com/extremevalue/research-kit/internal/domain"
)

// Input bundles everything the gate evaluator needs for one validation
// run.
type Input struct {
	Windows      []domain.WindowResult
	FamilySize   int
	FamilyRank   int // this validation's rank among its family, by raw p-value ascending
	Seed         int64
}

// Evaluate runs the full C9 pipeline over a completed set of walk-forward
// windows: bootstrap CI, raw/adjusted p-value, consistency, per-regime
// aggregation, gate checks and final verdict.
func Evaluate(in Input, gates config.ValidationGates) domain.ValidationRecord {
	oosWindows := filterOOS(in.Windows)
	sharpes := sharpeSeries(oosWindows)

	boot := BootstrapCI(sharpes, gates.BootstrapSamples, in.Seed)
	raw := RawPValue(sharpes)
	method := CorrectionMethod(gates.CorrectionMethod)
	adjusted := AdjustPValue(raw, in.FamilyRank, in.FamilySize, method)
	consistency := Consistency(oosWindows)

	gateOutcomes := []domain.GateOutcome{
		{Name: "min_sharpe", Passed: boot.Mean >= gates.MinSharpe, Observed: boot.Mean, Required: gates.MinSharpe},
		{Name: "min_consistency", Passed: consistency >= gates.MinConsistency, Observed: consistency, Required: gates.MinConsistency},
		{Name: "max_drawdown", Passed: maxDrawdown(oosWindows) <= gates.MaxDrawdown, Observed: maxDrawdown(oosWindows), Required: gates.MaxDrawdown},
		{Name: "min_trades", Passed: float64(totalTrades(oosWindows)) >= float64(gates.MinTrades), Observed: float64(totalTrades(oosWindows)), Required: float64(gates.MinTrades)},
		{Name: "max_adjusted_p_value", Passed: adjusted <= gates.MaxAdjustedPValue, Observed: adjusted, Required: gates.MaxAdjustedPValue},
	}

	allPassed := true
	for _, g := range gateOutcomes {
		if !g.Passed {
			allPassed = false
			break
		}
	}

	verdict := domain.VerdictValidated
	var passingRegimes []string
	if !allPassed {
		passingRegimes = passingRegimeLabels(oosWindows, gates)
		if len(passingRegimes) > 0 {
			verdict = domain.VerdictConditional
		} else {
			verdict = domain.VerdictInvalidated
		}
	}

	return domain.ValidationRecord{
		Windows:       in.Windows,
		RegimeBuckets: aggregateByRegime(oosWindows),
		Significance: domain.SignificanceTest{
			BootstrapSamples: boot.Samples,
			SharpeLowerCI:    boot.LowerCI,
			SharpeUpperCI:    boot.UpperCI,
			RawPValue:        raw,
			AdjustedPValue:   adjusted,
			Method:           string(method),
			FamilySize:       in.FamilySize,
		},
		Consistency:    consistency,
		Gates:          gateOutcomes,
		Verdict:        verdict,
		PassingRegimes: passingRegimes,
	}
}

// passingRegimeLabels evaluates the performance gates (sharpe,
// consistency, drawdown, trade count) independently within each regime
// bucket and returns the label of every regime whose windows clear all
// of them on their own. The significance gate is a property of the whole
// run's bootstrap sample and isn't re-evaluated per regime: a regime with
// too few windows to bootstrap meaningfully still has a well-defined mean
// Sharpe/consistency/drawdown/trade-count.
func passingRegimeLabels(windows []domain.WindowResult, gates config.ValidationGates) []string {
	order := []string{}
	byRegime := map[string][]domain.WindowResult{}
	labels := map[string]string{}
	for _, w := range windows {
		key := regimeKey(w.Regime)
		if _, ok := byRegime[key]; !ok {
			order = append(order, key)
			labels[key] = regimeLabel(w.Regime)
		}
		byRegime[key] = append(byRegime[key], w)
	}

	var passing []string
	for _, key := range order {
		bucket := byRegime[key]
		sharpes := sharpeSeries(bucket)
		meanSharpe := mean(sharpes)
		if meanSharpe >= gates.MinSharpe &&
			Consistency(bucket) >= gates.MinConsistency &&
			maxDrawdown(bucket) <= gates.MaxDrawdown &&
			float64(totalTrades(bucket)) >= float64(gates.MinTrades) {
			passing = append(passing, labels[key])
		}
	}
	return passing
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func regimeLabel(r domain.RegimeLabel) string {
	return "direction=" + emptyAsUnknown(r.Direction) +
		" volatility=" + emptyAsUnknown(r.Volatility) +
		" rate=" + emptyAsUnknown(r.RateRegime) +
		" sector=" + emptyAsUnknown(r.Sector) +
		" cap=" + emptyAsUnknown(r.CapRegime)
}

func emptyAsUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func filterOOS(windows []domain.WindowResult) []domain.WindowResult {
	var out []domain.WindowResult
	for _, w := range windows {
		if w.IsOOS {
			out = append(out, w)
		}
	}
	return out
}

func sharpeSeries(windows []domain.WindowResult) []float64 {
	out := make([]float64, len(windows))
	for i, w := range windows {
		out[i] = w.Metrics.Sharpe
	}
	return out
}

func maxDrawdown(windows []domain.WindowResult) float64 {
	max := 0.0
	for _, w := range windows {
		if w.Metrics.MaxDrawdown > max {
			max = w.Metrics.MaxDrawdown
		}
	}
	return max
}

func totalTrades(windows []domain.WindowResult) int {
	total := 0
	for _, w := range windows {
		total += w.Metrics.TradeCount
	}
	return total
}

func aggregateByRegime(windows []domain.WindowResult) []domain.RegimeBucket {
	buckets := map[string]*domain.RegimeBucket{}
	order := []string{}
	for _, w := range windows {
		key := regimeKey(w.Regime)
		b, ok := buckets[key]
		if !ok {
			b = &domain.RegimeBucket{Regime: w.Regime}
			buckets[key] = b
			order = append(order, key)
		}
		b.WindowCount++
		b.Mean.CAGR += w.Metrics.CAGR
		b.Mean.Sharpe += w.Metrics.Sharpe
		b.Mean.Sortino += w.Metrics.Sortino
		b.Mean.MaxDrawdown += w.Metrics.MaxDrawdown
		b.Mean.WinRate += w.Metrics.WinRate
		b.Mean.ProfitFactor += w.Metrics.ProfitFactor
		b.Mean.TradeCount += w.Metrics.TradeCount
		b.Mean.Volatility += w.Metrics.Volatility
	}
	out := make([]domain.RegimeBucket, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		n := float64(b.WindowCount)
		if n > 0 {
			b.Mean.CAGR /= n
			b.Mean.Sharpe /= n
			b.Mean.Sortino /= n
			b.Mean.MaxDrawdown /= n
			b.Mean.WinRate /= n
			b.Mean.ProfitFactor /= n
			b.Mean.Volatility /= n
			b.Mean.TradeCount = int(float64(b.Mean.TradeCount) / n)
		}
		out = append(out, *b)
	}
	return out
}

func regimeKey(r domain.RegimeLabel) string {
	return r.Direction + "|" + r.Volatility + "|" + r.RateRegime + "|" + r.Sector + "|" + r.CapRegime
}
