// Package validate implements the Statistical Validator (C9): bootstrap
// confidence intervals, raw and multiple-testing-corrected significance,
// cross-regime consistency, and the final gate evaluation that produces
// a VALIDATED/CONDITIONAL/INVALIDATED verdict.
package validate

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/extremevalue/research-kit/internal/domain"
)

// BootstrapResult holds the resampled confidence interval for a metric.
type BootstrapResult struct {
	Mean     float64
	LowerCI  float64
	UpperCI  float64
	Samples  int
}

// BootstrapCI runs a non-parametric bootstrap over per-window Sharpe
// ratios, resampling with replacement `samples` times and returning the
// 2.5/97.5 percentile interval. At least 1000 resamples are required by
// the validation gate config default.
func BootstrapCI(sharpes []float64, samples int, seed int64) BootstrapResult {
	n := len(sharpes)
	if n == 0 {
		return BootstrapResult{}
	}
	rng := rand.New(rand.NewSource(seed))
	means := make([]float64, samples)
	for i := 0; i < samples; i++ {
		resample := make([]float64, n)
		for j := 0; j < n; j++ {
			resample[j] = sharpes[rng.Intn(n)]
		}
		means[i] = stat.Mean(resample, nil)
	}
	sort.Float64s(means)

	lowerIdx := int(0.025 * float64(samples))
	upperIdx := int(0.975 * float64(samples))
	if upperIdx >= samples {
		upperIdx = samples - 1
	}

	return BootstrapResult{
		Mean:    stat.Mean(sharpes, nil),
		LowerCI: means[lowerIdx],
		UpperCI: means[upperIdx],
		Samples: samples,
	}
}

// RawPValue computes a one-sided p-value for the null hypothesis that the
// strategy's mean Sharpe is <= 0, using a normal approximation over the
// per-window Sharpe distribution. This mirrors the asymptotic-normality
// assumption standard in Sharpe ratio significance testing; it is a
// simplification relative to a full stationary bootstrap p-value but is
// consistent with the bootstrap CI computed alongside it.
func RawPValue(sharpes []float64) float64 {
	n := len(sharpes)
	if n < 2 {
		return 1.0
	}
	mean := stat.Mean(sharpes, nil)
	std := stat.StdDev(sharpes, nil)
	if std == 0 {
		if mean > 0 {
			return 0
		}
		return 1.0
	}
	tStat := mean / (std / math.Sqrt(float64(n)))
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	return 1 - norm.CDF(tStat)
}

// CorrectionMethod selects the multiple-testing correction applied to a
// family of p-values.
type CorrectionMethod string

const (
	MethodFDRBenjaminiHochberg CorrectionMethod = "fdr_bh"
	MethodBonferroni           CorrectionMethod = "bonferroni"
)

// AdjustPValue corrects a single raw p-value for multiple testing within
// a family of `familySize` tests. Family size is scoped to the
// strategy's lineage (every validation run sharing its lineage-root
// definition-hash chain), not the whole workspace or a single batch:
// testing ten variants of one idea inflates that idea's own false
// discovery risk, it does not inflate an unrelated idea's.
func AdjustPValue(raw float64, rank, familySize int, method CorrectionMethod) float64 {
	if familySize < 1 {
		familySize = 1
	}
	switch method {
	case MethodBonferroni:
		adjusted := raw * float64(familySize)
		if adjusted > 1 {
			adjusted = 1
		}
		return adjusted
	default: // fdr_bh
		if rank < 1 {
			rank = 1
		}
		adjusted := raw * float64(familySize) / float64(rank)
		if adjusted > 1 {
			adjusted = 1
		}
		return adjusted
	}
}

// Consistency computes the fraction of windows with a positive Sharpe
// ratio, a simple cross-window robustness measure distinct from the
// bootstrap CI (which measures confidence in the mean, not dispersion
// across windows).
func Consistency(windows []domain.WindowResult) float64 {
	if len(windows) == 0 {
		return 0
	}
	positive := 0
	for _, w := range windows {
		if w.Metrics.Sharpe > 0 {
			positive++
		}
	}
	return float64(positive) / float64(len(windows))
}
