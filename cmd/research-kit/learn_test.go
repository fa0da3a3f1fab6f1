package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/extremevalue/research-kit/internal/domain"
)

func TestDistillLearning_Validated_EdgeConfirmed(t *testing.T) {
	strat := domain.Strategy{ID: "STRAT-001", Name: "Dual Momentum"}
	v := domain.ValidationRecord{
		RunID:       "run-1",
		Verdict:     domain.VerdictValidated,
		Consistency: 0.9,
		Windows:     []domain.WindowResult{{}, {}},
		Significance: domain.SignificanceTest{FamilySize: 2, SharpeLowerCI: 0.3, SharpeUpperCI: 1.1},
	}
	rec := distillLearning("LRN-001", strat, v)
	assert.Equal(t, domain.LearningEdgeConfirmed, rec.Category)
	assert.Equal(t, domain.ConfidenceHigh, rec.Confidence)
}

func TestDistillLearning_Invalidated_EdgeRefuted(t *testing.T) {
	strat := domain.Strategy{ID: "STRAT-001", Name: "Dual Momentum"}
	v := domain.ValidationRecord{RunID: "run-1", Verdict: domain.VerdictInvalidated, Significance: domain.SignificanceTest{FamilySize: 2}}
	rec := distillLearning("LRN-001", strat, v)
	assert.Equal(t, domain.LearningEdgeRefuted, rec.Category)
}

func TestDistillLearning_Conditional_EdgeConfirmedLowerConfidence(t *testing.T) {
	strat := domain.Strategy{ID: "STRAT-001", Name: "Dual Momentum"}
	v := domain.ValidationRecord{RunID: "run-1", Verdict: domain.VerdictConditional, Consistency: 0.5, Significance: domain.SignificanceTest{FamilySize: 3}}
	rec := distillLearning("LRN-001", strat, v)
	assert.Equal(t, domain.LearningEdgeConfirmed, rec.Category)
	assert.NotEqual(t, domain.ConfidenceHigh, rec.Confidence)
}

func TestDistillLearning_SingleFamilyMember_LowConfidence(t *testing.T) {
	strat := domain.Strategy{ID: "STRAT-001", Name: "Dual Momentum"}
	v := domain.ValidationRecord{RunID: "run-1", Verdict: domain.VerdictConditional, Significance: domain.SignificanceTest{FamilySize: 1}}
	rec := distillLearning("LRN-001", strat, v)
	assert.Equal(t, domain.ConfidenceLow, rec.Confidence)
}

func TestDistillLearning_RegimeSpread_OverridesCategory(t *testing.T) {
	strat := domain.Strategy{ID: "STRAT-001", Name: "Dual Momentum"}
	v := domain.ValidationRecord{
		RunID:   "run-1",
		Verdict: domain.VerdictValidated,
		RegimeBuckets: []domain.RegimeBucket{
			{Regime: domain.RegimeLabel{Direction: "bull"}, Mean: domain.WindowMetrics{Sharpe: 2.0}},
			{Regime: domain.RegimeLabel{Direction: "bear"}, Mean: domain.WindowMetrics{Sharpe: -0.5}},
		},
		Significance: domain.SignificanceTest{FamilySize: 2},
	}
	rec := distillLearning("LRN-001", strat, v)
	assert.Equal(t, domain.LearningRegimeSensitive, rec.Category)
	assert.Contains(t, rec.Summary, "diverges")
}

func TestRegimeSpread_FewerThanTwoBuckets_False(t *testing.T) {
	v := domain.ValidationRecord{RegimeBuckets: []domain.RegimeBucket{{Mean: domain.WindowMetrics{Sharpe: 1.0}}}}
	assert.False(t, regimeSpread(v))
}

func TestRegimeSpread_NarrowRange_False(t *testing.T) {
	v := domain.ValidationRecord{RegimeBuckets: []domain.RegimeBucket{
		{Mean: domain.WindowMetrics{Sharpe: 0.8}},
		{Mean: domain.WindowMetrics{Sharpe: 1.2}},
	}}
	assert.False(t, regimeSpread(v))
}

func TestRegimeSpread_WideRange_True(t *testing.T) {
	v := domain.ValidationRecord{RegimeBuckets: []domain.RegimeBucket{
		{Mean: domain.WindowMetrics{Sharpe: 2.0}},
		{Mean: domain.WindowMetrics{Sharpe: -0.5}},
	}}
	assert.True(t, regimeSpread(v))
}
