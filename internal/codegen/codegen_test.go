package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremevalue/research-kit/internal/domain"
)

func momentumStrategy() domain.Strategy {
	return domain.Strategy{
		ID:   "STRAT-001",
		Name: "Dual Momentum Rotation",
		Edge: domain.Edge{Mechanism: "momentum"},
		Definition: domain.Definition{
			Tier:     domain.TierTemplated,
			Universe: domain.Universe{Instruments: []string{"SPY", "TLT"}},
			Position: domain.PositionSizing{MaxLeverage: 1.0},
		},
	}
}

func TestGenerate_Templated_IsDeterministic(t *testing.T) {
	g := New()
	strat := momentumStrategy()

	r1, err := g.Generate(strat, "")
	require.NoError(t, err)
	r2, err := g.Generate(strat, "")
	require.NoError(t, err)

	assert.Equal(t, r1.Code, r2.Code)
	assert.Equal(t, r1.CodeHash, r2.CodeHash)
	assert.False(t, r1.NeedsReview)
}

func TestGenerate_Templated_MeanReversionSelectsCorrectArchetype(t *testing.T) {
	strat := momentumStrategy()
	strat.Edge.Mechanism = "mean_reversion"
	g := New()
	r, err := g.Generate(strat, "")
	require.NoError(t, err)
	assert.Contains(t, r.Code, "RSI(")
}

func TestGenerate_Templated_TrendFollowingSelectsCorrectArchetype(t *testing.T) {
	strat := momentumStrategy()
	strat.Edge.Mechanism = "trend_following"
	g := New()
	r, err := g.Generate(strat, "")
	require.NoError(t, err)
	assert.Contains(t, r.Code, "bar.Close > bar.SMA(")
}

func TestGenerate_Templated_DualMomentumSelectsCorrectArchetype(t *testing.T) {
	strat := momentumStrategy()
	strat.Edge.Mechanism = "dual_momentum"
	g := New()
	r, err := g.Generate(strat, "")
	require.NoError(t, err)
	assert.Contains(t, r.Code, "bar.Momentum(")
}

func TestGenerate_Templated_BreakoutSelectsCorrectArchetype(t *testing.T) {
	strat := momentumStrategy()
	strat.Edge.Mechanism = "breakout"
	g := New()
	r, err := g.Generate(strat, "")
	require.NoError(t, err)
	assert.Contains(t, r.Code, "bar.Highest(")
}

func TestGenerate_Templated_UnrecognizedMechanism_FailsClosed(t *testing.T) {
	strat := momentumStrategy()
	strat.Edge.Mechanism = "pairs_trading"
	g := New()
	_, err := g.Generate(strat, "")
	assert.Error(t, err)
}

func TestGenerate_Assembled_ProducesFingerprint(t *testing.T) {
	strat := momentumStrategy()
	strat.Definition.Tier = domain.TierAssembled
	strat.Definition.Entry = []string{"cross_above(sma(close, 20), sma(close, 100))"}
	strat.Definition.Exit = []string{"cross_below(close, sma(close, 20))"}

	g := New()
	r, err := g.Generate(strat, "")
	require.NoError(t, err)
	assert.NotEmpty(t, r.Fingerprint.Indicators)
	assert.Contains(t, r.Code, "EvalDSL")
}

func TestGenerate_Assembled_InvalidRule_Errors(t *testing.T) {
	strat := momentumStrategy()
	strat.Definition.Tier = domain.TierAssembled
	strat.Definition.Entry = []string{"this is not valid dsl syntax((("}

	g := New()
	_, err := g.Generate(strat, "")
	assert.Error(t, err)
}

func TestGenerate_Freeform_AlwaysNeedsReview(t *testing.T) {
	strat := momentumStrategy()
	strat.Definition.Tier = domain.TierFreeform

	g := New()
	r, err := g.Generate(strat, "package strategies\n// hand-written by a persona\n")
	require.NoError(t, err)
	assert.True(t, r.NeedsReview)
	assert.NotEmpty(t, r.CodeHash)
}

func TestGenerate_Freeform_EmptySource_Errors(t *testing.T) {
	strat := momentumStrategy()
	strat.Definition.Tier = domain.TierFreeform

	g := New()
	_, err := g.Generate(strat, "   ")
	assert.Error(t, err)
}

func TestGenerate_UnknownTier_Errors(t *testing.T) {
	strat := momentumStrategy()
	strat.Definition.Tier = domain.Tier(99)

	g := New()
	_, err := g.Generate(strat, "")
	assert.Error(t, err)
}

func TestScanLiteralDates_DetectsISO8601(t *testing.T) {
	hits := ScanLiteralDates(`if date == "2019-03-04" { return true }`)
	assert.NotEmpty(t, hits)
}

func TestScanLiteralDates_DetectsSetStartDate(t *testing.T) {
	hits := ScanLiteralDates(`SetStartDate(2015, 1, 1)`)
	assert.NotEmpty(t, hits)
}

func TestScanLiteralDates_CleanCode_NoHits(t *testing.T) {
	hits := ScanLiteralDates(`return bar.Close > bar.SMA(20)`)
	assert.Empty(t, hits)
}

func TestClassNameFor_StableAndDerivedFromNameAndID(t *testing.T) {
	strat := momentumStrategy()
	name1 := ClassNameFor(strat)
	name2 := ClassNameFor(strat)
	assert.Equal(t, name1, name2)
	assert.Contains(t, name1, "STRAT001")
}

func TestClassNameFor_EmptyName_FallsBackToStrategy(t *testing.T) {
	strat := momentumStrategy()
	strat.Name = "***"
	name := ClassNameFor(strat)
	assert.Contains(t, name, "Strategy_")
}
