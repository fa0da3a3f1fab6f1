package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/extremevalue/research-kit/internal/domain"
)

func validStrategy() domain.Strategy {
	return domain.Strategy{
		Definition: domain.Definition{
			Universe: domain.Universe{PointInTime: true, Instruments: []string{"SPY"}},
			Entry:    []string{"close crosses above sma(50)"},
			Exit:     []string{"close crosses below sma(50)"},
			Position: domain.PositionSizing{Method: "volatility_target", MaxLeverage: 1.5},
		},
	}
}

type fakeRegistry struct{ available bool }

func (f fakeRegistry) Available(instrument string, from, to string) bool { return f.available }

func TestRun_AllPass_NotBlocked(t *testing.T) {
	strat := validStrategy()
	results := Run(strat, fakeRegistry{available: true}, []string{
		"look_ahead_bias", "survivorship_bias", "position_sizing_sanity", "data_availability", "parameter_sanity", "hardcoded_values",
	})
	assert.Len(t, results, 6)
	assert.False(t, Blocked(results))
	for _, r := range results {
		assert.Equal(t, StatusPass, r.Status, r.Check)
	}
}

func TestRun_UnknownCheckName_FailsRatherThanSkipping(t *testing.T) {
	results := Run(validStrategy(), nil, []string{"not_a_real_check"})
	assert.Len(t, results, 1)
	assert.Equal(t, StatusFail, results[0].Status)
	assert.True(t, Blocked(results))
}

func TestCheckLookAheadBias_DetectsFutureReference(t *testing.T) {
	strat := validStrategy()
	strat.Definition.Entry = []string{"enter when tomorrow's open exceeds today's close"}
	result := checkLookAheadBias(strat, nil)
	assert.Equal(t, StatusFail, result.Status)
}

func TestCheckSurvivorshipBias_FailsWhenNotPointInTime(t *testing.T) {
	strat := validStrategy()
	strat.Definition.Universe.PointInTime = false
	result := checkSurvivorshipBias(strat, nil)
	assert.Equal(t, StatusFail, result.Status)
}

func TestCheckPositionSizingSanity_RejectsExcessiveLeverage(t *testing.T) {
	strat := validStrategy()
	strat.Definition.Position.MaxLeverage = 25
	result := checkPositionSizingSanity(strat, nil)
	assert.Equal(t, StatusFail, result.Status)
}

func TestCheckPositionSizingSanity_RejectsZeroLeverage(t *testing.T) {
	strat := validStrategy()
	strat.Definition.Position.MaxLeverage = 0
	result := checkPositionSizingSanity(strat, nil)
	assert.Equal(t, StatusFail, result.Status)
}

func TestCheckPositionSizingSanity_RejectsMissingMethod(t *testing.T) {
	strat := validStrategy()
	strat.Definition.Position.Method = ""
	result := checkPositionSizingSanity(strat, nil)
	assert.Equal(t, StatusFail, result.Status)
}

func TestCheckDataAvailability_NoRegistry_Warns(t *testing.T) {
	result := checkDataAvailability(validStrategy(), nil)
	assert.Equal(t, StatusWarn, result.Status)
}

func TestCheckDataAvailability_MissingInstrument_Fails(t *testing.T) {
	result := checkDataAvailability(validStrategy(), fakeRegistry{available: false})
	assert.Equal(t, StatusFail, result.Status)
}

func TestCheckParameterSanity_WarnsOnManyParameters(t *testing.T) {
	strat := validStrategy()
	strat.Definition.Parameters = map[string]float64{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6}
	result := checkParameterSanity(strat, nil)
	assert.Equal(t, StatusWarn, result.Status)
}

func TestCheckHardcodedValues_WarnsOnLiteralYear(t *testing.T) {
	strat := validStrategy()
	strat.Definition.Entry = []string{"only trade after 2015 because markets changed"}
	result := checkHardcodedValues(strat, nil)
	assert.Equal(t, StatusWarn, result.Status)
}

func TestCheckHardcodedValues_PassesOnNormalRule(t *testing.T) {
	result := checkHardcodedValues(validStrategy(), nil)
	assert.Equal(t, StatusPass, result.Status)
}

func TestCheckHardcodedValues_WarnsOnSuspiciouslyPreciseConstant(t *testing.T) {
	strat := validStrategy()
	strat.Definition.Entry = []string{"rsi(close, 14) < 0.618034"}
	result := checkHardcodedValues(strat, nil)
	assert.Equal(t, StatusWarn, result.Status)
}

func TestCheckHardcodedValues_PassesOnRoundThreshold(t *testing.T) {
	strat := validStrategy()
	strat.Definition.Entry = []string{"rsi(close, 14) < 0.3"}
	result := checkHardcodedValues(strat, nil)
	assert.Equal(t, StatusPass, result.Status)
}
