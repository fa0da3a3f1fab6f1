package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremevalue/research-kit/internal/domain"
)

func TestRiskManagerPersona_ParseResponse(t *testing.T) {
	p := RiskManagerPersona{}
	resp, err := p.ParseResponse("VERDICT=reject CONCERN=leverage too high")
	require.NoError(t, err)
	assert.Equal(t, "reject", resp.Verdict)
	assert.Equal(t, "leverage too high", resp.Concern)
}

func TestRiskManagerPersona_ParseResponse_MissingVerdict_Errors(t *testing.T) {
	p := RiskManagerPersona{}
	_, err := p.ParseResponse("CONCERN=leverage too high")
	assert.Error(t, err)
}

func TestRiskManagerPersona_BuildRequest(t *testing.T) {
	p := RiskManagerPersona{}
	strat := domain.Strategy{
		Name:       "Test",
		Definition: domain.Definition{Position: domain.PositionSizing{MaxLeverage: 2.0}, Risks: []string{"tail risk"}},
	}
	req := p.BuildRequest(strat)
	assert.Equal(t, "Test", req.StrategyName)
	assert.Equal(t, 2.0, req.MaxLeverage)
	assert.Equal(t, []string{"tail risk"}, req.Drawdowns)
}

func TestMomentumTraderPersona_ParseResponse(t *testing.T) {
	p := MomentumTraderPersona{}
	resp, err := p.ParseResponse("VERDICT=endorse CONVICTION=0.75")
	require.NoError(t, err)
	assert.Equal(t, "endorse", resp.Verdict)
	assert.InDelta(t, 0.75, resp.Conviction, 1e-9)
}

func TestQuantResearcherPersona_ParseResponse(t *testing.T) {
	p := QuantResearcherPersona{}
	resp, err := p.ParseResponse("VERDICT=abstain OVERFIT_CONCERN=too many parameters for sample size")
	require.NoError(t, err)
	assert.Equal(t, "abstain", resp.Verdict)
	assert.Equal(t, "too many parameters for sample size", resp.OverfitConcern)
}

func TestContrarianPersona_ParseResponse(t *testing.T) {
	p := ContrarianPersona{}
	resp, err := p.ParseResponse("VERDICT=reject COUNTER_ARGUMENT=edge likely arbitraged away")
	require.NoError(t, err)
	assert.Equal(t, "reject", resp.Verdict)
}

func TestMadGeniusPersona_ParseResponse(t *testing.T) {
	p := MadGeniusPersona{}
	resp, err := p.ParseResponse("VERDICT=abstain ANGLE=regime dependence ignored")
	require.NoError(t, err)
	assert.Equal(t, "abstain", resp.Verdict)
	assert.Equal(t, "regime dependence ignored", resp.Angle)
}

func TestRationaleAnalystPersona_ParseResponse(t *testing.T) {
	p := RationaleAnalystPersona{}
	resp, err := p.ParseResponse("MECHANISM=momentum risk premium CONFIDENCE=medium")
	require.NoError(t, err)
	assert.Equal(t, "momentum risk premium", resp.Mechanism)
	assert.Equal(t, domain.ConfidenceMedium, resp.Confidence)
}

func TestRationaleAnalystPersona_ParseResponse_MissingMechanism_Errors(t *testing.T) {
	p := RationaleAnalystPersona{}
	_, err := p.ParseResponse("CONFIDENCE=high")
	assert.Error(t, err)
}

func TestIdeatorPersona_ParseResponse(t *testing.T) {
	p := IdeatorPersona{}
	resp, err := p.ParseResponse("HYPOTHESIS=try this on a related instrument MECHANISM=cross-asset transfer")
	require.NoError(t, err)
	assert.Equal(t, "try this on a related instrument", resp.Hypothesis)
	assert.Equal(t, "cross-asset transfer", resp.Mechanism)
}

func TestIdeatorPersona_ParseResponse_MissingHypothesis_Errors(t *testing.T) {
	p := IdeatorPersona{}
	_, err := p.ParseResponse("MECHANISM=cross-asset transfer")
	assert.Error(t, err)
}

func TestExtractField_NoMatch_ReturnsEmpty(t *testing.T) {
	value, rest := extractField("nothing useful here", "VERDICT")
	assert.Empty(t, value)
	assert.Equal(t, "nothing useful here", rest)
}

func TestExtractField_StopsAtNextField(t *testing.T) {
	value, _ := extractField("VERDICT=endorse CONCERN=fine", "VERDICT")
	assert.Equal(t, "endorse", value)
}
