package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesize_MajorityEndorse_Proceeds(t *testing.T) {
	panel := Panel{
		QuorumMet: true,
		Opinions: []Opinion{
			{Persona: KindMomentumTrader, Verdict: "endorse"},
			{Persona: KindQuantResearcher, Verdict: "endorse"},
			{Persona: KindContrarian, Verdict: "reject"},
		},
	}
	result := Synthesize(panel)
	assert.Equal(t, StatusProceed, result.Status)
}

func TestSynthesize_MajorityReject_Discards(t *testing.T) {
	panel := Panel{
		QuorumMet: true,
		Opinions: []Opinion{
			{Persona: KindMomentumTrader, Verdict: "reject"},
			{Persona: KindQuantResearcher, Verdict: "reject"},
			{Persona: KindContrarian, Verdict: "endorse"},
		},
	}
	result := Synthesize(panel)
	assert.Equal(t, StatusDiscard, result.Status)
}

func TestSynthesize_EvenSplit_HoldsForReview(t *testing.T) {
	panel := Panel{
		QuorumMet: true,
		Opinions: []Opinion{
			{Persona: KindMomentumTrader, Verdict: "endorse"},
			{Persona: KindContrarian, Verdict: "reject"},
		},
	}
	result := Synthesize(panel)
	assert.Equal(t, StatusHoldForReview, result.Status)
}

func TestSynthesize_RiskManagerVeto_OverridesMajorityEndorse(t *testing.T) {
	panel := Panel{
		QuorumMet: true,
		Opinions: []Opinion{
			{Persona: KindMomentumTrader, Verdict: "endorse"},
			{Persona: KindQuantResearcher, Verdict: "endorse"},
			{Persona: KindMadGenius, Verdict: "endorse"},
			{Persona: KindRiskManager, Verdict: "reject"},
		},
	}
	result := Synthesize(panel)
	assert.Equal(t, StatusHoldForReview, result.Status)
	assert.Len(t, result.Dissent, 1)
	assert.Equal(t, KindRiskManager, result.Dissent[0].Persona)
}

func TestSynthesize_QuorumNotMet_HoldsForReviewRegardless(t *testing.T) {
	panel := Panel{
		QuorumMet: false,
		Opinions: []Opinion{
			{Persona: KindMomentumTrader, Verdict: "endorse"},
			{Persona: KindQuantResearcher, Verdict: "endorse"},
			{Persona: KindContrarian, Verdict: "endorse"},
		},
	}
	result := Synthesize(panel)
	assert.Equal(t, StatusHoldForReview, result.Status)
}

func TestSynthesize_MissingOpinionsExcludedFromVoteCount(t *testing.T) {
	panel := Panel{
		QuorumMet: true,
		Opinions: []Opinion{
			{Persona: KindMomentumTrader, Verdict: "endorse"},
			{Persona: KindQuantResearcher, Missing: true},
			{Persona: KindContrarian, Missing: true},
		},
	}
	result := Synthesize(panel)
	assert.Equal(t, StatusProceed, result.Status)
}

func TestValidate_MissingOpinion_AlwaysValid(t *testing.T) {
	assert.NoError(t, Validate(Opinion{Missing: true, Verdict: "garbage"}))
}

func TestValidate_UnrecognizedVerdict_Errors(t *testing.T) {
	assert.Error(t, Validate(Opinion{Verdict: "maybe"}))
}

func TestValidate_RecognizedVerdicts_Valid(t *testing.T) {
	for _, v := range []string{"endorse", "reject", "abstain"} {
		assert.NoError(t, Validate(Opinion{Verdict: v}))
	}
}
