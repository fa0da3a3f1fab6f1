package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/extremevalue/research-kit/internal/domain"
)

func defaultThresholds() Thresholds {
	return Thresholds{Specificity: 4, Trust: 50}
}

func TestDecide_AcademicMomentum_Accepts(t *testing.T) {
	a := Assessment{
		Specificity: Specificity{
			HasEntryRules: true, HasExitRules: true, HasPositionSizing: true,
			HasUniverseDefinition: true, HasBacktestPeriod: true, HasOutOfSample: true,
			HasTransactionCosts: true,
		},
		Trust: Trust{EconomicRationale: 28, OutOfSampleEvidence: 22, ImplementationRealism: 16, SourceCredibility: 14, Novelty: 4},
	}
	decision := a.Decide(defaultThresholds())
	assert.Equal(t, domain.DecisionAccept, decision)
	assert.Empty(t, a.Warnings)
}

func TestDecide_SellingCourses_HardRejects(t *testing.T) {
	a := Assessment{
		Specificity: Specificity{HasEntryRules: true, HasExitRules: true, HasPositionSizing: true, HasUniverseDefinition: true},
		Trust:       Trust{EconomicRationale: 25, SourceCredibility: 10},
		RedFlags:    []domain.RedFlag{hardFlag("author_selling")},
	}
	decision := a.Decide(defaultThresholds())
	assert.Equal(t, domain.DecisionReject, decision)
	assert.Contains(t, a.RejectionReason, "author_selling")
}

func TestDecide_VagueProse_Archives(t *testing.T) {
	a := Assessment{
		Specificity: Specificity{HasEntryRules: true},
		Trust:       Trust{EconomicRationale: 20},
	}
	decision := a.Decide(defaultThresholds())
	assert.Equal(t, domain.DecisionArchive, decision)
	assert.Contains(t, a.RejectionReason, "too vague")
}

func TestDecide_GoldenCross_AcceptsWithWarning(t *testing.T) {
	a := Assessment{
		Specificity: Specificity{
			HasEntryRules: true, HasExitRules: true, HasPositionSizing: true,
			HasUniverseDefinition: true, HasBacktestPeriod: true,
		},
		Trust:    Trust{EconomicRationale: 20, OutOfSampleEvidence: 10, ImplementationRealism: 10, SourceCredibility: 8, Novelty: 4},
		RedFlags: []domain.RedFlag{softFlag("crowded_factor")},
	}
	decision := a.Decide(defaultThresholds())
	assert.Equal(t, domain.DecisionAccept, decision)
	assert.NotEmpty(t, a.Warnings)
}

func TestTrustTotal_ClampsToRange(t *testing.T) {
	high := Trust{EconomicRationale: 30, OutOfSampleEvidence: 25, ImplementationRealism: 20, SourceCredibility: 15, Novelty: 10}
	assert.Equal(t, 100, high.Total())

	low := Trust{RedFlagPenalty: -200}
	assert.Equal(t, 0, low.Total())
}

func TestSpecificityScore_CountsTrueFields(t *testing.T) {
	s := Specificity{HasEntryRules: true, HasExitRules: true, HasCodeOrPseudocode: true}
	assert.Equal(t, 3, s.Score())
}
