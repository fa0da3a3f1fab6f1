package rationale

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremevalue/research-kit/internal/domain"
)

func TestInfer_SourceStated_ShortCircuitsCatalog(t *testing.T) {
	edge, prov, err := Infer("author says it's momentum driven", "irrelevant text mentioning carry", nil)
	require.NoError(t, err)
	assert.Equal(t, "author says it's momentum driven", edge.WhyExists)
	assert.Equal(t, domain.ProvenanceStated, prov.Source)
	assert.Equal(t, domain.ConfidenceHigh, prov.Confidence)
}

func TestInfer_CatalogMatch_PicksHighestHitCount(t *testing.T) {
	text := "this is a classic mean reversion strategy, buying oversold names after a pullback"
	edge, prov, err := Infer("", text, nil)
	require.NoError(t, err)
	assert.Equal(t, "mean_reversion", edge.Mechanism)
	assert.Equal(t, domain.EdgeBehavioral, edge.Category)
	assert.Equal(t, domain.ProvenanceEnhanced, prov.Source)
	assert.Equal(t, domain.ConfidenceMedium, prov.Confidence)
	assert.Equal(t, []string{"mean_reversion"}, prov.FactorAlignment)
}

func TestInfer_NoCatalogMatch_NoFallback_ReturnsUnknown(t *testing.T) {
	edge, prov, err := Infer("", "buys things sometimes for reasons", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Edge{}, edge)
	assert.Equal(t, domain.ProvenanceUnknown, prov.Source)
	assert.Equal(t, domain.ConfidenceLow, prov.Confidence)
}

func TestInfer_NoCatalogMatch_FallbackInvoked(t *testing.T) {
	called := false
	fallback := func(text string) (string, domain.Confidence, error) {
		called = true
		return "cross-sectional factor crowding", domain.ConfidenceMedium, nil
	}
	edge, prov, err := Infer("", "buys things sometimes for reasons", fallback)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "cross-sectional factor crowding", edge.WhyExists)
	assert.Equal(t, domain.ProvenanceInferred, prov.Source)
	assert.Equal(t, domain.ConfidenceMedium, prov.Confidence)
}

func TestInfer_FallbackError_Propagates(t *testing.T) {
	fallback := func(text string) (string, domain.Confidence, error) {
		return "", domain.ConfidenceLow, errors.New("dispatch failed")
	}
	_, prov, err := Infer("", "buys things sometimes", fallback)
	assert.Error(t, err)
	assert.Equal(t, domain.ProvenanceUnknown, prov.Source)
}

func TestMatch_NoKeywordsPresent_ReturnsNil(t *testing.T) {
	assert.Nil(t, Match("the quick brown fox jumps over the lazy dog"))
}

func TestMatch_TiesBrokenByFirstHigherCount(t *testing.T) {
	entry := Match("momentum momentum momentum versus one mean reversion mention")
	require.NotNil(t, entry)
	assert.Equal(t, "momentum", entry.Name)
}
