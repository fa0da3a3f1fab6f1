package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/extremevalue/research-kit/internal/domain"
)

func TestClassify_ExactHashMatchIsDuplicate(t *testing.T) {
	def := domain.Definition{Entry: []string{"close > sma(close, 50)"}}
	fp := BuildFingerprint("STRAT-002", def)
	catalog := []Fingerprint{BuildFingerprint("STRAT-001", def)}
	hashes := map[string]string{"STRAT-001": "same-hash"}

	class, match := Classify(fp, "same-hash", catalog, hashes, DefaultWeights)
	assert.Equal(t, ClassDuplicate, class)
	assert.Equal(t, "STRAT-001", match.StrategyID)
	assert.Equal(t, 1.0, match.Score)
}

func TestClassify_DisjointRulesAreNew(t *testing.T) {
	a := BuildFingerprint("STRAT-001", domain.Definition{
		Universe: domain.Universe{Description: "US equities"},
		Entry:    []string{"close > sma(close, 50)"},
		Exit:     []string{"close < sma(close, 50)"},
		Position: domain.PositionSizing{Method: "equal_weight"},
	})
	b := BuildFingerprint("STRAT-002", domain.Definition{
		Universe: domain.Universe{Description: "EM bonds"},
		Entry:    []string{"carry > 0"},
		Exit:     []string{"carry < 0"},
		Position: domain.PositionSizing{Method: "kelly"},
	})

	class, _ := Classify(b, "hash-b", []Fingerprint{a}, map[string]string{"STRAT-001": "hash-a"}, DefaultWeights)
	assert.Equal(t, ClassNew, class)
}

func TestClassify_PartialOverlapIsVariant(t *testing.T) {
	a := BuildFingerprint("STRAT-001", domain.Definition{
		Universe: domain.Universe{Description: "US large cap momentum"},
		Entry:    []string{"close > sma(close, 50)", "close > sma(close, 200)"},
		Exit:     []string{"close < sma(close, 50)"},
		Position: domain.PositionSizing{Method: "equal_weight"},
	})
	b := BuildFingerprint("STRAT-002", domain.Definition{
		Universe: domain.Universe{Description: "US large cap momentum"},
		Entry:    []string{"close > sma(close, 50)", "close > sma(close, 200)"},
		Exit:     []string{"close < sma(close, 20)"},
		Position: domain.PositionSizing{Method: "equal_weight"},
	})

	class, match := Classify(b, "hash-b", []Fingerprint{a}, map[string]string{"STRAT-001": "hash-a"}, DefaultWeights)
	assert.Equal(t, ClassVariant, class)
	assert.NotNil(t, match)
}
