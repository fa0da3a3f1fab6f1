package regime

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func risingSeries(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestTag_ShortSeries_UnknownDimensions(t *testing.T) {
	tagger := New(zerolog.Nop())
	label := tagger.Tag(time.Now(), ReferenceSeries{Benchmark: []float64{100, 101, 102}})
	assert.Equal(t, "unknown", label.Direction)
	assert.Equal(t, "unknown", label.Volatility)
}

func TestTag_CachesPerCalendarDay(t *testing.T) {
	tagger := New(zerolog.Nop())
	asOf := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	first := tagger.Tag(asOf, ReferenceSeries{Benchmark: risingSeries(250, 100, 1)})
	// A later call the same day with a wildly different series should
	// still return the cached label, not recompute.
	second := tagger.Tag(asOf.Add(6*time.Hour), ReferenceSeries{Benchmark: risingSeries(250, 100, -1)})
	assert.Equal(t, first, second)
}

func TestTag_DifferentDay_Recomputes(t *testing.T) {
	tagger := New(zerolog.Nop())
	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	tagger.Tag(day1, ReferenceSeries{Benchmark: risingSeries(250, 100, 1)})
	second := tagger.Tag(day2, ReferenceSeries{Benchmark: risingSeries(250, 100, -1)})
	assert.NotEqual(t, "unknown", second.Direction)
}

func TestDirection_UptrendClassifiesBull(t *testing.T) {
	closes := risingSeries(250, 100, 0.5)
	assert.Equal(t, "bull", direction(closes))
}

func TestDirection_DowntrendClassifiesBear(t *testing.T) {
	closes := risingSeries(250, 300, -0.5)
	assert.Equal(t, "bear", direction(closes))
}

func TestSectorRegime_PicksBestTrailingPerformer(t *testing.T) {
	sectors := map[string][]float64{
		"technology": risingSeries(70, 100, 1.0),
		"energy":     risingSeries(70, 100, 0.2),
	}
	assert.Equal(t, "technology", sectorRegime(sectors))
}

func TestSectorRegime_InsufficientHistory_Unknown(t *testing.T) {
	sectors := map[string][]float64{
		"technology": {100, 110, 120},
	}
	assert.Equal(t, "unknown", sectorRegime(sectors))
}

func TestSectorRegime_TieBreaksDeterministically(t *testing.T) {
	sectors := map[string][]float64{
		"technology": risingSeries(70, 100, 1.0),
		"energy":     risingSeries(70, 100, 1.0),
	}
	assert.Equal(t, "energy", sectorRegime(sectors))
}

func TestCapRegime_SmallCapOutperforms(t *testing.T) {
	small := risingSeries(70, 100, 1.5)
	benchmark := risingSeries(70, 100, 0.3)
	assert.Equal(t, "small", capRegime(small, benchmark))
}

func TestCapRegime_LargeCapOutperforms(t *testing.T) {
	small := risingSeries(70, 100, 0.2)
	benchmark := risingSeries(70, 100, 1.5)
	assert.Equal(t, "large", capRegime(small, benchmark))
}

func TestCapRegime_WithinBand_Mixed(t *testing.T) {
	small := risingSeries(70, 100, 0.5)
	benchmark := risingSeries(70, 100, 0.51)
	assert.Equal(t, "mixed", capRegime(small, benchmark))
}

func TestCapRegime_MismatchedLengths_Unknown(t *testing.T) {
	assert.Equal(t, "unknown", capRegime([]float64{1, 2}, []float64{1}))
}

func TestRateRegime_ShortSeries_Unknown(t *testing.T) {
	assert.Equal(t, "unknown", rateRegime([]float64{1, 2, 3}))
}

func TestRateRegime_RisingYields(t *testing.T) {
	rates := make([]float64, sixMonthWindow+2)
	for i := range rates {
		rates[i] = 0.03
	}
	rates[len(rates)-1] = 0.04 // +100bp over the window
	assert.Equal(t, "rising", rateRegime(rates))
}

func TestRateRegime_FlatYields(t *testing.T) {
	rates := make([]float64, sixMonthWindow+2)
	for i := range rates {
		rates[i] = 0.03
	}
	assert.Equal(t, "flat", rateRegime(rates))
}

func TestVolatility_Buckets(t *testing.T) {
	assert.Equal(t, "low", volatility([]float64{10, 12, 14.9}))
	assert.Equal(t, "normal", volatility([]float64{10, 12, 20}))
	assert.Equal(t, "high", volatility([]float64{10, 12, 25.1}))
	assert.Equal(t, "unknown", volatility(nil))
}
