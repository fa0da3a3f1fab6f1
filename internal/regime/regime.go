// Package regime implements the Regime Tagger (C8): a five-dimension
// market regime classification (direction, volatility, rate environment,
// sector leadership, cap regime) computed from a reference series under a
// fixed threshold table, and cached per calendar day, since regime labels
// don't change intra-day for walk-forward bucketing purposes.
//
// Grounded on the mutex-guarded, time-bucketed cache pattern used by the
// market state detector elsewhere in this codebase, generalized from
// exchange-open/closed detection to a continuous five-dimension tag.
package regime

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/extremevalue/research-kit/internal/domain"
)

const threeMonthWindow = 63  // trading days
const sixMonthWindow = 126   // trading days
const direction200DaySMA = 200

// ReferenceSeries supplies the price/rate/breadth series the tagger needs.
// A real deployment backs this with actual market data; this workspace
// never acquires market data itself, so callers must supply it.
type ReferenceSeries struct {
	Benchmark []float64            // broad-equity proxy close series, oldest first
	ImpliedVol []float64           // implied-volatility index level series, oldest first
	RateProxy []float64            // 10y treasury yield series (decimal, e.g. 0.045), oldest first
	SmallCap  []float64            // small-cap index close series
	Sectors   map[string][]float64 // sector index close series keyed by sector name
}

// Tagger computes regime labels and caches the most recent result per
// calendar day.
type Tagger struct {
	mu        sync.RWMutex
	cacheDate string
	cached    domain.RegimeLabel
	log       zerolog.Logger
}

// New builds a Tagger.
func New(log zerolog.Logger) *Tagger {
	return &Tagger{log: log.With().Str("component", "regime").Logger()}
}

// Tag computes (or returns the cached) regime label for `asOf`'s calendar
// day given the reference series.
func (t *Tagger) Tag(asOf time.Time, series ReferenceSeries) domain.RegimeLabel {
	day := asOf.UTC().Format("2006-01-02")

	t.mu.RLock()
	if t.cacheDate == day {
		cached := t.cached
		t.mu.RUnlock()
		return cached
	}
	t.mu.RUnlock()

	label := compute(series)

	t.mu.Lock()
	t.cacheDate = day
	t.cached = label
	t.mu.Unlock()

	t.log.Debug().Str("date", day).Interface("label", label).Msg("regime tagged")
	return label
}

func compute(series ReferenceSeries) domain.RegimeLabel {
	return domain.RegimeLabel{
		Direction:  direction(series.Benchmark),
		Volatility: volatility(series.ImpliedVol),
		RateRegime: rateRegime(series.RateProxy),
		Sector:     sectorRegime(series.Sectors),
		CapRegime:  capRegime(series.SmallCap, series.Benchmark),
	}
}

// direction classifies the broad-equity proxy against its own 200-day SMA:
// bull above it by more than 5%, bear below it by more than 5%, sideways
// otherwise.
func direction(closes []float64) string {
	if len(closes) < direction200DaySMA {
		return "unknown"
	}
	sma200 := talib.Sma(closes, direction200DaySMA)
	last := len(closes) - 1
	deviation := (closes[last] - sma200[last]) / sma200[last]
	switch {
	case deviation > 0.05:
		return "bull"
	case deviation < -0.05:
		return "bear"
	default:
		return "sideways"
	}
}

// volatility classifies the level of an implied-volatility index series:
// low below 15, normal between 15 and 25 inclusive, high above 25.
func volatility(iv []float64) string {
	if len(iv) == 0 {
		return "unknown"
	}
	last := iv[len(iv)-1]
	switch {
	case last < 15:
		return "low"
	case last <= 25:
		return "normal"
	default:
		return "high"
	}
}

// rateRegime classifies the 6-month change in a 10-year treasury yield
// series, in basis points: rising above +50bp, falling below -50bp, flat
// otherwise.
func rateRegime(rates []float64) string {
	if len(rates) <= sixMonthWindow {
		return "unknown"
	}
	last := len(rates) - 1
	changeBP := (rates[last] - rates[last-sixMonthWindow]) * 10000
	switch {
	case changeBP > 50:
		return "rising"
	case changeBP < -50:
		return "falling"
	default:
		return "flat"
	}
}

// sectorRegime returns the name of whichever sector had the best 3-month
// trailing return, iterating sector names in sorted order so ties resolve
// deterministically.
func sectorRegime(sectors map[string][]float64) string {
	names := make([]string, 0, len(sectors))
	for name := range sectors {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	bestReturn := math.Inf(-1)
	for _, name := range names {
		series := sectors[name]
		if len(series) <= threeMonthWindow {
			continue
		}
		last := len(series) - 1
		trailingReturn := series[last]/series[last-threeMonthWindow] - 1
		if trailingReturn > bestReturn {
			bestReturn = trailingReturn
			best = name
		}
	}
	if best == "" {
		return "unknown"
	}
	return best
}

// capRegime classifies small-cap performance relative to the broad-equity
// proxy over a trailing 3-month window: small leads by more than 5%, large
// leads by more than 5%, mixed otherwise.
func capRegime(small, benchmark []float64) string {
	if len(small) <= threeMonthWindow || len(benchmark) <= threeMonthWindow || len(small) != len(benchmark) {
		return "unknown"
	}
	last := len(small) - 1
	smallReturn := small[last]/small[last-threeMonthWindow] - 1
	benchmarkReturn := benchmark[last]/benchmark[last-threeMonthWindow] - 1
	relative := smallReturn - benchmarkReturn
	switch {
	case relative > 0.05:
		return "small"
	case relative < -0.05:
		return "large"
	default:
		return "mixed"
	}
}
