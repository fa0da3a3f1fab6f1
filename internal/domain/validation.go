package domain

import "time"

// RegimeLabel is the five-dimension market regime tag attached to every
// walk-forward window and aggregated into per-regime validation buckets.
type RegimeLabel struct {
	Direction  string `yaml:"direction" json:"direction"`   // bull, bear, sideways
	Volatility string `yaml:"volatility" json:"volatility"` // low, normal, high
	RateRegime string `yaml:"rate_regime" json:"rate_regime"`
	Sector     string `yaml:"sector" json:"sector"`
	CapRegime  string `yaml:"cap_regime" json:"cap_regime"`
}

// WindowMetrics holds the performance metrics computed for a single
// walk-forward window.
type WindowMetrics struct {
	CAGR          float64 `yaml:"cagr" json:"cagr"`
	Sharpe        float64 `yaml:"sharpe" json:"sharpe"`
	Sortino       float64 `yaml:"sortino" json:"sortino"`
	MaxDrawdown   float64 `yaml:"max_drawdown" json:"max_drawdown"`
	WinRate       float64 `yaml:"win_rate" json:"win_rate"`
	ProfitFactor  float64 `yaml:"profit_factor" json:"profit_factor"`
	TradeCount    int     `yaml:"trade_count" json:"trade_count"`
	Volatility    float64 `yaml:"volatility" json:"volatility"`
	BenchmarkCAGR float64 `yaml:"benchmark_cagr" json:"benchmark_cagr"`
}

// WindowStatus is the outcome state of a single walk-forward window.
type WindowStatus string

const (
	WindowOK    WindowStatus = "OK"
	WindowError WindowStatus = "ERROR"
)

// WindowResult is the immutable outcome of executing one walk-forward
// window. Once persisted, a WindowResult is never rewritten; a re-run
// appends a new validation attempt instead. A window that fails
// catastrophically is recorded with Status WindowError and an
// ErrorMessage rather than dropped: a window failure never aborts its
// siblings, only the aggregate failed-window count can fail the run.
type WindowResult struct {
	Index        int           `yaml:"index" json:"index"`
	InSample     DateRange     `yaml:"in_sample" json:"in_sample"`
	OutSample    DateRange     `yaml:"out_sample" json:"out_sample"`
	IsOOS        bool          `yaml:"is_oos" json:"is_oos"`
	Status       WindowStatus  `yaml:"status" json:"status"`
	ErrorMessage string        `yaml:"error_message,omitempty" json:"error_message,omitempty"`
	Regime       RegimeLabel   `yaml:"regime" json:"regime"`
	Metrics      WindowMetrics `yaml:"metrics" json:"metrics"`
	Seed         int64         `yaml:"seed" json:"seed"`
	BackendRef   string        `yaml:"backend_ref" json:"backend_ref"`
}

// DateRange is an inclusive calendar range.
type DateRange struct {
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
}

// SignificanceTest holds the bootstrap and multiple-testing-corrected
// significance assessment for a validation run.
type SignificanceTest struct {
	BootstrapSamples int        `yaml:"bootstrap_samples" json:"bootstrap_samples"`
	SharpeLowerCI    float64    `yaml:"sharpe_lower_ci" json:"sharpe_lower_ci"`
	SharpeUpperCI    float64    `yaml:"sharpe_upper_ci" json:"sharpe_upper_ci"`
	RawPValue        float64    `yaml:"raw_p_value" json:"raw_p_value"`
	AdjustedPValue   float64    `yaml:"adjusted_p_value" json:"adjusted_p_value"`
	Method           string     `yaml:"method" json:"method"` // fdr_bh, bonferroni
	FamilySize       int        `yaml:"family_size" json:"family_size"`
}

// GateOutcome records the pass/fail result of a single validation gate.
type GateOutcome struct {
	Name     string  `yaml:"name" json:"name"`
	Passed   bool    `yaml:"passed" json:"passed"`
	Observed float64 `yaml:"observed" json:"observed"`
	Required float64 `yaml:"required" json:"required"`
}

// Verdict is the final outcome of a validation run.
type Verdict string

const (
	VerdictValidated   Verdict = "VALIDATED"
	VerdictConditional Verdict = "CONDITIONAL"
	VerdictInvalidated Verdict = "INVALIDATED"
)

// RegimeBucket aggregates window metrics for one regime label.
type RegimeBucket struct {
	Regime      RegimeLabel   `yaml:"regime" json:"regime"`
	WindowCount int           `yaml:"window_count" json:"window_count"`
	Mean        WindowMetrics `yaml:"mean" json:"mean"`
}

// ValidationRecord is one complete walk-forward + statistical validation
// attempt for a strategy, stored under
// validations/STRAT-NNN/{iso-timestamp}/.
type ValidationRecord struct {
	RunID         string             `yaml:"run_id" json:"run_id"`
	StrategyID    string             `yaml:"strategy_id" json:"strategy_id"`
	Timestamp     time.Time          `yaml:"timestamp" json:"timestamp"`
	CodeHash      string             `yaml:"code_hash" json:"code_hash"`
	Windows       []WindowResult     `yaml:"windows" json:"windows"`
	RegimeBuckets []RegimeBucket     `yaml:"regime_buckets" json:"regime_buckets"`
	Significance  SignificanceTest   `yaml:"significance" json:"significance"`
	Consistency   float64            `yaml:"consistency" json:"consistency"`
	Gates         []GateOutcome      `yaml:"gates" json:"gates"`
	Verdict       Verdict            `yaml:"verdict" json:"verdict"`
	PassingRegimes []string          `yaml:"passing_regimes,omitempty" json:"passing_regimes,omitempty"`
	Notes         string             `yaml:"notes,omitempty" json:"notes,omitempty"`
}
