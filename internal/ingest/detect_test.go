package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectHardFlags_SharpeAbove3(t *testing.T) {
	flags := DetectHardFlags(SourceDoc{HasSharpeClaim: true, ClaimedSharpe: 4.2})
	assert.Contains(t, flags, "sharpe_above_3")
}

func TestDetectHardFlags_NoLosingPeriods(t *testing.T) {
	flags := DetectHardFlags(SourceDoc{Text: "This system never had a losing month in 10 years."})
	assert.Contains(t, flags, "no_losing_periods")
}

func TestDetectHardFlags_WorksAllConditions(t *testing.T) {
	flags := DetectHardFlags(SourceDoc{Text: "This strategy works in all market conditions."})
	assert.Contains(t, flags, "works_all_conditions")
}

func TestDetectHardFlags_AuthorSelling(t *testing.T) {
	flags := DetectHardFlags(SourceDoc{AuthorSellsStuff: true})
	assert.Contains(t, flags, "author_selling")
}

func TestDetectHardFlags_ExcessiveParameters(t *testing.T) {
	flags := DetectHardFlags(SourceDoc{ParameterCount: 8})
	assert.Contains(t, flags, "excessive_parameters")
}

func TestDetectHardFlags_ConvenientStartDate(t *testing.T) {
	flags := DetectHardFlags(SourceDoc{Text: "Backtest results since 2010, after the crash."})
	assert.Contains(t, flags, "convenient_start_date")
}

func TestDetectHardFlags_CleanDoc_NoFlags(t *testing.T) {
	flags := DetectHardFlags(SourceDoc{Text: "A reasonable strategy description.", ParameterCount: 2})
	assert.Empty(t, flags)
}

func TestDetectSoftFlags_NoRationale(t *testing.T) {
	flags := DetectSoftFlags(SourceDoc{Text: "buy and hold"}, false)
	assert.Contains(t, flags, "unknown_rationale")
}

func TestDetectSoftFlags_HasRationale_NoFlag(t *testing.T) {
	flags := DetectSoftFlags(SourceDoc{Text: "buy and hold, accounting for slippage and drawdown"}, true)
	assert.NotContains(t, flags, "unknown_rationale")
}

func TestDetectSoftFlags_MentionsTransactionCosts_NoFlag(t *testing.T) {
	flags := DetectSoftFlags(SourceDoc{Text: "backtest includes commission and drawdown analysis"}, true)
	assert.NotContains(t, flags, "no_transaction_costs")
}

func TestDetectSoftFlags_MissingTransactionCosts(t *testing.T) {
	flags := DetectSoftFlags(SourceDoc{Text: "a strategy with drawdown discussion"}, true)
	assert.Contains(t, flags, "no_transaction_costs")
}

func TestDetectSoftFlags_HighLeverage(t *testing.T) {
	flags := DetectSoftFlags(SourceDoc{LeverageMax: 5.0, Text: "slippage, drawdown, commission"}, true)
	assert.Contains(t, flags, "high_leverage")
}

func TestDetectSoftFlags_MagicNumbers(t *testing.T) {
	flags := DetectSoftFlags(SourceDoc{ParameterCount: 3, Text: "parameters were optimized on historical data, slippage, drawdown, commission"}, true)
	assert.Contains(t, flags, "magic_numbers")
}

func TestDetectSoftFlags_OptimizedWithExplanation_NoMagicNumbersFlag(t *testing.T) {
	flags := DetectSoftFlags(SourceDoc{ParameterCount: 3, Text: "parameters were optimized, and here is why: economic rationale. slippage, drawdown, commission"}, true)
	assert.NotContains(t, flags, "magic_numbers")
}
