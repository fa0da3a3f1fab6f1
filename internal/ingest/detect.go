package ingest

import (
	"regexp"
	"strings"
)

// SourceDoc is the minimal shape the quality filter needs out of a raw
// source document: its free text plus whatever structured hints the
// ingestion front-end (agent, CLI, import script) was able to extract.
type SourceDoc struct {
	Text             string
	ClaimedSharpe    float64
	HasSharpeClaim   bool
	ParameterCount   int
	LeverageMax      float64
	AuthorSellsStuff bool
}

var (
	noLosingRe    = regexp.MustCompile(`(?i)never (had|has) a losing (month|year|quarter)`)
	allConditions = regexp.MustCompile(`(?i)works (in )?all (market )?conditions`)
	startDateRe   = regexp.MustCompile(`(?i)since (19|20)\d{2}`)
)

// DetectHardFlags scans a source document for the predefined hard red
// flags. Parameter count and leverage come from structured extraction
// rather than text matching, since both are numeric thresholds.
func DetectHardFlags(doc SourceDoc) []string {
	var flags []string
	if doc.HasSharpeClaim && doc.ClaimedSharpe > 3.0 {
		flags = append(flags, "sharpe_above_3")
	}
	if noLosingRe.MatchString(doc.Text) {
		flags = append(flags, "no_losing_periods")
	}
	if allConditions.MatchString(doc.Text) {
		flags = append(flags, "works_all_conditions")
	}
	if doc.AuthorSellsStuff {
		flags = append(flags, "author_selling")
	}
	if startDateRe.MatchString(doc.Text) {
		flags = append(flags, "convenient_start_date")
	}
	if doc.ParameterCount > 5 {
		flags = append(flags, "excessive_parameters")
	}
	return flags
}

// DetectSoftFlags scans for the predefined soft red flags.
func DetectSoftFlags(doc SourceDoc, hasRationale bool) []string {
	var flags []string
	lower := strings.ToLower(doc.Text)
	if !hasRationale {
		flags = append(flags, "unknown_rationale")
	}
	if !strings.Contains(lower, "slippage") && !strings.Contains(lower, "transaction cost") && !strings.Contains(lower, "commission") {
		flags = append(flags, "no_transaction_costs")
	}
	if !strings.Contains(lower, "drawdown") {
		flags = append(flags, "no_drawdown_mentioned")
	}
	if doc.LeverageMax > 3.0 {
		flags = append(flags, "high_leverage")
	}
	if doc.ParameterCount > 0 && strings.Contains(lower, "optimized") && !strings.Contains(lower, "why") {
		flags = append(flags, "magic_numbers")
	}
	return flags
}
