// Package verify implements the Verification Engine (C5): a fixed set of
// independent structural checks run against a strategy definition before
// it is allowed to proceed to code generation.
package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/extremevalue/research-kit/internal/domain"
)

// Status is the outcome of a single check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusWarn Status = "warn"
)

// Result is the outcome of one named check.
type Result struct {
	Check   string
	Status  Status
	Message string
}

// DataAvailability is the minimal interface the data-availability check
// needs; implemented by internal/dataregistry.Registry.
type DataAvailability interface {
	Available(instrument string, from, to string) bool
}

// Check is a single independent verification function. Checks never share
// mutable state and never call each other, so they can run concurrently
// and a failure in one never masks another.
type Check func(strat domain.Strategy, registry DataAvailability) Result

var checks = map[string]Check{
	"look_ahead_bias":        checkLookAheadBias,
	"survivorship_bias":      checkSurvivorshipBias,
	"position_sizing_sanity": checkPositionSizingSanity,
	"data_availability":      checkDataAvailability,
	"parameter_sanity":       checkParameterSanity,
	"hardcoded_values":       checkHardcodedValues,
}

// Run executes every check named in enabled against strat, in the order
// given. Unknown check names produce a Result with Status fail instead of
// being silently skipped, so a typo in config surfaces immediately.
func Run(strat domain.Strategy, registry DataAvailability, enabled []string) []Result {
	results := make([]Result, 0, len(enabled))
	for _, name := range enabled {
		check, ok := checks[name]
		if !ok {
			results = append(results, Result{Check: name, Status: StatusFail, Message: "unknown check"})
			continue
		}
		results = append(results, check(strat, registry))
	}
	return results
}

// Blocked reports whether any result failed, meaning the strategy should
// move to BLOCKED rather than READY_TO_GENERATE.
func Blocked(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

var futureLookingTerms = []string{"next day's", "tomorrow's", "future close", "t+1 signal known at t"}

func checkLookAheadBias(strat domain.Strategy, _ DataAvailability) Result {
	for _, rule := range append(append([]string{}, strat.Definition.Entry...), strat.Definition.Exit...) {
		lower := strings.ToLower(rule)
		for _, term := range futureLookingTerms {
			if strings.Contains(lower, term) {
				return Result{Check: "look_ahead_bias", Status: StatusFail, Message: fmt.Sprintf("rule references future information: %q", rule)}
			}
		}
	}
	return Result{Check: "look_ahead_bias", Status: StatusPass}
}

func checkSurvivorshipBias(strat domain.Strategy, _ DataAvailability) Result {
	if !strat.Definition.Universe.PointInTime {
		return Result{Check: "survivorship_bias", Status: StatusFail,
			Message: "universe is not point-in-time; delisted/renamed constituents will be silently excluded"}
	}
	return Result{Check: "survivorship_bias", Status: StatusPass}
}

func checkPositionSizingSanity(strat domain.Strategy, _ DataAvailability) Result {
	lev := strat.Definition.Position.MaxLeverage
	if lev <= 0 {
		return Result{Check: "position_sizing_sanity", Status: StatusFail, Message: "max_leverage must be positive"}
	}
	if lev > 10 {
		return Result{Check: "position_sizing_sanity", Status: StatusFail, Message: fmt.Sprintf("max_leverage %.1fx exceeds sane bound", lev)}
	}
	if strat.Definition.Position.Method == "" {
		return Result{Check: "position_sizing_sanity", Status: StatusFail, Message: "position sizing method is unspecified"}
	}
	return Result{Check: "position_sizing_sanity", Status: StatusPass}
}

func checkDataAvailability(strat domain.Strategy, registry DataAvailability) Result {
	if registry == nil {
		return Result{Check: "data_availability", Status: StatusWarn, Message: "no data registry configured, skipped"}
	}
	for _, instrument := range strat.Definition.Universe.Instruments {
		if !registry.Available(instrument, "", "") {
			return Result{Check: "data_availability", Status: StatusFail,
				Message: fmt.Sprintf("no data available for %s over the strategy's required range", instrument)}
		}
	}
	return Result{Check: "data_availability", Status: StatusPass}
}

func checkParameterSanity(strat domain.Strategy, _ DataAvailability) Result {
	if len(strat.Definition.Parameters) > 5 {
		return Result{Check: "parameter_sanity", Status: StatusWarn,
			Message: fmt.Sprintf("%d tunable parameters, overfitting risk", len(strat.Definition.Parameters))}
	}
	return Result{Check: "parameter_sanity", Status: StatusPass}
}

var dateLikeRe = []string{"19", "20"} // cheap prefilter; real scan lives in codegen's no-literal-date check

// preciseConstantRe matches decimal literals fitted to suspicious
// precision (4+ digits after the point), e.g. 1.41421356 or 0.618034,
// which a hand-chosen threshold would never need.
var preciseConstantRe = regexp.MustCompile(`\d+\.\d{4,}`)

func checkHardcodedValues(strat domain.Strategy, _ DataAvailability) Result {
	for _, rule := range append(append([]string{}, strat.Definition.Entry...), strat.Definition.Exit...) {
		for _, tok := range strings.Fields(rule) {
			for _, prefix := range dateLikeRe {
				if len(tok) == 4 && strings.HasPrefix(tok, prefix) && isAllDigits(tok) {
					return Result{Check: "hardcoded_values", Status: StatusWarn,
						Message: fmt.Sprintf("rule %q appears to reference a literal year", rule)}
				}
			}
		}
		if m := preciseConstantRe.FindString(rule); m != "" {
			return Result{Check: "hardcoded_values", Status: StatusWarn,
				Message: fmt.Sprintf("rule %q contains a suspiciously precise fitted constant %q", rule, m)}
		}
	}
	return Result{Check: "hardcoded_values", Status: StatusPass}
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
