// Package rationale implements Rationale Inference (C4): matching a
// strategy's claimed mechanism against a fixed factor/edge catalog, and
// falling back to persona dispatch when nothing in the catalog fits.
// Rationale inference is advisory only: it never gates a strategy's
// progress through the lifecycle, it only annotates EdgeProvenance.
package rationale

import (
	"strings"

	"github.com/extremevalue/research-kit/internal/domain"
)

// CatalogEntry is one known factor/edge mechanism against which a
// strategy's stated rationale is matched.
type CatalogEntry struct {
	Name      string
	Category  domain.EdgeCategory
	Keywords  []string
	WhyExists string
}

// Catalog is the fixed set of recognized factor mechanisms. Extending it
// is an explicit maintenance action, not something personas mutate at
// runtime.
var Catalog = []CatalogEntry{
	{
		Name:      "momentum",
		Category:  domain.EdgeBehavioral,
		Keywords:  []string{"momentum", "trend following", "52-week high", "relative strength"},
		WhyExists: "underreaction to information and herding behavior cause trends to persist",
	},
	{
		Name:      "mean_reversion",
		Category:  domain.EdgeBehavioral,
		Keywords:  []string{"mean reversion", "oversold", "overbought", "pullback"},
		WhyExists: "overreaction to short-term news reverts as liquidity providers step in",
	},
	{
		Name:      "value",
		Category:  domain.EdgeRiskPremium,
		Keywords:  []string{"value", "p/e", "book-to-market", "cheap", "undervalued"},
		WhyExists: "compensation for bearing distress and behavioral neglect of unglamorous firms",
	},
	{
		Name:      "carry",
		Category:  domain.EdgeRiskPremium,
		Keywords:  []string{"carry", "interest rate differential", "roll yield"},
		WhyExists: "compensation for crash risk borne by funding-currency lenders",
	},
	{
		Name:      "seasonality",
		Category:  domain.EdgeStructural,
		Keywords:  []string{"seasonal", "calendar effect", "turn of month", "january effect"},
		WhyExists: "structural flows (rebalancing, tax, payroll cycles) recur on a fixed calendar",
	},
	{
		Name:      "liquidity_provision",
		Category:  domain.EdgeStructural,
		Keywords:  []string{"market making", "bid-ask", "liquidity provision", "spread capture"},
		WhyExists: "compensation for bearing inventory risk on behalf of liquidity demanders",
	},
	{
		Name:      "informational_edge",
		Category:  domain.EdgeInformational,
		Keywords:  []string{"insider", "analyst revision", "earnings surprise", "13f", "whisper number"},
		WhyExists: "a subset of participants observes or processes information before the broader market",
	},
}

// Match finds the best catalog entry matching text, or nil if none of the
// catalog's keywords appear.
func Match(text string) *CatalogEntry {
	lower := strings.ToLower(text)
	var best *CatalogEntry
	bestHits := 0
	for i := range Catalog {
		entry := &Catalog[i]
		hits := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = entry
		}
	}
	return best
}

// PersonaFallback is the function signature a caller supplies to dispatch
// rationale inference to a persona when the catalog has no match. It
// returns a free-form mechanism description and confidence.
type PersonaFallback func(strategyText string) (mechanism string, confidence domain.Confidence, err error)

// Infer computes the EdgeProvenance for a strategy. If sourceStated is
// non-empty, the source document already explains the rationale and
// provenance is source_stated at high confidence with no catalog lookup
// needed. Otherwise the catalog is consulted first; only when nothing
// matches is the persona fallback invoked.
func Infer(sourceStated, strategyText string, fallback PersonaFallback) (domain.Edge, domain.EdgeProvenance, error) {
	if sourceStated != "" {
		return domain.Edge{WhyExists: sourceStated},
			domain.EdgeProvenance{Source: domain.ProvenanceStated, Confidence: domain.ConfidenceHigh},
			nil
	}

	if entry := Match(strategyText); entry != nil {
		return domain.Edge{Mechanism: entry.Name, Category: entry.Category, WhyExists: entry.WhyExists},
			domain.EdgeProvenance{Source: domain.ProvenanceEnhanced, Confidence: domain.ConfidenceMedium, FactorAlignment: []string{entry.Name}},
			nil
	}

	if fallback == nil {
		return domain.Edge{}, domain.EdgeProvenance{Source: domain.ProvenanceUnknown, Confidence: domain.ConfidenceLow}, nil
	}

	mechanism, confidence, err := fallback(strategyText)
	if err != nil {
		return domain.Edge{}, domain.EdgeProvenance{Source: domain.ProvenanceUnknown, Confidence: domain.ConfidenceLow}, err
	}
	if mechanism == "" {
		return domain.Edge{}, domain.EdgeProvenance{Source: domain.ProvenanceUnknown, Confidence: domain.ConfidenceLow}, nil
	}
	return domain.Edge{WhyExists: mechanism},
		domain.EdgeProvenance{Source: domain.ProvenanceInferred, Confidence: confidence},
		nil
}
