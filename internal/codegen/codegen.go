// Package codegen implements the Code Generator (C6): three escalating
// tiers of strategy-to-code translation, from fully templated archetypes
// through a declarative indicator DSL to free-form sub-agent generated
// code gated behind mandatory human review.
package codegen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/extremevalue/research-kit/internal/codegen/dsl"
	"github.com/extremevalue/research-kit/internal/domain"
)

// Result is the full code generation output for one strategy.
type Result struct {
	Code          string
	CodeHash      string
	Fingerprint   dsl.Fingerprint
	NeedsReview   bool
	ClassName     string
}

// Generator dispatches to the tier appropriate for a strategy's
// definition.
type Generator struct {
	templates *TemplateSet
}

// New builds a Generator with the built-in archetype templates.
func New() *Generator {
	return &Generator{templates: defaultTemplateSet()}
}

// Generate renders strat's definition to code. Tier 1 and Tier 2 always
// produce deterministic, byte-identical output for an unchanged
// definition (property: deterministic code generation); Tier 3 output is
// whatever the supplied freeform source produced and always sets
// NeedsReview.
func (g *Generator) Generate(strat domain.Strategy, freeformSource string) (Result, error) {
	switch strat.Definition.Tier {
	case domain.TierTemplated:
		return g.generateTemplated(strat)
	case domain.TierAssembled:
		return g.generateAssembled(strat)
	case domain.TierFreeform:
		return g.generateFreeform(strat, freeformSource)
	default:
		return Result{}, fmt.Errorf("unknown tier %d", strat.Definition.Tier)
	}
}

func (g *Generator) generateTemplated(strat domain.Strategy) (Result, error) {
	code, className, err := g.templates.Render(strat)
	if err != nil {
		return Result{}, fmt.Errorf("render template: %w", err)
	}
	if violations := ScanLiteralDates(code); len(violations) > 0 {
		return Result{}, fmt.Errorf("generated code contains literal dates: %v", violations)
	}
	return Result{
		Code:      code,
		CodeHash:  domain.CodeHash([]byte(code)),
		ClassName: className,
	}, nil
}

func (g *Generator) generateAssembled(strat domain.Strategy) (Result, error) {
	entryNodes, err := parseRules(strat.Definition.Entry)
	if err != nil {
		return Result{}, fmt.Errorf("parse entry rules: %w", err)
	}
	exitNodes, err := parseRules(strat.Definition.Exit)
	if err != nil {
		return Result{}, fmt.Errorf("parse exit rules: %w", err)
	}

	code, className, err := g.templates.RenderAssembled(strat, strat.Definition.Entry, strat.Definition.Exit)
	if err != nil {
		return Result{}, fmt.Errorf("render assembled: %w", err)
	}
	if violations := ScanLiteralDates(code); len(violations) > 0 {
		return Result{}, fmt.Errorf("generated code contains literal dates: %v", violations)
	}

	fp := dsl.ExtractFingerprint(append(entryNodes, exitNodes...)...)
	return Result{
		Code:        code,
		CodeHash:    domain.CodeHash([]byte(code)),
		Fingerprint: fp,
		ClassName:   className,
	}, nil
}

func (g *Generator) generateFreeform(strat domain.Strategy, source string) (Result, error) {
	if strings.TrimSpace(source) == "" {
		return Result{}, fmt.Errorf("tier 3 generation requires freeform source")
	}
	return Result{
		Code:        source,
		CodeHash:    domain.CodeHash([]byte(source)),
		NeedsReview: true,
	}, nil
}

func parseRules(rules []string) ([]*dsl.Node, error) {
	nodes := make([]*dsl.Node, 0, len(rules))
	for _, r := range rules {
		n, err := dsl.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", r, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// datePatterns mirror the invariant that no literal calendar date may
// appear in generated code (property P3): dates must always flow from
// the backtest harness, never be baked into the strategy body.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(19|20)\d{2}-\d{2}-\d{2}\b`),             // ISO-8601
	regexp.MustCompile(`\b(0?[1-9]|1[0-2])/(0?[1-9]|[12]\d|3[01])/(19|20)\d{2}\b`), // US m/d/Y
	regexp.MustCompile(`SetStartDate\s*\(\s*\d`),
	regexp.MustCompile(`SetEndDate\s*\(\s*\d`),
}

// ScanLiteralDates returns every literal-date pattern found in code.
func ScanLiteralDates(code string) []string {
	var hits []string
	for _, re := range datePatterns {
		if m := re.FindString(code); m != "" {
			hits = append(hits, m)
		}
	}
	return hits
}
