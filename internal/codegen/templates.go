package codegen

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/extremevalue/research-kit/internal/domain"
)

// TemplateSet holds the fixed archetype templates used by Tier 1 and the
// shared scaffold used by Tier 2.
type TemplateSet struct {
	archetypes map[string]*template.Template
	assembled  *template.Template
}

const scaffoldTmpl = `// Generated strategy: {{.ClassName}}
// Tier: {{.Tier}}
package strategies

import "research-kit/runtime"

type {{.ClassName}} struct {
	runtime.Base
}

func (s *{{.ClassName}}) Universe() []string {
	return []string{ {{range $i, $v := .Instruments}}{{if $i}}, {{end}}"{{$v}}"{{end}} }
}

func (s *{{.ClassName}}) MaxLeverage() float64 {
	return {{.MaxLeverage}}
}
`

const momentumTmpl = scaffoldTmpl + `
func (s *{{.ClassName}}) Entry(bar runtime.Bar) bool {
	return bar.Close > bar.SMA({{.LookbackShort}}) && bar.SMA({{.LookbackShort}}) > bar.SMA({{.LookbackLong}})
}

func (s *{{.ClassName}}) Exit(bar runtime.Bar) bool {
	return bar.Close < bar.SMA({{.LookbackShort}})
}
`

const meanReversionTmpl = scaffoldTmpl + `
func (s *{{.ClassName}}) Entry(bar runtime.Bar) bool {
	return bar.RSI({{.LookbackShort}}) < {{.OversoldLevel}}
}

func (s *{{.ClassName}}) Exit(bar runtime.Bar) bool {
	return bar.RSI({{.LookbackShort}}) > {{.OverboughtLevel}}
}
`

const trendFollowingTmpl = scaffoldTmpl + `
func (s *{{.ClassName}}) Entry(bar runtime.Bar) bool {
	return bar.Close > bar.SMA({{.LookbackLong}})
}

func (s *{{.ClassName}}) Exit(bar runtime.Bar) bool {
	return bar.Close < bar.SMA({{.LookbackLong}})
}
`

const dualMomentumTmpl = scaffoldTmpl + `
func (s *{{.ClassName}}) Entry(bar runtime.Bar) bool {
	return bar.Momentum({{.LookbackLong}}) > {{.AbsMomentumThreshold}}
}

func (s *{{.ClassName}}) Exit(bar runtime.Bar) bool {
	return bar.Momentum({{.LookbackLong}}) <= {{.AbsMomentumThreshold}}
}
`

const breakoutTmpl = scaffoldTmpl + `
func (s *{{.ClassName}}) Entry(bar runtime.Bar) bool {
	return bar.Close > bar.Highest({{.LookbackShort}})
}

func (s *{{.ClassName}}) Exit(bar runtime.Bar) bool {
	return bar.Close < bar.Highest({{.LookbackShort}})*(1-{{.TrailingStopPct}})
}
`

const assembledTmpl = scaffoldTmpl + `
func (s *{{.ClassName}}) Entry(bar runtime.Bar) bool {
	return {{.EntryExpr}}
}

func (s *{{.ClassName}}) Exit(bar runtime.Bar) bool {
	return {{.ExitExpr}}
}
`

func defaultTemplateSet() *TemplateSet {
	ts := &TemplateSet{archetypes: map[string]*template.Template{}}
	ts.archetypes["momentum_rotation"] = template.Must(template.New("momentum_rotation").Parse(momentumTmpl))
	ts.archetypes["mean_reversion"] = template.Must(template.New("mean_reversion").Parse(meanReversionTmpl))
	ts.archetypes["trend_following"] = template.Must(template.New("trend_following").Parse(trendFollowingTmpl))
	ts.archetypes["dual_momentum"] = template.Must(template.New("dual_momentum").Parse(dualMomentumTmpl))
	ts.archetypes["breakout"] = template.Must(template.New("breakout").Parse(breakoutTmpl))
	ts.assembled = template.Must(template.New("assembled").Parse(assembledTmpl))
	return ts
}

var identRe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// ClassNameFor derives a deterministic, stable identifier from a
// strategy's ID and name: the same strategy always regenerates the same
// class name, so code-hash determinism isn't broken by naming drift.
func ClassNameFor(strat domain.Strategy) string {
	base := identRe.ReplaceAllString(strat.Name, " ")
	parts := strings.Fields(base)
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(p[:1]))
		if len(p) > 1 {
			b.WriteString(strings.ToLower(p[1:]))
		}
	}
	if b.Len() == 0 {
		b.WriteString("Strategy")
	}
	return b.String() + "_" + strings.ReplaceAll(strat.ID, "-", "")
}

type templateContext struct {
	ClassName            string
	Tier                 int
	Instruments          []string
	MaxLeverage          float64
	LookbackShort        int
	LookbackLong         int
	OversoldLevel        int
	OverboughtLevel      int
	AbsMomentumThreshold float64
	TrailingStopPct      float64
	EntryExpr            string
	ExitExpr             string
}

// Render picks the archetype template matching the strategy's edge
// mechanism and renders it with parameters drawn from the definition.
func (ts *TemplateSet) Render(strat domain.Strategy) (string, string, error) {
	archetype, err := selectArchetype(strat)
	if err != nil {
		return "", "", err
	}
	tmpl, ok := ts.archetypes[archetype]
	if !ok {
		return "", "", fmt.Errorf("no archetype template for %q", archetype)
	}
	className := ClassNameFor(strat)
	ctx := templateContext{
		ClassName:            className,
		Tier:                 1,
		Instruments:          sortedInstruments(strat),
		MaxLeverage:          strat.Definition.Position.MaxLeverage,
		LookbackShort:        intParam(strat, "lookback_short", 20),
		LookbackLong:         intParam(strat, "lookback_long", 100),
		OversoldLevel:        intParam(strat, "oversold", 30),
		OverboughtLevel:      intParam(strat, "overbought", 70),
		AbsMomentumThreshold: floatParam(strat, "abs_momentum_threshold", 0.0),
		TrailingStopPct:      floatParam(strat, "trailing_stop", 0.05),
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", "", err
	}
	return buf.String(), className, nil
}

// RenderAssembled renders the Tier 2 scaffold without translating the DSL
// rules into Go: the entry rules and the exit rules are each joined with
// " and " and emitted as the quoted string argument of an
// s.EvalDSL(bar, ...) call, so the DSL text itself stays the source of
// rule semantics.
func (ts *TemplateSet) RenderAssembled(strat domain.Strategy, entry, exit []string) (string, string, error) {
	className := ClassNameFor(strat)
	ctx := templateContext{
		ClassName:   className,
		Tier:        2,
		Instruments: sortedInstruments(strat),
		MaxLeverage: strat.Definition.Position.MaxLeverage,
		EntryExpr:   fmt.Sprintf("s.EvalDSL(bar, %q)", strings.Join(entry, " and ")),
		ExitExpr:    fmt.Sprintf("s.EvalDSL(bar, %q)", strings.Join(exit, " and ")),
	}
	var buf bytes.Buffer
	if err := ts.assembled.Execute(&buf, ctx); err != nil {
		return "", "", err
	}
	return buf.String(), className, nil
}

// recognizedArchetypes are the five Tier 1 templates this workspace ships.
// A mechanism that maps to none of these is not silently rendered as
// momentum: selectArchetype returns an error, and Generate returns it for
// the Tier 1 request without trying another tier.
var recognizedArchetypes = map[string]string{
	"momentum":          "momentum_rotation",
	"momentum_rotation": "momentum_rotation",
	"mean_reversion":    "mean_reversion",
	"trend_following":   "trend_following",
	"dual_momentum":     "dual_momentum",
	"breakout":          "breakout",
}

func selectArchetype(strat domain.Strategy) (string, error) {
	archetype, ok := recognizedArchetypes[strat.Edge.Mechanism]
	if !ok {
		return "", fmt.Errorf("no Tier 1 template for mechanism %q", strat.Edge.Mechanism)
	}
	return archetype, nil
}

func intParam(strat domain.Strategy, key string, fallback int) int {
	if v, ok := strat.Definition.Parameters[key]; ok {
		return int(v)
	}
	return fallback
}

func floatParam(strat domain.Strategy, key string, fallback float64) float64 {
	if v, ok := strat.Definition.Parameters[key]; ok {
		return v
	}
	return fallback
}

func sortedInstruments(strat domain.Strategy) []string {
	out := append([]string(nil), strat.Definition.Universe.Instruments...)
	sort.Strings(out)
	return out
}
