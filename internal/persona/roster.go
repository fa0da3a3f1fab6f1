package persona

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/extremevalue/research-kit/internal/domain"
)

// RiskManagerRequest is the request shape for the risk_manager persona.
type RiskManagerRequest struct {
	StrategyName string
	MaxLeverage  float64
	Drawdowns    []string
}

// RiskManagerResponse is the parsed response shape.
type RiskManagerResponse struct {
	Verdict string
	Concern string
}

// RiskManagerPersona evaluates a strategy purely for risk-of-ruin concerns.
type RiskManagerPersona struct{}

func (RiskManagerPersona) Kind() Kind { return KindRiskManager }

func (RiskManagerPersona) BuildRequest(strat domain.Strategy) RiskManagerRequest {
	return RiskManagerRequest{
		StrategyName: strat.Name,
		MaxLeverage:  strat.Definition.Position.MaxLeverage,
		Drawdowns:    strat.Definition.Risks,
	}
}

var riskManagerTmpl = template.Must(template.New("risk_manager").Parse(
	`You are a risk manager. Strategy: {{.StrategyName}}. Max leverage: {{.MaxLeverage}}. ` +
		`Known risks: {{range .Drawdowns}}{{.}}; {{end}}` +
		`Respond with VERDICT=<endorse|reject|abstain> CONCERN=<one sentence>`))

func (RiskManagerPersona) PromptTemplate() *template.Template { return riskManagerTmpl }

func (RiskManagerPersona) ParseResponse(raw string) (RiskManagerResponse, error) {
	verdict, rest := extractField(raw, "VERDICT")
	concern, _ := extractField(rest, "CONCERN")
	if verdict == "" {
		return RiskManagerResponse{}, fmt.Errorf("no VERDICT field in response")
	}
	return RiskManagerResponse{Verdict: verdict, Concern: concern}, nil
}

// MomentumTraderRequest/Response mirror the risk manager shape but with a
// conviction score instead of a risk concern, since that persona's
// opinion is fundamentally numeric (how strong is this trend edge).
type MomentumTraderRequest struct {
	StrategyName string
	Entry        []string
	Exit         []string
}

type MomentumTraderResponse struct {
	Verdict    string
	Conviction float64
}

type MomentumTraderPersona struct{}

func (MomentumTraderPersona) Kind() Kind { return KindMomentumTrader }

func (MomentumTraderPersona) BuildRequest(strat domain.Strategy) MomentumTraderRequest {
	return MomentumTraderRequest{StrategyName: strat.Name, Entry: strat.Definition.Entry, Exit: strat.Definition.Exit}
}

var momentumTmpl = template.Must(template.New("momentum_trader").Parse(
	`You trade momentum. Strategy: {{.StrategyName}}. Entry: {{range .Entry}}{{.}}; {{end}} Exit: {{range .Exit}}{{.}}; {{end}} ` +
		`Respond with VERDICT=<endorse|reject|abstain> CONVICTION=<0-1>`))

func (MomentumTraderPersona) PromptTemplate() *template.Template { return momentumTmpl }

func (MomentumTraderPersona) ParseResponse(raw string) (MomentumTraderResponse, error) {
	verdict, rest := extractField(raw, "VERDICT")
	convictionStr, _ := extractField(rest, "CONVICTION")
	if verdict == "" {
		return MomentumTraderResponse{}, fmt.Errorf("no VERDICT field in response")
	}
	conviction, _ := strconv.ParseFloat(convictionStr, 64)
	return MomentumTraderResponse{Verdict: verdict, Conviction: conviction}, nil
}

// QuantResearcherRequest/Response ask for a statistical-rigor read on the
// definition rather than a trading opinion.
type QuantResearcherRequest struct {
	StrategyName string
	Parameters   map[string]float64
	Assumptions  []string
}

type QuantResearcherResponse struct {
	Verdict        string
	OverfitConcern string
}

type QuantResearcherPersona struct{}

func (QuantResearcherPersona) Kind() Kind { return KindQuantResearcher }

func (QuantResearcherPersona) BuildRequest(strat domain.Strategy) QuantResearcherRequest {
	return QuantResearcherRequest{StrategyName: strat.Name, Parameters: strat.Definition.Parameters, Assumptions: strat.Definition.Assumptions}
}

var quantResearcherTmpl = template.Must(template.New("quant_researcher").Parse(
	`You are a quantitative researcher focused on overfitting risk. Strategy: {{.StrategyName}}. ` +
		`Parameters: {{range $k, $v := .Parameters}}{{$k}}={{$v}} {{end}}Assumptions: {{range .Assumptions}}{{.}}; {{end}} ` +
		`Respond with VERDICT=<endorse|reject|abstain> OVERFIT_CONCERN=<one sentence>`))

func (QuantResearcherPersona) PromptTemplate() *template.Template { return quantResearcherTmpl }

func (QuantResearcherPersona) ParseResponse(raw string) (QuantResearcherResponse, error) {
	verdict, rest := extractField(raw, "VERDICT")
	concern, _ := extractField(rest, "OVERFIT_CONCERN")
	if verdict == "" {
		return QuantResearcherResponse{}, fmt.Errorf("no VERDICT field in response")
	}
	return QuantResearcherResponse{Verdict: verdict, OverfitConcern: concern}, nil
}

// ContrarianRequest/Response deliberately asks the persona to argue against
// the strategy's stated edge, surfacing the strongest counter-case.
type ContrarianRequest struct {
	StrategyName string
	EdgeMechanism string
	WhyExists    string
}

type ContrarianResponse struct {
	Verdict       string
	CounterArgument string
}

type ContrarianPersona struct{}

func (ContrarianPersona) Kind() Kind { return KindContrarian }

func (ContrarianPersona) BuildRequest(strat domain.Strategy) ContrarianRequest {
	return ContrarianRequest{StrategyName: strat.Name, EdgeMechanism: strat.Edge.Mechanism, WhyExists: strat.Edge.WhyExists}
}

var contrarianTmpl = template.Must(template.New("contrarian").Parse(
	`Argue against this strategy's claimed edge. Strategy: {{.StrategyName}}. Mechanism: {{.EdgeMechanism}}. Why it supposedly exists: {{.WhyExists}}. ` +
		`Respond with VERDICT=<endorse|reject|abstain> COUNTER_ARGUMENT=<one sentence>`))

func (ContrarianPersona) PromptTemplate() *template.Template { return contrarianTmpl }

func (ContrarianPersona) ParseResponse(raw string) (ContrarianResponse, error) {
	verdict, rest := extractField(raw, "VERDICT")
	counter, _ := extractField(rest, "COUNTER_ARGUMENT")
	if verdict == "" {
		return ContrarianResponse{}, fmt.Errorf("no VERDICT field in response")
	}
	return ContrarianResponse{Verdict: verdict, CounterArgument: counter}, nil
}

// MadGeniusRequest/Response asks for an unconventional angle the other
// personas wouldn't think to raise; its opinion always carries low weight
// in synthesis but occasionally surfaces a real structural concern.
type MadGeniusRequest struct {
	StrategyName string
	Universe     string
}

type MadGeniusResponse struct {
	Verdict string
	Angle   string
}

type MadGeniusPersona struct{}

func (MadGeniusPersona) Kind() Kind { return KindMadGenius }

func (MadGeniusPersona) BuildRequest(strat domain.Strategy) MadGeniusRequest {
	return MadGeniusRequest{StrategyName: strat.Name, Universe: strat.Definition.Universe.Description}
}

var madGeniusTmpl = template.Must(template.New("mad_genius").Parse(
	`Find the weirdest angle on this strategy nobody else would raise. Strategy: {{.StrategyName}}. Universe: {{.Universe}}. ` +
		`Respond with VERDICT=<endorse|reject|abstain> ANGLE=<one sentence>`))

func (MadGeniusPersona) PromptTemplate() *template.Template { return madGeniusTmpl }

func (MadGeniusPersona) ParseResponse(raw string) (MadGeniusResponse, error) {
	verdict, rest := extractField(raw, "VERDICT")
	angle, _ := extractField(rest, "ANGLE")
	if verdict == "" {
		return MadGeniusResponse{}, fmt.Errorf("no VERDICT field in response")
	}
	return MadGeniusResponse{Verdict: verdict, Angle: angle}, nil
}

// RationaleAnalystRequest/Response back the C4 persona fallback: when the
// fixed factor catalog matches nothing, this persona is asked to name the
// mechanism in its own words rather than leaving provenance unknown.
type RationaleAnalystRequest struct {
	StrategyText string
}

type RationaleAnalystResponse struct {
	Mechanism  string
	Confidence domain.Confidence
}

type RationaleAnalystPersona struct{}

func (RationaleAnalystPersona) Kind() Kind { return KindRationaleAnalyst }

func (RationaleAnalystPersona) BuildRequest(strat domain.Strategy) RationaleAnalystRequest {
	return RationaleAnalystRequest{StrategyText: strat.Provenance.Excerpt}
}

var rationaleAnalystTmpl = template.Must(template.New("rationale_analyst").Parse(
	`Name the likely source of excess return for this strategy, in your own words. Source text: {{.StrategyText}} ` +
		`Respond with MECHANISM=<one sentence> CONFIDENCE=<high|medium|low>`))

func (RationaleAnalystPersona) PromptTemplate() *template.Template { return rationaleAnalystTmpl }

func (RationaleAnalystPersona) ParseResponse(raw string) (RationaleAnalystResponse, error) {
	mechanism, rest := extractField(raw, "MECHANISM")
	confidence, _ := extractField(rest, "CONFIDENCE")
	if mechanism == "" {
		return RationaleAnalystResponse{}, fmt.Errorf("no MECHANISM field in response")
	}
	return RationaleAnalystResponse{Mechanism: mechanism, Confidence: domain.Confidence(confidence)}, nil
}

// IdeatorRequest/Response back the supplemented ideation agent: given a
// strategy's catalog context, propose a new hypothesis worth tracking as
// an idea rather than a fully-formed strategy.
type IdeatorRequest struct {
	StrategyName string
	EdgeMechanism string
	WhyPersists  string
}

type IdeatorResponse struct {
	Hypothesis string
	Mechanism  string
}

type IdeatorPersona struct{}

func (IdeatorPersona) Kind() Kind { return KindIdeator }

func (IdeatorPersona) BuildRequest(strat domain.Strategy) IdeatorRequest {
	return IdeatorRequest{StrategyName: strat.Name, EdgeMechanism: strat.Edge.Mechanism, WhyPersists: strat.Edge.WhyPersists}
}

var ideatorTmpl = template.Must(template.New("ideator").Parse(
	`Given this validated strategy's edge, propose one adjacent hypothesis worth tracking as a new idea. ` +
		`Strategy: {{.StrategyName}}. Edge: {{.EdgeMechanism}}. Why it persists: {{.WhyPersists}}. ` +
		`Respond with HYPOTHESIS=<one sentence> MECHANISM=<one word or short phrase>`))

func (IdeatorPersona) PromptTemplate() *template.Template { return ideatorTmpl }

func (IdeatorPersona) ParseResponse(raw string) (IdeatorResponse, error) {
	hypothesis, rest := extractField(raw, "HYPOTHESIS")
	mechanism, _ := extractField(rest, "MECHANISM")
	if hypothesis == "" {
		return IdeatorResponse{}, fmt.Errorf("no HYPOTHESIS field in response")
	}
	return IdeatorResponse{Hypothesis: hypothesis, Mechanism: mechanism}, nil
}

// extractField pulls "KEY=value" out of text up to the next recognized
// field or end of string, returning the value and the remainder of text
// after the match for chained extraction.
func extractField(text, key string) (string, string) {
	idx := strings.Index(text, key+"=")
	if idx < 0 {
		return "", text
	}
	rest := text[idx+len(key)+1:]
	end := strings.IndexAny(rest, "\n")
	if end < 0 {
		end = len(rest)
	}
	value := strings.TrimSpace(rest[:end])
	// stop at the next FIELD= token if present on the same line
	if nextEq := strings.Index(value, "="); nextEq >= 0 {
		if sp := strings.LastIndex(value[:nextEq], " "); sp >= 0 {
			value = strings.TrimSpace(value[:sp])
		}
	}
	return value, rest
}
