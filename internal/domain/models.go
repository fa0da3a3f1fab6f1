// Package domain provides the core record types shared across every pipeline
// stage: strategies, validations, learnings, proposals and ideas.
package domain

import "time"

// Tier classifies how a strategy's definition can be turned into code.
type Tier int

const (
	TierTemplated  Tier = 1 // known archetype, deterministic template expansion
	TierAssembled  Tier = 2 // declarative DSL expression over indicators
	TierFreeform   Tier = 3 // sub-agent generated, always NEEDS_REVIEW
)

// EdgeCategory classifies the mechanism behind a strategy's claimed edge.
type EdgeCategory string

const (
	EdgeStructural    EdgeCategory = "structural"
	EdgeBehavioral    EdgeCategory = "behavioral"
	EdgeInformational EdgeCategory = "informational"
	EdgeRiskPremium   EdgeCategory = "risk_premium"
)

// RationaleProvenance tags where a strategy's "why" came from.
type RationaleProvenance string

const (
	ProvenanceStated    RationaleProvenance = "source_stated"
	ProvenanceEnhanced  RationaleProvenance = "source_enhanced"
	ProvenanceInferred  RationaleProvenance = "inferred"
	ProvenanceUnknown   RationaleProvenance = "unknown"
)

// Confidence is a coarse confidence tag used across rationale inference and
// persona outputs.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// IngestionDecision is the output of the quality filter (C3).
type IngestionDecision string

const (
	DecisionAccept  IngestionDecision = "accept"
	DecisionQueue   IngestionDecision = "queue"
	DecisionArchive IngestionDecision = "archive"
	DecisionReject  IngestionDecision = "reject"
)

// Universe describes the tradeable instrument set for a strategy.
type Universe struct {
	Description       string   `yaml:"description" json:"description"`
	PointInTime        bool     `yaml:"point_in_time" json:"point_in_time"`
	Instruments        []string `yaml:"instruments,omitempty" json:"instruments,omitempty"`
	Filters            []string `yaml:"filters,omitempty" json:"filters,omitempty"`
}

// PositionSizing describes how size is determined per position.
type PositionSizing struct {
	Method      string  `yaml:"method" json:"method"`
	MaxLeverage float64 `yaml:"max_leverage" json:"max_leverage"`
}

// Definition is the declarative, content-hashed body of a strategy.
//
// Everything here participates in definition_hash; metadata that mutates
// post-ingestion (state, scores, timestamps) lives on Strategy instead.
type Definition struct {
	Tier               Tier              `yaml:"tier" json:"tier"`
	Universe           Universe          `yaml:"universe" json:"universe"`
	Entry              []string          `yaml:"entry" json:"entry"`
	Exit               []string          `yaml:"exit" json:"exit"`
	Position           PositionSizing    `yaml:"position" json:"position"`
	PositionManagement []string          `yaml:"position_management,omitempty" json:"position_management,omitempty"`
	RegimeAdaptive     map[string]string `yaml:"regime_adaptive,omitempty" json:"regime_adaptive,omitempty"`
	DataRequirements   []string          `yaml:"data_requirements" json:"data_requirements"`
	Assumptions        []string          `yaml:"assumptions,omitempty" json:"assumptions,omitempty"`
	Risks              []string          `yaml:"risks,omitempty" json:"risks,omitempty"`
	Parameters         map[string]float64 `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Edge describes the claimed source of excess return.
type Edge struct {
	Mechanism        string       `yaml:"mechanism" json:"mechanism"`
	Category         EdgeCategory `yaml:"category" json:"category"`
	WhyExists        string       `yaml:"why_exists" json:"why_exists"`
	Counterparty     string       `yaml:"counterparty,omitempty" json:"counterparty,omitempty"`
	WhyPersists      string       `yaml:"why_persists,omitempty" json:"why_persists,omitempty"`
	DecayConditions  []string     `yaml:"decay_conditions,omitempty" json:"decay_conditions,omitempty"`
	CapacityEstimate string       `yaml:"capacity_estimate,omitempty" json:"capacity_estimate,omitempty"`
}

// EdgeProvenance records how the edge's rationale was established.
type EdgeProvenance struct {
	Source          RationaleProvenance `yaml:"source" json:"source"`
	Confidence      Confidence          `yaml:"confidence" json:"confidence"`
	FactorAlignment []string            `yaml:"factor_alignment,omitempty" json:"factor_alignment,omitempty"`
	ResearchNotes   string              `yaml:"research_notes,omitempty" json:"research_notes,omitempty"`
}

// RedFlagSeverity distinguishes auto-reject flags from advisory ones.
type RedFlagSeverity string

const (
	SeverityHard RedFlagSeverity = "hard"
	SeveritySoft RedFlagSeverity = "soft"
)

// RedFlag is a single detected concern during ingestion.
type RedFlag struct {
	ID       string          `yaml:"id" json:"id"`
	Severity RedFlagSeverity `yaml:"severity" json:"severity"`
	Message  string          `yaml:"message" json:"message"`
}

// IngestionQuality captures the full C3 assessment.
type IngestionQuality struct {
	Specificity int               `yaml:"specificity" json:"specificity"`
	Trust       int               `yaml:"trust" json:"trust"`
	RedFlags    []RedFlag         `yaml:"red_flags" json:"red_flags"`
	Decision    IngestionDecision `yaml:"decision" json:"decision"`
}

// Provenance records where a strategy's source material came from.
type Provenance struct {
	SourceRef         string `yaml:"source_ref" json:"source_ref"`
	Excerpt           string `yaml:"excerpt,omitempty" json:"excerpt,omitempty"`
	SourceContentHash string `yaml:"source_content_hash" json:"source_content_hash"`
	AuthorCredibility int    `yaml:"author_credibility,omitempty" json:"author_credibility,omitempty"`
}

// Lineage records a strategy's or idea's ancestry.
type Lineage struct {
	Parents []string `yaml:"parents,omitempty" json:"parents,omitempty"`
	Variant bool     `yaml:"variant,omitempty" json:"variant,omitempty"`
}

// Strategy is the root catalog record, identified by STRAT-NNN.
type Strategy struct {
	ID             string         `yaml:"id" json:"id"`
	Name           string         `yaml:"name" json:"name"`
	CreatedAt      time.Time      `yaml:"created_at" json:"created_at"`
	State          StrategyState  `yaml:"state" json:"state"`
	Lineage        Lineage        `yaml:"lineage" json:"lineage"`
	Provenance     Provenance     `yaml:"provenance" json:"provenance"`
	Definition     Definition     `yaml:"definition" json:"definition"`
	Edge           Edge           `yaml:"edge" json:"edge"`
	EdgeProvenance EdgeProvenance `yaml:"edge_provenance" json:"edge_provenance"`
	Quality        IngestionQuality `yaml:"quality" json:"quality"`
	DefinitionHash string         `yaml:"definition_hash" json:"definition_hash"`
	GeneratedCode  string         `yaml:"generated_code,omitempty" json:"generated_code,omitempty"`
	CodeHash       string         `yaml:"code_hash,omitempty" json:"code_hash,omitempty"`
	ErrorCause     string         `yaml:"error_cause,omitempty" json:"error_cause,omitempty"`
}
