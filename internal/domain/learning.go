package domain

import "time"

// LearningCategory classifies what kind of knowledge a learning captures.
type LearningCategory string

const (
	LearningEdgeConfirmed  LearningCategory = "edge_confirmed"
	LearningEdgeRefuted    LearningCategory = "edge_refuted"
	LearningRegimeSensitive LearningCategory = "regime_sensitive"
	LearningImplementation LearningCategory = "implementation_pitfall"
	LearningMeta           LearningCategory = "meta"
)

// LearningRecord distills a validation outcome into a reusable piece of
// knowledge, stored under learnings/*.yaml.
type LearningRecord struct {
	ID          string           `yaml:"id" json:"id"`
	StrategyID  string           `yaml:"strategy_id" json:"strategy_id"`
	CreatedAt   time.Time        `yaml:"created_at" json:"created_at"`
	Category    LearningCategory `yaml:"category" json:"category"`
	Summary     string           `yaml:"summary" json:"summary"`
	Evidence    string           `yaml:"evidence" json:"evidence"`
	Regimes     []RegimeLabel    `yaml:"regimes,omitempty" json:"regimes,omitempty"`
	Confidence  Confidence       `yaml:"confidence" json:"confidence"`
}

// ProposalStatus is the lifecycle state of a proposal in the review queue.
type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalDeferred  ProposalStatus = "deferred"
	ProposalApproved  ProposalStatus = "approved"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalExpired   ProposalStatus = "expired"
)

// ProposalKind classifies what a proposal asks a human to decide.
type ProposalKind string

const (
	ProposalPublish      ProposalKind = "publish_strategy"
	ProposalReviewCode   ProposalKind = "review_generated_code"
	ProposalResolveBlock ProposalKind = "resolve_block"
	ProposalApproveIdea  ProposalKind = "approve_idea"
)

// ProposalRecord is a single item in the human review queue, stored at
// proposals/PROP-NNN.yaml.
type ProposalRecord struct {
	ID         string         `yaml:"id" json:"id"`
	Kind       ProposalKind   `yaml:"kind" json:"kind"`
	SubjectID  string         `yaml:"subject_id" json:"subject_id"`
	CreatedAt  time.Time      `yaml:"created_at" json:"created_at"`
	ExpiresAt  time.Time      `yaml:"expires_at,omitempty" json:"expires_at,omitempty"`
	Status     ProposalStatus `yaml:"status" json:"status"`
	Summary    string         `yaml:"summary" json:"summary"`
	DecidedAt  time.Time      `yaml:"decided_at,omitempty" json:"decided_at,omitempty"`
	DecidedBy  string         `yaml:"decided_by,omitempty" json:"decided_by,omitempty"`
	Notes      string         `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// IdeaStatus is the lifecycle state of an idea awaiting promotion to a
// full Strategy record.
type IdeaStatus string

const (
	IdeaProposed IdeaStatus = "proposed"
	IdeaApproved IdeaStatus = "approved"
	IdeaRejected IdeaStatus = "rejected"
	IdeaExpired  IdeaStatus = "expired"
)

// IdeaRecord is a persona-generated or human-submitted hypothesis that has
// not yet been promoted into a Strategy, stored at ideas/IDEA-NNN.yaml.
//
// Unlike Strategy.Lineage, an idea's Parents forms a DAG that must stay
// acyclic: approval is refused if accepting the idea would create a cycle
// through its parent chain.
type IdeaRecord struct {
	ID          string     `yaml:"id" json:"id"`
	CreatedAt   time.Time  `yaml:"created_at" json:"created_at"`
	Status      IdeaStatus `yaml:"status" json:"status"`
	Proponent   string     `yaml:"proponent" json:"proponent"` // persona name or "human"
	Hypothesis  string     `yaml:"hypothesis" json:"hypothesis"`
	Mechanism   string     `yaml:"mechanism" json:"mechanism"`
	Parents     []string   `yaml:"parents,omitempty" json:"parents,omitempty"`
	PromotedTo  string     `yaml:"promoted_to,omitempty" json:"promoted_to,omitempty"`
	TTL         time.Time  `yaml:"ttl" json:"ttl"`
}
