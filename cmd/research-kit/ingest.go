package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/extremevalue/research-kit/internal/config"
	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/ingest"
	"github.com/extremevalue/research-kit/internal/persona"
	"github.com/extremevalue/research-kit/internal/rationale"
	"github.com/extremevalue/research-kit/internal/similarity"
	"github.com/extremevalue/research-kit/internal/store"
)

// submission is the front-end shape an operator or import script hands to
// `ingest`: raw source text plus whatever structured hints could be pulled
// out of it, alongside the candidate strategy definition itself.
type submission struct {
	Name              string             `yaml:"name"`
	SourceRef         string             `yaml:"source_ref"`
	Text              string             `yaml:"text"`
	ClaimedSharpe     float64            `yaml:"claimed_sharpe"`
	HasSharpeClaim    bool               `yaml:"has_sharpe_claim"`
	ParameterCount    int                `yaml:"parameter_count"`
	LeverageMax       float64            `yaml:"leverage_max"`
	AuthorSellsStuff  bool               `yaml:"author_sells_stuff"`
	HasRationale      bool               `yaml:"has_rationale"`
	SourceStatedEdge  string             `yaml:"source_stated_edge"`
	Specificity       ingest.Specificity `yaml:"specificity"`
	Trust             ingest.Trust       `yaml:"trust"`
	Definition        domain.Definition  `yaml:"definition"`
}

func cmdIngest(st *store.Store, cfg *config.Config, log zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: research-kit ingest <submission.yaml>")
		return exitUsage
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	var sub submission
	if err := yaml.Unmarshal(raw, &sub); err != nil {
		fmt.Fprintln(os.Stderr, "parse submission:", err)
		return exitError
	}

	processor, err := ingest.NewProcessor(cfg.WorkspaceDir, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	doc := ingest.SourceDoc{
		Text:             sub.Text,
		ClaimedSharpe:    sub.ClaimedSharpe,
		HasSharpeClaim:   sub.HasSharpeClaim,
		ParameterCount:   sub.ParameterCount,
		LeverageMax:      sub.LeverageMax,
		AuthorSellsStuff: sub.AuthorSellsStuff,
	}
	th := ingest.Thresholds{
		Specificity: cfg.Gates.Ingestion.SpecificityThreshold,
		Trust:       cfg.Gates.Ingestion.TrustThreshold,
	}

	seed := ingest.Assessment{Specificity: sub.Specificity, Trust: sub.Trust}
	outcome, hash := processor.Process(raw, th, doc, sub.HasRationale, seed)
	if outcome.AlreadySeen {
		fmt.Printf("content already ingested as %s\n", hash)
		return exitOK
	}

	fmt.Printf("decision: %s (specificity=%d trust=%d)\n", outcome.Decision, outcome.Assessment.Specificity.Score(), outcome.Assessment.Trust.Total())
	for _, w := range outcome.Assessment.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	if outcome.Decision == domain.DecisionReject || outcome.Decision == domain.DecisionArchive {
		fmt.Println("reason:", outcome.Assessment.RejectionReason)
		return exitOK
	}

	fallback := rationale.PersonaFallback(persona.RationaleFallback(persona.StubInvoker{}))
	edge, provenance, err := rationale.Infer(sub.SourceStatedEdge, sub.Text, fallback)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rationale inference:", err)
		return exitError
	}

	defHash := domain.DefinitionHash(sub.Definition)
	if matches, err := st.FindByDefinitionHash(defHash); err == nil && len(matches) > 0 {
		fmt.Printf("duplicate of %v by exact definition hash, not creating a new strategy\n", matches)
		return exitOK
	}
	var variantOf string
	if _, class, match := classifyAgainstCatalog(st, "", sub.Definition, defHash); class == similarity.ClassDuplicate {
		fmt.Printf("classified %s against %s (score %.2f), not creating a new strategy\n", class, match.StrategyID, match.Score)
		return exitOK
	} else if class == similarity.ClassVariant {
		variantOf = match.StrategyID
		fmt.Printf("classified %s against %s (score %.2f), creating as a variant of it\n", class, match.StrategyID, match.Score)
	}

	allocator, err := strategyAllocator(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	id, err := allocator.Next()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	strat := domain.Strategy{
		ID:             id,
		Name:           sub.Name,
		CreatedAt:      time.Now().UTC(),
		Definition:     sub.Definition,
		Edge:           edge,
		EdgeProvenance: provenance,
		DefinitionHash: defHash,
		Provenance: domain.Provenance{
			SourceRef:         sub.SourceRef,
			Excerpt:           sub.Text,
			SourceContentHash: hash,
		},
		Quality: domain.IngestionQuality{
			Specificity: outcome.Assessment.Specificity.Score(),
			Trust:       outcome.Assessment.Trust.Total(),
			RedFlags:    outcome.Assessment.RedFlags,
			Decision:    outcome.Decision,
		},
	}
	if variantOf != "" {
		strat.Lineage = domain.Lineage{Parents: []string{variantOf}, Variant: true}
	}
	if err := st.CreateStrategy(strat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	if err := processor.MarkProcessed(hash, id); err != nil {
		log.Warn().Err(err).Msg("failed to mark content processed")
	}
	fmt.Printf("%s created in state %s\n", id, strat.State)
	return exitOK
}

// classifyAgainstCatalog loads every existing strategy's definition and
// fingerprints candidate against them. excludeID lets a re-classification
// exclude the strategy being re-evaluated from its own catalog.
func classifyAgainstCatalog(st *store.Store, excludeID string, def domain.Definition, defHash string) ([]similarity.Fingerprint, similarity.Classification, *similarity.Match) {
	summaries, err := st.AllStrategies()
	if err != nil {
		return nil, similarity.ClassNew, nil
	}
	catalog := make([]similarity.Fingerprint, 0, len(summaries))
	hashes := make(map[string]string, len(summaries))
	for _, s := range summaries {
		if s.ID == excludeID {
			continue
		}
		strat, err := st.GetStrategy(s.ID)
		if err != nil {
			continue
		}
		catalog = append(catalog, similarity.BuildFingerprint(s.ID, strat.Definition))
		hashes[s.ID] = s.DefinitionHash
	}
	candidate := similarity.BuildFingerprint(excludeID, def)
	class, match := similarity.Classify(candidate, defHash, catalog, hashes, similarity.DefaultWeights)
	return catalog, class, match
}
