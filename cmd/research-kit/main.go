// Command research-kit is the CLI entry point for the strategy discovery
// and validation pipeline: ingest, verify, validate, learn, synthesize,
// ideate, list, show, status, approve and serve subcommands against one
// workspace.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/extremevalue/research-kit/internal/config"
	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/idea"
	"github.com/extremevalue/research-kit/internal/logging"
	"github.com/extremevalue/research-kit/internal/queue"
	"github.com/extremevalue/research-kit/internal/reliability"
	"github.com/extremevalue/research-kit/internal/server"
	"github.com/extremevalue/research-kit/internal/store"
)

// Exit codes distinguish "the pipeline ran and told you something" from
// "the pipeline itself broke".
const (
	exitOK          = 0
	exitBlocked     = 2
	exitInvalidated = 3
	exitUsage       = 64
	exitError       = 70
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return exitError
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	st, err := store.Open(cfg.WorkspaceDir, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to open record store")
		return exitError
	}
	defer st.Close()

	replicator, err := reliability.NewReplicator(context.Background(), cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		log.Warn().Err(err).Msg("off-site replication unavailable, continuing without it")
	} else {
		st.SetReplicator(replicator)
	}

	sub := args[0]
	rest := args[1:]

	switch sub {
	case "ingest":
		return cmdIngest(st, cfg, log, rest)
	case "verify":
		return cmdVerify(st, cfg, rest)
	case "validate":
		return cmdValidate(st, cfg, log, rest)
	case "learn":
		return cmdLearn(st, cfg, rest)
	case "synthesize":
		return cmdSynthesize(st, cfg, log, rest)
	case "ideate":
		return cmdIdeate(st, cfg, log, rest)
	case "status":
		return cmdStatus(st, log)
	case "list":
		return cmdList(st, rest)
	case "show":
		return cmdShow(st, rest)
	case "approve":
		return cmdApprove(st, cfg, rest)
	case "serve":
		return cmdServe(st, cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", sub)
		printUsage()
		return exitUsage
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: research-kit <ingest|verify|validate|learn|synthesize|ideate|list|show|status|approve|serve> [flags]")
}

func cmdStatus(st *store.Store, log zerolog.Logger) int {
	states := []domain.StrategyState{
		domain.StatePending, domain.StateVerifying, domain.StateBlocked,
		domain.StateReadyToGenerate, domain.StateGenerating, domain.StateReadyToExecute,
		domain.StateExecuting, domain.StateAnalyzing, domain.StateValidated,
		domain.StateConditional, domain.StateInvalidated,
	}
	for _, state := range states {
		summaries, err := st.ListByState(state)
		if err != nil {
			log.Error().Err(err).Msg("list by state")
			return exitError
		}
		fmt.Printf("%-22s %d\n", state, len(summaries))
	}
	return exitOK
}

func cmdList(st *store.Store, args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	state := fs.String("state", "", "filter by strategy state")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	var summaries []store.StrategySummary
	var err error
	if *state != "" {
		summaries, err = st.ListByState(domain.StrategyState(*state))
	} else {
		summaries, err = st.AllStrategies()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	for _, s := range summaries {
		fmt.Printf("%s\t%s\t%s\n", s.ID, s.State, s.Name)
	}
	return exitOK
}

func cmdShow(st *store.Store, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: research-kit show <STRAT-ID>")
		return exitUsage
	}
	strat, err := st.GetStrategy(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	fmt.Printf("%+v\n", strat)
	switch strat.State {
	case domain.StateBlocked:
		return exitBlocked
	case domain.StateInvalidated:
		return exitInvalidated
	default:
		return exitOK
	}
}

func cmdApprove(st *store.Store, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("approve", flag.ContinueOnError)
	decidedBy := fs.String("by", "human", "who decided")
	notes := fs.String("notes", "", "decision notes")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: research-kit approve <PROP-ID|IDEA-ID> [-by name] [-notes text]")
		return exitUsage
	}
	subject := fs.Arg(0)

	if strings.HasPrefix(subject, "IDEA-") {
		return approveIdea(st, cfg, subject)
	}

	ids, err := proposalAllocator(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	q := queue.New(st, ids, 7*24*time.Hour)
	rec, err := q.Decide(subject, domain.ProposalApproved, *decidedBy, *notes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	fmt.Printf("%s approved\n", rec.ID)
	return exitOK
}

// approveIdea promotes an approved idea into a new PENDING strategy record,
// carrying its hypothesis forward as the strategy's stated edge rationale.
// The idea itself never carried a full Definition, so the promoted
// strategy starts with an empty one, to be filled in before verification.
func approveIdea(st *store.Store, cfg *config.Config, ideaID string) int {
	rec, err := st.GetIdea(ideaID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	allocator, err := strategyAllocator(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	stratID, err := allocator.Next()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	strat := domain.Strategy{
		ID:        stratID,
		Name:      rec.Hypothesis,
		CreatedAt: time.Now().UTC(),
		Lineage:   domain.Lineage{Parents: rec.Parents},
		Edge:      domain.Edge{Mechanism: rec.Mechanism, WhyExists: rec.Hypothesis},
		EdgeProvenance: domain.EdgeProvenance{
			Source:     domain.ProvenanceInferred,
			Confidence: domain.ConfidenceMedium,
		},
	}
	if err := st.CreateStrategy(strat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	ideas, err := ideaAllocator(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	mgr := idea.New(st, ideas, 30*24*time.Hour)
	if _, err := mgr.Approve(ideaID, stratID); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	fmt.Printf("%s approved, promoted to %s\n", ideaID, stratID)
	return exitOK
}

func cmdServe(st *store.Store, cfg *config.Config, log zerolog.Logger) int {
	handler := server.New(st, log)
	srv := &http.Server{Addr: ":8080", Handler: handler}

	allocator, err := proposalAllocator(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to open proposal id allocator")
		return exitError
	}
	q := queue.New(st, allocator, 7*24*time.Hour)
	sched := queue.NewScheduler(q, log)
	if err := sched.Start("0 * * * *"); err != nil {
		log.Error().Err(err).Msg("failed to start proposal sweep scheduler")
		return exitError
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("serving workspace status api")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return exitError
	}
	return exitOK
}
