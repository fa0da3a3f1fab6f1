package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/extremevalue/research-kit/internal/config"
	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/persona"
	"github.com/extremevalue/research-kit/internal/queue"
	"github.com/extremevalue/research-kit/internal/store"
)

// cmdSynthesize dispatches a strategy to the persona panel and reconciles
// the result into a queue action: proceed enqueues a publish proposal,
// hold_for_review enqueues a resolve_block proposal, discard archives the
// strategy outright.
func cmdSynthesize(st *store.Store, cfg *config.Config, log zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("synthesize", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: research-kit synthesize <STRAT-ID>")
		return exitUsage
	}
	id := fs.Arg(0)

	strat, err := st.GetStrategy(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	roster := make([]persona.Kind, 0, len(cfg.Gates.Personas.Roster))
	for _, k := range cfg.Gates.Personas.Roster {
		roster = append(roster, persona.Kind(k))
	}
	timeout := time.Duration(cfg.Gates.Personas.TimeoutSec) * time.Second
	orchestrator := persona.New(roster, cfg.Gates.Personas.Quorum, timeout, cfg.Gates.Personas.RateLimit,
		persona.TypedProvider{Invoker: persona.StubInvoker{}}, log)

	ctx, cancel := context.WithTimeout(context.Background(), timeout+10*time.Second)
	defer cancel()
	panel := orchestrator.Dispatch(ctx, strat)
	for _, op := range panel.Opinions {
		if op.Missing {
			fmt.Printf("%-20s MISSING %s\n", "?", op.Notes)
			continue
		}
		fmt.Printf("%-20s %-8s %.2f %s\n", op.Persona, op.Verdict, op.Score, op.Notes)
	}

	synthesis := persona.Synthesize(panel)
	fmt.Printf("synthesis: %s (%s)\n", synthesis.Status, synthesis.Summary)

	allocator, err := proposalAllocator(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	q := queue.New(st, allocator, 7*24*time.Hour)

	switch synthesis.Status {
	case persona.StatusProceed:
		rec, err := q.Enqueue(domain.ProposalPublish, id, queue.DescriptionFor(domain.ProposalPublish, id))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitError
		}
		fmt.Printf("enqueued %s\n", rec.ID)
	case persona.StatusHoldForReview:
		rec, err := q.Enqueue(domain.ProposalResolveBlock, id, synthesis.Summary)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitError
		}
		fmt.Printf("enqueued %s for human review\n", rec.ID)
	case persona.StatusDiscard:
		if _, err := st.UpdateState(id, strat.State, domain.StateArchived, func(s *domain.Strategy) {
			s.ErrorCause = "persona panel discarded: " + synthesis.Summary
		}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitError
		}
		fmt.Println("archived")
	}
	return exitOK
}
