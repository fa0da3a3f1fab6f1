package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/extremevalue/research-kit/internal/config"
	"github.com/extremevalue/research-kit/internal/idea"
	"github.com/extremevalue/research-kit/internal/persona"
	"github.com/extremevalue/research-kit/internal/store"
)

// cmdIdeate dispatches the ideator persona against a validated strategy's
// lineage and proposes a new IDEA-NNN record one level removed from a full
// strategy, for a human to later approve into one.
func cmdIdeate(st *store.Store, cfg *config.Config, log zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("ideate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: research-kit ideate <STRAT-ID>")
		return exitUsage
	}
	id := fs.Arg(0)

	strat, err := st.GetStrategy(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	timeout := time.Duration(cfg.Gates.Personas.TimeoutSec) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opinion, err := persona.TypedProvider{Invoker: persona.StubInvoker{}}.Invoke(ctx, persona.KindIdeator, strat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ideator dispatch:", err)
		return exitError
	}

	allocator, err := ideaAllocator(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	mgr := idea.New(st, allocator, 30*24*time.Hour)
	rec, err := mgr.Propose(string(persona.KindIdeator), opinion.Notes, strat.Edge.Mechanism, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	fmt.Printf("%s proposed: %s\n", rec.ID, rec.Hypothesis)
	return exitOK
}
