package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/extremevalue/research-kit/internal/config"
	"github.com/extremevalue/research-kit/internal/dataregistry"
	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/store"
	"github.com/extremevalue/research-kit/internal/verify"
)

func cmdVerify(st *store.Store, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: research-kit verify <STRAT-ID>")
		return exitUsage
	}
	id := fs.Arg(0)

	strat, err := st.GetStrategy(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	if strat.State == domain.StatePending {
		strat, err = st.UpdateState(id, domain.StatePending, domain.StateVerifying, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitError
		}
	}
	if strat.State != domain.StateVerifying && strat.State != domain.StateBlocked {
		fmt.Fprintf(os.Stderr, "strategy %s is in state %s, not verifiable\n", id, strat.State)
		return exitError
	}
	if strat.State == domain.StateBlocked {
		strat, err = st.UpdateState(id, domain.StateBlocked, domain.StateVerifying, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitError
		}
	}

	registry := dataregistry.New(strat.Definition.Universe.Instruments)
	results := verify.Run(strat, registry, cfg.Gates.Checks.Enabled)

	for _, r := range results {
		fmt.Printf("%-24s %-5s %s\n", r.Check, r.Status, r.Message)
	}

	to := domain.StateReadyToGenerate
	if verify.Blocked(results) {
		to = domain.StateBlocked
	}
	if _, err := st.UpdateState(id, domain.StateVerifying, to, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	fmt.Printf("%s -> %s\n", id, to)
	if to == domain.StateBlocked {
		return exitBlocked
	}
	return exitOK
}
