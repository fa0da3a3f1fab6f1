package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/extremevalue/research-kit/internal/backend"
	"github.com/extremevalue/research-kit/internal/codegen"
	"github.com/extremevalue/research-kit/internal/config"
	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/regime"
	"github.com/extremevalue/research-kit/internal/store"
	"github.com/extremevalue/research-kit/internal/validate"
	"github.com/extremevalue/research-kit/internal/walkforward"
)

func cmdValidate(st *store.Store, cfg *config.Config, log zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	freeformFile := fs.String("freeform", "", "path to freeform (tier 3) source, required for tier-3 strategies")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: research-kit validate <STRAT-ID> [-freeform path]")
		return exitUsage
	}
	id := fs.Arg(0)

	strat, err := st.GetStrategy(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	code, err := generateCode(st, strat, *freeformFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	strat, err = st.UpdateState(id, domain.StateReadyToExecute, domain.StateExecuting, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	plan := walkforward.DefaultPlan(time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC))
	specs := walkforward.Specs(plan)
	executor := walkforward.NewExecutor(10, backend.LocalStub{}, cfg.Gates.Validation.MaxFailedWindows, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	windows, err := executor.RunAll(ctx, strat, domain.ValidationRecord{CodeHash: code.CodeHash}, specs, map[int]bool{})
	if err != nil {
		// Only returned once the failed-window count exceeds the
		// configured bound; individual window failures below that bound
		// are recorded as WindowError and flow into partial validation.
		fmt.Fprintln(os.Stderr, err)
		st.UpdateState(id, domain.StateExecuting, domain.StateError, func(s *domain.Strategy) { s.ErrorCause = err.Error() })
		return exitError
	}

	tagger := regime.New(log)
	series := syntheticReferenceSeries(code.CodeHash)
	for i := range windows {
		if windows[i].Status == domain.WindowError {
			continue
		}
		windows[i].Regime = tagger.Tag(windows[i].OutSample.End, series)
	}

	strat, err = st.UpdateState(id, domain.StateExecuting, domain.StateAnalyzing, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	familySize, err := st.LineageFamilySize(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	runID := uuid.NewString()
	result := validate.Evaluate(validate.Input{
		Windows:    windows,
		FamilySize: familySize,
		// Conservative default: without per-family p-value ranking tracked
		// elsewhere in the workspace, assume this run sits at the back of
		// its family's rank, the worst case for an FDR-BH correction.
		FamilyRank: familySize,
		Seed:       int64(len(code.CodeHash)),
	}, cfg.Gates.Validation)
	result.RunID = runID
	result.StrategyID = id
	result.Timestamp = time.Now().UTC()
	result.CodeHash = code.CodeHash

	if err := st.AppendValidation(result); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	var to domain.StrategyState
	switch result.Verdict {
	case domain.VerdictValidated:
		to = domain.StateValidated
	case domain.VerdictConditional:
		to = domain.StateConditional
	default:
		to = domain.StateInvalidated
	}
	if _, err := st.UpdateState(id, domain.StateAnalyzing, to, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	fmt.Printf("run %s: verdict=%s adjusted_p=%.4f consistency=%.2f\n", runID, result.Verdict, result.Significance.AdjustedPValue, result.Consistency)
	switch result.Verdict {
	case domain.VerdictInvalidated:
		return exitInvalidated
	default:
		return exitOK
	}
}

func generateCode(st *store.Store, strat domain.Strategy, freeformFile string) (codegen.Result, error) {
	if strat.State == domain.StateReadyToExecute && strat.CodeHash != "" {
		return codegen.Result{Code: strat.GeneratedCode, CodeHash: strat.CodeHash}, nil
	}

	gen := codegen.New()
	var freeform string
	if freeformFile != "" {
		data, err := os.ReadFile(freeformFile)
		if err != nil {
			return codegen.Result{}, fmt.Errorf("read freeform source: %w", err)
		}
		freeform = string(data)
	}

	if strat.State == domain.StateReadyToGenerate {
		var err error
		strat, err = st.UpdateState(strat.ID, domain.StateReadyToGenerate, domain.StateGenerating, nil)
		if err != nil {
			return codegen.Result{}, err
		}
	}
	if strat.State != domain.StateGenerating {
		return codegen.Result{}, fmt.Errorf("strategy %s is in state %s, not ready for code generation", strat.ID, strat.State)
	}

	result, err := gen.Generate(strat, freeform)
	if err != nil {
		st.UpdateState(strat.ID, domain.StateGenerating, domain.StateGenFailed, func(s *domain.Strategy) { s.ErrorCause = err.Error() })
		return codegen.Result{}, fmt.Errorf("generate code: %w", err)
	}

	to := domain.StateReadyToExecute
	if result.NeedsReview {
		to = domain.StateNeedsReview
	}
	if _, err := st.UpdateState(strat.ID, domain.StateGenerating, to, func(s *domain.Strategy) {
		s.GeneratedCode = result.Code
		s.CodeHash = result.CodeHash
	}); err != nil {
		return codegen.Result{}, err
	}
	if to == domain.StateNeedsReview {
		return result, fmt.Errorf("strategy %s generated code needs human review before execution", strat.ID)
	}
	return result, nil
}

var syntheticSectorNames = []string{"technology", "financials", "energy", "healthcare", "industrials"}

// syntheticReferenceSeries derives a deterministic reference market series
// from codeHash, since this workspace never acquires real market data
// itself.
func syntheticReferenceSeries(codeHash string) regime.ReferenceSeries {
	n := 260
	bench := make([]float64, n)
	iv := make([]float64, n)
	rate := make([]float64, n)
	small := make([]float64, n)
	sectors := make(map[string][]float64, len(syntheticSectorNames))
	for _, name := range syntheticSectorNames {
		sectors[name] = make([]float64, n)
	}

	seed := 1.0
	for i, c := range codeHash {
		if i > 7 {
			break
		}
		seed += float64(c)
	}

	price, rate10y, sprice := 100.0, 0.04, 100.0
	sectorPrices := make(map[string]float64, len(syntheticSectorNames))
	for _, name := range syntheticSectorNames {
		sectorPrices[name] = 100.0
	}

	for i := 0; i < n; i++ {
		step := (seed*float64(i+1) - float64(int(seed*float64(i+1))/97)*97) / 1000
		price *= 1 + (step - 0.0485)
		rate10y += (step - 0.0485) / 100
		sprice *= 1 + (step - 0.048)
		bench[i], rate[i], small[i] = price, rate10y, sprice
		iv[i] = 18 + 10*(step-0.0485)

		for j, name := range syntheticSectorNames {
			drift := 0.0485 + float64(j)*0.0003
			sectorPrices[name] *= 1 + (step - drift)
			sectors[name][i] = sectorPrices[name]
		}
	}
	return regime.ReferenceSeries{Benchmark: bench, ImpliedVol: iv, RateProxy: rate, SmallCap: small, Sectors: sectors}
}
