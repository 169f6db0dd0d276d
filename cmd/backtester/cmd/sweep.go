package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"tradesim/internal/config"
	"tradesim/internal/engine"
	"tradesim/internal/report"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the sweep variants of a config side by side",
	Long: `Run every variant listed under sweep.variants concurrently. Each variant is
an independent backtest over the same instruments with its own account and
strategy state.

Without variants the base config is run --copies times.

Example:
  backtester sweep -f configs/aapl-sweep.yaml -p 8`,
	RunE: runSweep,
}

var (
	sweepConfigPath  string
	sweepParallelism int
	sweepCopies      int
)

var errNoVariants = errors.New("config has no sweep variants and --copies is below 2")

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&sweepConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	sweepCmd.Flags().IntVarP(&sweepParallelism, "parallelism", "p", 0, "runs executed at once (default from config)")
	sweepCmd.Flags().IntVar(&sweepCopies, "copies", 0, "run the base config this many times when no variants are set")
	_ = sweepCmd.MarkFlagRequired("config")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.LoadFromFile(sweepConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, closeDB, err := openDataSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	engines, err := sweepEngines(ctx, cfg, db, sweepCopies)
	if err != nil {
		return err
	}

	limit := cfg.Sweep.Parallelism
	if sweepParallelism > 0 {
		limit = sweepParallelism
	}
	slog.Info("sweep started", "runs", len(engines), "parallelism", limit)
	if err := engine.Sweep(ctx, engines, limit); err != nil {
		return err
	}

	reporter, closeReporter, err := newReporter(cfg)
	if err != nil {
		return err
	}
	defer closeReporter()

	reports := make([]engine.Report, 0, len(engines))
	for _, eng := range engines {
		r, err := eng.Report()
		if err != nil {
			return fmt.Errorf("%s: %w", eng.Name(), err)
		}
		if err := reporter.Write(ctx, report.NewRunID(), r); err != nil {
			return fmt.Errorf("write report %s: %w", eng.Name(), err)
		}
		reports = append(reports, r)
	}
	printSweep(cmd.OutOrStdout(), reports)
	return nil
}

// sweepEngines builds one engine per variant. Without variants the base engine is loaded
// once and cloned, so the copies share its bars.
func sweepEngines(ctx context.Context, cfg *config.Config, db dataSource, copies int) ([]*engine.Engine, error) {
	logger := slog.Default()
	if len(cfg.Sweep.Variants) > 0 {
		engines := make([]*engine.Engine, 0, len(cfg.Sweep.Variants))
		for _, v := range cfg.Sweep.Variants {
			eng, err := buildEngine(cfg.WithVariant(v), db, logger, io.Discard)
			if err != nil {
				return nil, fmt.Errorf("variant %s: %w", v.Name, err)
			}
			engines = append(engines, eng)
		}
		return engines, nil
	}

	if copies < 2 {
		return nil, errNoVariants
	}
	base, err := buildEngine(cfg, db, logger, io.Discard)
	if err != nil {
		return nil, err
	}
	if err := base.Load(ctx); err != nil {
		return nil, err
	}
	engines := []*engine.Engine{base}
	for i := 1; i < copies; i++ {
		engines = append(engines, base.Clone(fmt.Sprintf("%s-%d", cfg.Name, i)))
	}
	return engines, nil
}

func printSweep(w io.Writer, reports []engine.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tFINAL VALUE\tNET PROFIT\tTRADES\tREJECTED\tFEES")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.Name,
			r.Summary.FinalValue.StringFixed(2),
			r.Summary.NetProfit.StringFixed(2),
			r.Summary.TotalTrades,
			r.Summary.RejectedOrders,
			r.Summary.TotalFees.StringFixed(2),
		)
	}
	_ = tw.Flush()
}
