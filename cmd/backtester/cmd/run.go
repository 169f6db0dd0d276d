package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"tradesim/internal/config"
	"tradesim/internal/report"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single backtest from a config file",
	Long: `Run one backtest using the instruments, strategies, broker and account
described in a configuration file, print the summary and write the configured
reports.

Example:
  backtester run -f configs/aapl.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, closeDB, err := openDataSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	eng, err := buildEngine(cfg, db, slog.Default(), os.Stderr)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	if err := eng.Run(ctx); err != nil {
		return fmt.Errorf("run %s: %w", cfg.Name, err)
	}

	r, err := eng.Report()
	if err != nil {
		return err
	}
	r.Print(cmd.OutOrStdout())

	reporter, closeReporter, err := newReporter(cfg)
	if err != nil {
		return err
	}
	defer closeReporter()

	runID := report.NewRunID()
	if err := reporter.Write(ctx, runID, r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	slog.Info("run stored", "run", cfg.Name, "run_id", runID)
	return nil
}
