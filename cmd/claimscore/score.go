package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimscore/internal/exitcode"
	"github.com/gyeh/claimscore/internal/ingest"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a claims file and replace the stored dataset",
	RunE:  runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to CSV or Parquet claims file (required)")
	f.StringVar(&cfg.ExportPath, "export", "", "Also write the scored table to this Parquet file")
	f.StringVar(&cfg.ScoringFile, "scoring-config", "", "YAML file overriding scoring parameters")
	_ = scoreCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	st := openStore(ctx, log)
	defer st.Close()

	res, err := ingest.Run(ctx, st, log, &cfg)
	if err != nil {
		logPipelineError(log, err, "scoring failed")
		st.Close()
		os.Exit(exitCodeFor(err))
	}

	s := res.Summary
	fmt.Printf("Scoring complete: %d claims scored, %d high risk (%.1fs)\n",
		s.RowsScored, s.HighRisk, s.DurationTotal.Seconds())
	if s.Exported {
		fmt.Printf("Exported scored claims to %s\n", cfg.ExportPath)
	}
	return nil
}
