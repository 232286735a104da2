package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimscore/internal/exitcode"
	"github.com/gyeh/claimscore/internal/ingest"
	"github.com/gyeh/claimscore/internal/model"
)

const planTopN = 5

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run schema check, scoring and stats (no writes)",
	RunE:  runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to CSV or Parquet claims file (required)")
	f.StringVar(&cfg.ScoringFile, "scoring-config", "", "YAML file overriding scoring parameters")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := newLogger()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	cfg.DryRun = true

	res, err := ingest.Run(context.Background(), nil, log, &cfg)
	if err != nil {
		logPipelineError(log, err, "plan failed")
		os.Exit(exitCodeFor(err))
	}

	s, st := res.Summary, res.Stats
	dist := map[string]int{}
	for i := range res.Claims {
		dist[model.Bucket(res.Claims[i].FraudScore)]++
	}

	fmt.Println("=== claimscore plan ===")
	fmt.Printf("File:        %s\n", s.FilePath)
	fmt.Printf("SHA-256:     %s\n", s.FileSHA256)
	fmt.Printf("Rows:        %d\n", s.RowsRead)
	fmt.Printf("Patients:    %d\n", st.Patients)
	fmt.Printf("Diagnoses:   %d\n", st.Diagnoses)
	fmt.Printf("Median base ratio: %.4f (baseline %.4f)\n", st.MedianBaseRatio, st.Baseline)
	if st.WindowFallbacks > 0 {
		fmt.Printf("Window fallback: %d patient(s) with missing admission dates\n", st.WindowFallbacks)
	}
	fmt.Println()
	fmt.Println("Score distribution:")
	for _, b := range []string{model.BucketLow, model.BucketMedium, model.BucketHigh} {
		fmt.Printf("  %-7s %d\n", b, dist[b])
	}

	top := topClaims(res.Claims, planTopN)
	if len(top) > 0 {
		fmt.Println()
		fmt.Printf("Top %d by fraud score:\n", len(top))
		for _, c := range top {
			fmt.Printf("  %3d  %-12s %-20s %12.2f\n", c.FraudScore, c.PatientID, c.Diagnosis, c.AmountBilled)
		}
	}
	fmt.Println("\nSchema validation: OK")
	return nil
}

// topClaims returns up to n claims with the highest scores, keeping input
// order among ties.
func topClaims(claims []model.ScoredClaim, n int) []model.ScoredClaim {
	out := make([]model.ScoredClaim, 0, n)
	for i := range claims {
		c := claims[i]
		pos := len(out)
		for pos > 0 && out[pos-1].FraudScore < c.FraudScore {
			pos--
		}
		if pos >= n {
			continue
		}
		if len(out) < n {
			out = append(out, model.ScoredClaim{})
		}
		copy(out[pos+1:], out[pos:len(out)-1])
		out[pos] = c
	}
	return out
}
