package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimscore/internal/config"
	"github.com/gyeh/claimscore/internal/export"
	"github.com/gyeh/claimscore/internal/metrics"
	"github.com/gyeh/claimscore/internal/model"
	"github.com/gyeh/claimscore/internal/scoring"
	"github.com/gyeh/claimscore/internal/store"
)

// Pipeline phases, used as PipelineError.Phase and as metric labels.
const (
	PhasePreflight = "preflight"
	PhaseScore     = "score"
	PhaseWrite     = "write"
	PhaseExport    = "export"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a run: its summary, the scored batch and the
// scorer statistics.
type Result struct {
	Summary *model.RunSummary
	Claims  []model.ScoredClaim
	Stats   scoring.Stats
}

// Run executes preflight → score → export → write. Nothing is written before
// scoring and the staged export have finished for the whole batch; any
// failure leaves the previous dataset in place. The export is published only
// after the write commits. With cfg.DryRun set, or a nil store, the write
// phase is skipped.
func Run(ctx context.Context, st store.Store, log zerolog.Logger, cfg *config.Config) (*Result, error) {
	res, err := run(ctx, st, log, cfg)
	if err != nil {
		metrics.RecordRun("failed")
		return nil, err
	}
	if res.Summary.Written {
		metrics.RecordRun("written")
	} else {
		metrics.RecordRun("dry_run")
	}
	return res, nil
}

func run(ctx context.Context, st store.Store, log zerolog.Logger, cfg *config.Config) (*Result, error) {
	totalStart := time.Now()

	// Phase 1: Preflight
	log.Info().Str("file", cfg.FilePath).Msg("starting preflight")
	pf, err := Preflight(log, cfg.FilePath)
	if err != nil {
		return nil, &PipelineError{Phase: PhasePreflight, Err: err}
	}
	metrics.RecordPhase(PhasePreflight, pf.Duration)
	log = log.With().Str("run_id", pf.RunID.String()).Logger()

	summary := &model.RunSummary{
		RunID:        pf.RunID.String(),
		FilePath:     pf.FilePath,
		FileSHA256:   pf.FileSHA256,
		RowsRead:     int64(len(pf.Records)),
		DurationRead: pf.Duration,
	}

	// Phase 2: Score
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{Phase: PhaseScore, Err: err}
	}
	scoreStart := time.Now()
	claims, stats := scoring.NewScorer(cfg.Scoring).Score(pf.Records)
	summary.DurationScore = time.Since(scoreStart)
	summary.RowsScored = int64(len(claims))
	summary.HighRisk = countHighRisk(claims)
	metrics.RecordPhase(PhaseScore, summary.DurationScore)
	metrics.RecordScores(fraudScores(claims), stats.WindowFallbacks)

	log.Info().
		Int("rows", stats.Rows).
		Int("patients", stats.Patients).
		Int("diagnoses", stats.Diagnoses).
		Float64("median_base_ratio", stats.MedianBaseRatio).
		Float64("baseline", stats.Baseline).
		Int64("high_risk", summary.HighRisk).
		Dur("duration", summary.DurationScore).
		Msg("scoring complete")
	if stats.WindowFallbacks > 0 {
		log.Warn().
			Int("patients", stats.WindowFallbacks).
			Int("missing_admit_dates", stats.MissingAdmitDates).
			Msg("rolling window fell back to per-patient claim counts")
	}

	// Phase 3: Export (optional). Staged only; published after the write.
	var staged *export.Staged
	if cfg.ExportPath != "" {
		exportStart := time.Now()
		staged, err = export.Stage(cfg.ExportPath, claims)
		if err != nil {
			return nil, &PipelineError{Phase: PhaseExport, Err: err}
		}
		defer staged.Discard()
		summary.DurationExport = time.Since(exportStart)
		metrics.RecordPhase(PhaseExport, summary.DurationExport)
	}

	// Phase 4: Write
	if st != nil && !cfg.DryRun {
		writeStart := time.Now()
		info := model.RunInfo{
			RunID:        pf.RunID,
			SourceFile:   pf.FilePath,
			SourceSHA256: pf.FileSHA256,
			RowsScored:   summary.RowsScored,
			HighRisk:     summary.HighRisk,
			ScoredAt:     time.Now().UTC(),
		}
		if err := st.Replace(ctx, info, claims); err != nil {
			return nil, &PipelineError{Phase: PhaseWrite, Err: err}
		}
		summary.Written = true
		summary.DurationWrite = time.Since(writeStart)
		metrics.RecordPhase(PhaseWrite, summary.DurationWrite)
		log.Info().
			Int64("rows", summary.RowsScored).
			Dur("duration", summary.DurationWrite).
			Msg("dataset replaced")
	} else {
		log.Info().Msg("dry run, skipping write")
	}

	if staged != nil {
		if err := staged.Publish(); err != nil {
			if !summary.Written {
				return nil, &PipelineError{Phase: PhaseExport, Err: err}
			}
			// The dataset is committed; the run stands without its export.
			log.Warn().Err(err).Str("path", cfg.ExportPath).Msg("parquet export not published")
		} else {
			summary.Exported = true
			log.Info().
				Str("path", cfg.ExportPath).
				Dur("duration", summary.DurationExport).
				Msg("parquet export written")
		}
	}

	summary.DurationTotal = time.Since(totalStart)
	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_scored", summary.RowsScored).
		Int64("high_risk", summary.HighRisk).
		Bool("written", summary.Written).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("scoring pipeline complete")

	return &Result{Summary: summary, Claims: claims, Stats: stats}, nil
}

func countHighRisk(claims []model.ScoredClaim) int64 {
	var n int64
	for i := range claims {
		if claims[i].FraudScore > model.HighRiskThreshold {
			n++
		}
	}
	return n
}

func fraudScores(claims []model.ScoredClaim) []int {
	out := make([]int, len(claims))
	for i := range claims {
		out[i] = claims[i].FraudScore
	}
	return out
}
