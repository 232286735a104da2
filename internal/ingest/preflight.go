package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimscore/internal/model"
	"github.com/gyeh/claimscore/internal/normalize"
	"github.com/gyeh/claimscore/internal/source"
)

// PreflightResult holds everything resolved before scoring starts.
type PreflightResult struct {
	// FilePath is the path passed to Preflight, stored as-is.
	FilePath string
	// FileSHA256 is the hex-encoded SHA-256 digest of the source file.
	FileSHA256 string
	FileSize   int64
	Format     source.Format
	// RunID identifies this run in scoring_runs and in log lines.
	RunID uuid.UUID
	// Records are the coerced rows in file order.
	Records  []model.ClaimRecord
	Duration time.Duration
}

// Preflight checks the source file exists, hashes it, reads it fully and
// validates the header. A missing file yields *source.SourceNotFoundError and
// a header without the required columns yields *normalize.SchemaError.
func Preflight(log zerolog.Logger, filePath string) (*PreflightResult, error) {
	start := time.Now()

	stat, err := source.Stat(filePath)
	if err != nil {
		return nil, err
	}

	sha, err := normalize.FileHash(filePath)
	if err != nil {
		return nil, &source.SourceNotFoundError{Path: filePath, Err: err}
	}

	table, err := source.ReadTable(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}

	records, err := table.Claims()
	if err != nil {
		return nil, err
	}

	pf := &PreflightResult{
		FilePath:   filePath,
		FileSHA256: sha,
		FileSize:   stat.Size(),
		Format:     source.DetectFormat(filePath),
		RunID:      uuid.New(),
		Records:    records,
		Duration:   time.Since(start),
	}

	log.Info().
		Str("file", filePath).
		Str("format", string(pf.Format)).
		Str("sha256", sha).
		Int64("size_bytes", pf.FileSize).
		Int("rows", len(records)).
		Str("run_id", pf.RunID.String()).
		Dur("duration", pf.Duration).
		Msg("preflight complete")

	return pf, nil
}
