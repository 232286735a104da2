package model

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary captures metrics from a single scoring run.
type RunSummary struct {
	RunID          string
	FilePath       string
	FileSHA256     string
	RowsRead       int64
	RowsScored     int64
	HighRisk       int64
	Written        bool
	Exported       bool
	DurationRead   time.Duration
	DurationScore  time.Duration
	DurationWrite  time.Duration
	DurationExport time.Duration
	DurationTotal  time.Duration
}

// RunInfo is the run metadata persisted alongside a replaced dataset.
type RunInfo struct {
	RunID        uuid.UUID `json:"run_id"`
	SourceFile   string    `json:"source_file"`
	SourceSHA256 string    `json:"source_sha256"`
	RowsScored   int64     `json:"rows_scored"`
	HighRisk     int64     `json:"high_risk"`
	ScoredAt     time.Time `json:"scored_at"`
}

// DatasetSummary is the aggregate view served on the report front page.
type DatasetSummary struct {
	Total        int64            `json:"total"`
	AvgAmount    float64          `json:"avg_amount"`
	HighRisk     int64            `json:"high_risk"`
	Distribution map[string]int64 `json:"distribution"`
}

// ClaimPage is one page of the fraud_score-descending claim listing.
type ClaimPage struct {
	Query      string        `json:"query"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Total      int64         `json:"total"`
	Claims     []ScoredClaim `json:"claims"`
}
