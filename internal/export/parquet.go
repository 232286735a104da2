package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimscore/internal/model"
)

// ScoredRow is the Parquet schema of an exported scored claim.
type ScoredRow struct {
	SourceRow      int64   `parquet:"source_row"`
	PatientID      string  `parquet:"patient_id"`
	Age            int32   `parquet:"age"`
	Gender         string  `parquet:"gender"`
	DateAdmitted   *string `parquet:"date_admitted,optional"`
	DateDischarged *string `parquet:"date_discharged,optional"`
	Diagnosis      string  `parquet:"diagnosis"`
	AmountBilled   float64 `parquet:"amount_billed"`
	FraudType      string  `parquet:"fraud_type"`
	LengthOfStay   int32   `parquet:"length_of_stay"`
	AvgBilled      float64 `parquet:"avg_billed"`
	BaseRatio      float64 `parquet:"base_ratio"`
	AgeRisk        float64 `parquet:"age_risk"`
	StayPenalty    float64 `parquet:"stay_penalty"`
	ClaimsLast60d  int32   `parquet:"claims_last_60d"`
	FreqPenalty    float64 `parquet:"freq_penalty"`
	RawScore       float64 `parquet:"raw_score"`
	FraudScore     int32   `parquet:"fraud_score"`
}

// FromScored converts a scored claim to its export row.
func FromScored(c *model.ScoredClaim) ScoredRow {
	return ScoredRow{
		SourceRow:      c.SourceRow,
		PatientID:      c.PatientID,
		Age:            int32(c.Age),
		Gender:         c.Gender,
		DateAdmitted:   isoDate(c.DateAdmitted),
		DateDischarged: isoDate(c.DateDischarged),
		Diagnosis:      c.Diagnosis,
		AmountBilled:   c.AmountBilled,
		FraudType:      c.FraudType,
		LengthOfStay:   int32(c.LengthOfStay),
		AvgBilled:      c.AvgBilled,
		BaseRatio:      c.BaseRatio,
		AgeRisk:        c.AgeRisk,
		StayPenalty:    c.StayPenalty,
		ClaimsLast60d:  int32(c.ClaimsLast60d),
		FreqPenalty:    c.FreqPenalty,
		RawScore:       c.RawScore,
		FraudScore:     int32(c.FraudScore),
	}
}

func isoDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

// Staged is a fully written export waiting in a temporary sibling of its
// destination. Publish renames it into place; Discard removes it.
type Staged struct {
	tmp  string
	path string
}

// Stage writes claims to a temporary file next to path. Nothing is visible at
// path until Publish.
func Stage(path string, claims []model.ScoredClaim) (*Staged, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".claimscore-export-*.parquet")
	if err != nil {
		return nil, fmt.Errorf("create export: %w", err)
	}
	staged := &Staged{tmp: tmp.Name(), path: path}

	rows := make([]ScoredRow, len(claims))
	for i := range claims {
		rows[i] = FromScored(&claims[i])
	}

	writer := goparquet.NewGenericWriter[ScoredRow](tmp)
	if _, err := writer.Write(rows); err != nil {
		tmp.Close()
		staged.Discard()
		return nil, fmt.Errorf("write export rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		staged.Discard()
		return nil, fmt.Errorf("close export writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		staged.Discard()
		return nil, fmt.Errorf("close export file: %w", err)
	}
	return staged, nil
}

// Publish moves the staged file to its destination.
func (s *Staged) Publish() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		s.Discard()
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}

// Discard removes the staged file. Safe to call after Publish.
func (s *Staged) Discard() {
	_ = os.Remove(s.tmp)
}

// WriteParquet writes claims to path, replacing any existing file. Readers
// never see a partial export.
func WriteParquet(path string, claims []model.ScoredClaim) error {
	staged, err := Stage(path, claims)
	if err != nil {
		return err
	}
	return staged.Publish()
}
