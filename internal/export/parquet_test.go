package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimscore/internal/model"
)

func TestWriteParquet_RoundTrip(t *testing.T) {
	admitted := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	claims := []model.ScoredClaim{
		{
			ClaimRecord: model.ClaimRecord{
				SourceRow:    2,
				PatientID:    "p1",
				Age:          81,
				DateAdmitted: &admitted,
				Diagnosis:    "Flu",
				AmountBilled: 1234.5,
			},
			AgeRisk:    1.2,
			BaseRatio:  1,
			FraudScore: 77,
		},
		{
			ClaimRecord: model.ClaimRecord{SourceRow: 1, PatientID: "p2", Diagnosis: "Flu"},
			FraudScore:  3,
		},
	}

	path := filepath.Join(t.TempDir(), "scored.parquet")
	if err := WriteParquet(path, claims); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	rows, err := goparquet.ReadFile[ScoredRow](path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].PatientID != "p1" || rows[0].FraudScore != 77 || rows[0].AgeRisk != 1.2 {
		t.Errorf("row 0: %+v", rows[0])
	}
	if rows[0].DateAdmitted == nil || *rows[0].DateAdmitted != "2024-03-01" {
		t.Errorf("row 0 date_admitted: got %v", rows[0].DateAdmitted)
	}
	if rows[0].DateDischarged != nil {
		t.Errorf("row 0 date_discharged: expected null, got %v", *rows[0].DateDischarged)
	}
	if rows[1].PatientID != "p2" || rows[1].FraudScore != 3 {
		t.Errorf("row 1: %+v", rows[1])
	}
}

func TestWriteParquet_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "scored.parquet")
	if err := WriteParquet(path, nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestStage_NotVisibleUntilPublish(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scored.parquet")
	claims := []model.ScoredClaim{{ClaimRecord: model.ClaimRecord{PatientID: "p1"}, FraudScore: 5}}

	staged, err := Stage(path, claims)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("export visible before Publish: %v", err)
	}
	if err := staged.Publish(); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	rows, err := goparquet.ReadFile[ScoredRow](path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 || rows[0].PatientID != "p1" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestStage_Discard(t *testing.T) {
	dir := t.TempDir()
	staged, err := Stage(filepath.Join(dir, "scored.parquet"), nil)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	staged.Discard()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty dir after Discard, got %d entries", len(entries))
	}
}
