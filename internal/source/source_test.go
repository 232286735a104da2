package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimscore/internal/normalize"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseCSV_BOMAndRaggedRows(t *testing.T) {
	in := "\xef\xbb\xbfPatient ID,Age,Diagnosis\n" +
		"p1,30,Flu\n" +
		"\n" +
		"p2,41\n" +
		",,\n" +
		"p3,50,\"Broken \"quote\",extra\n"
	tbl, err := parseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parseCSV: %v", err)
	}
	if tbl.Headers[0] != "Patient ID" {
		t.Errorf("BOM not stripped: %q", tbl.Headers[0])
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(tbl.Rows))
	}
	if len(tbl.Rows[1]) != 2 {
		t.Errorf("short row: got %d cells, want 2", len(tbl.Rows[1]))
	}
	if len(tbl.Rows[2]) != 4 {
		t.Errorf("long row: got %d cells, want 4", len(tbl.Rows[2]))
	}
}

func TestParseCSV_NoHeader(t *testing.T) {
	if _, err := parseCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"claims.csv":     FormatCSV,
		"claims.CSV":     FormatCSV,
		"claims.txt":     FormatCSV,
		"claims.parquet": FormatParquet,
		"CLAIMS.PARQUET": FormatParquet,
	}
	for path, want := range tests {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q): got %s, want %s", path, got, want)
		}
	}
}

func TestReadTable_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")
	_, err := ReadTable(path)
	var nf *SourceNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *SourceNotFoundError, got %v", err)
	}
	if nf.Path != path {
		t.Errorf("path: got %q, want %q", nf.Path, path)
	}
}

func TestStat_Directory(t *testing.T) {
	_, err := Stat(t.TempDir())
	var nf *SourceNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *SourceNotFoundError for directory, got %v", err)
	}
}

func TestReadClaims_CSV(t *testing.T) {
	path := writeTemp(t, "claims.csv",
		"Patient ID,Age,Gender,Date Admitted,Date Discharged,Diagnosis,Amount Billed\n"+
			"p1,81,F,2024-01-01,2024-01-04,Flu,\"$1,200\"\n"+
			"p2,x,M,bad,,Cold,oops\n")

	recs, err := ReadClaims(path)
	if err != nil {
		t.Fatalf("ReadClaims: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].SourceRow != 1 || recs[0].AmountBilled != 1200 || recs[0].Age != 81 {
		t.Errorf("record 0: %+v", recs[0])
	}
	if recs[1].Age != 0 || recs[1].AmountBilled != 0 || recs[1].DateAdmitted != nil {
		t.Errorf("record 1 coercion: %+v", recs[1])
	}
}

func TestReadClaims_SchemaError(t *testing.T) {
	path := writeTemp(t, "claims.csv", "id,amount\n1,2\n")
	_, err := ReadClaims(path)
	var se *normalize.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected *normalize.SchemaError, got %v", err)
	}
	if len(se.Missing) != 6 {
		t.Errorf("missing: got %v", se.Missing)
	}
}

type parquetClaim struct {
	PatientID      string    `parquet:"Patient ID"`
	Age            int32     `parquet:"age"`
	Gender         *string   `parquet:"gender,optional"`
	DateAdmitted   time.Time `parquet:"date_admitted,date"`
	DateDischarged time.Time `parquet:"date_discharged,timestamp(millisecond)"`
	Diagnosis      string    `parquet:"diagnosis"`
	AmountBilled   float64   `parquet:"amount_billed"`
}

func TestReadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.parquet")
	f := "F"
	rows := []parquetClaim{
		{
			PatientID:      "p1",
			Age:            81,
			Gender:         &f,
			DateAdmitted:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			DateDischarged: time.Date(2024, 1, 4, 12, 30, 0, 0, time.UTC),
			Diagnosis:      "Flu",
			AmountBilled:   1200.5,
		},
		{
			PatientID:      "p2",
			Age:            40,
			DateAdmitted:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			DateDischarged: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Diagnosis:      "Cold",
			AmountBilled:   10,
		},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}

	recs, err := ReadClaims(path)
	if err != nil {
		t.Fatalf("ReadClaims: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	r := recs[0]
	if r.PatientID != "p1" || r.Age != 81 || r.Gender != "F" || r.AmountBilled != 1200.5 {
		t.Errorf("record 0: %+v", r)
	}
	if r.DateAdmitted == nil || r.DateAdmitted.Format(time.DateOnly) != "2024-01-01" {
		t.Errorf("date_admitted: got %v", r.DateAdmitted)
	}
	if r.DateDischarged == nil || r.DateDischarged.Format(time.DateOnly) != "2024-01-04" {
		t.Errorf("date_discharged: got %v", r.DateDischarged)
	}
	if recs[1].Gender != "" {
		t.Errorf("null gender: got %q, want empty", recs[1].Gender)
	}
}
