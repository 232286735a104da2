// mkfixture writes a deterministic synthetic claims file for local runs.
// The output format follows the extension: .parquet or CSV otherwise.
// Usage: go run ./cmd/mkfixture --out testdata/claims.csv --rows 500 --seed 7
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	goparquet "github.com/parquet-go/parquet-go"
)

// fixtureRow mirrors the header layout of common public claim exports.
type fixtureRow struct {
	PatientID      string `parquet:"Patient ID"`
	Age            string `parquet:"Age"`
	Gender         string `parquet:"Gender"`
	DateAdmitted   string `parquet:"Date Admitted"`
	DateDischarged string `parquet:"Date Discharged"`
	Diagnosis      string `parquet:"Diagnosis"`
	AmountBilled   string `parquet:"Amount Billed"`
	FraudType      string `parquet:"Fraud Type"`
}

var header = []string{
	"Patient ID", "Age", "Gender", "Date Admitted", "Date Discharged",
	"Diagnosis", "Amount Billed", "Fraud Type",
}

var diagnoses = []struct {
	name string
	mean float64
}{
	{"Flu", 900},
	{"Fracture", 4200},
	{"Pneumonia", 7800},
	{"Diabetes", 2600},
	{"Heart Disease", 15500},
	{"Appendicitis", 11200},
}

var fraudTypes = []string{"None", "None", "None", "None", "Upcoding", "Phantom Billing", "Duplicate Claim"}

func main() {
	out := flag.String("out", "testdata/claims.csv", "output file (.csv or .parquet)")
	rows := flag.Int("rows", 500, "rows to generate")
	patients := flag.Int("patients", 120, "distinct patients")
	seed := flag.Uint64("seed", 1, "random seed")
	dirty := flag.Float64("dirty", 0.02, "fraction of rows with unparseable dates or amounts")
	flag.Parse()

	if *rows < 0 || *patients < 1 {
		fmt.Fprintln(os.Stderr, "--rows must be >= 0 and --patients >= 1")
		os.Exit(1)
	}

	data := generate(rand.New(rand.NewPCG(*seed, *seed)), *rows, *patients, *dirty)

	var err error
	if strings.HasSuffix(strings.ToLower(*out), ".parquet") {
		err = writeParquet(*out, data)
	} else {
		err = writeCSV(*out, data)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}

	fraud := 0
	for _, r := range data {
		if r.FraudType != "None" {
			fraud++
		}
	}
	fmt.Printf("Wrote %d rows (%d patients, %d labelled fraud) to %s\n", len(data), *patients, fraud, *out)
}

func generate(rng *rand.Rand, n, patients int, dirty float64) []fixtureRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]fixtureRow, n)
	for i := range rows {
		d := diagnoses[rng.IntN(len(diagnoses))]
		ft := fraudTypes[rng.IntN(len(fraudTypes))]

		amount := d.mean * (0.6 + 0.8*rng.Float64())
		stay := rng.IntN(6)
		if ft != "None" {
			amount *= 1.5 + rng.Float64()
			stay += rng.IntN(10)
		}
		admitted := start.AddDate(0, 0, rng.IntN(365))
		discharged := admitted.AddDate(0, 0, stay)

		gender := "M"
		if rng.IntN(2) == 0 {
			gender = "F"
		}

		r := fixtureRow{
			PatientID:      fmt.Sprintf("P%05d", rng.IntN(patients)+1),
			Age:            strconv.Itoa(18 + rng.IntN(78)),
			Gender:         gender,
			DateAdmitted:   admitted.Format(time.DateOnly),
			DateDischarged: discharged.Format(time.DateOnly),
			Diagnosis:      d.name,
			AmountBilled:   strconv.FormatFloat(amount, 'f', 2, 64),
			FraudType:      ft,
		}

		if rng.Float64() < dirty {
			switch rng.IntN(3) {
			case 0:
				r.DateAdmitted = "unknown"
			case 1:
				r.AmountBilled = "n/a"
			default:
				r.DateDischarged = ""
			}
		}
		rows[i] = r
	}
	return rows
}

func writeCSV(path string, rows []fixtureRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.PatientID, r.Age, r.Gender, r.DateAdmitted, r.DateDischarged, r.Diagnosis, r.AmountBilled, r.FraudType}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeParquet(path string, rows []fixtureRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	writer := goparquet.NewGenericWriter[fixtureRow](f)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return f.Close()
}
