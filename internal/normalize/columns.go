package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonical column names.
const (
	ColPatientID      = "patient_id"
	ColAge            = "age"
	ColGender         = "gender"
	ColDateAdmitted   = "date_admitted"
	ColDateDischarged = "date_discharged"
	ColDiagnosis      = "diagnosis"
	ColAmountBilled   = "amount_billed"
	ColFraudType      = "fraud_type"
)

// RequiredColumns must all be present after header normalization.
var RequiredColumns = []string{
	ColPatientID,
	ColAmountBilled,
	ColDiagnosis,
	ColDateAdmitted,
	ColDateDischarged,
	ColAge,
}

var separatorRun = regexp.MustCompile(`[\s\-]+`)

// SchemaError reports canonical columns missing from a source header.
type SchemaError struct {
	Missing []string
	Headers []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// NormalizeHeader maps a raw header such as " Patient ID" to "patient_id".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return separatorRun.ReplaceAllString(h, "_")
}

// Columns maps canonical column names to their index in the source row.
type Columns map[string]int

// NormalizeHeaders builds the canonical column index for a header row.
// When two headers normalize to the same name the first one wins.
// Returns a *SchemaError if any required column is absent.
func NormalizeHeaders(headers []string) (Columns, error) {
	cols := make(Columns, len(headers))
	for i, h := range headers {
		name := NormalizeHeader(h)
		if _, dup := cols[name]; dup {
			continue
		}
		cols[name] = i
	}

	var missing []string
	for _, req := range RequiredColumns {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Headers: headers}
	}
	return cols, nil
}

// Cell returns the value of a canonical column in row, or "" if the column is
// absent or the row is short.
func (c Columns) Cell(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
