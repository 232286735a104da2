package normalize

import (
	"strings"

	"github.com/gyeh/claimscore/internal/model"
)

// ToClaimRecord converts one raw source row into a coerced ClaimRecord.
// Bad numeric cells become zero and bad dates become nil; it never fails.
func ToClaimRecord(row []string, cols Columns, rowNum int64) model.ClaimRecord {
	return model.ClaimRecord{
		SourceRow:      rowNum,
		PatientID:      strings.TrimSpace(cols.Cell(row, ColPatientID)),
		Age:            ParseAge(cols.Cell(row, ColAge)),
		Gender:         strings.TrimSpace(cols.Cell(row, ColGender)),
		DateAdmitted:   ParseDate(cols.Cell(row, ColDateAdmitted)),
		DateDischarged: ParseDate(cols.Cell(row, ColDateDischarged)),
		Diagnosis:      cols.Cell(row, ColDiagnosis),
		AmountBilled:   ParseAmount(cols.Cell(row, ColAmountBilled)),
		FraudType:      strings.TrimSpace(cols.Cell(row, ColFraudType)),
	}
}
