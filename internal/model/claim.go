package model

import "time"

// ClaimRecord is one coerced input row. Dates are nil when the source cell was
// missing or unparseable.
type ClaimRecord struct {
	SourceRow      int64      `json:"source_row"`
	PatientID      string     `json:"patient_id"`
	Age            int        `json:"age"`
	Gender         string     `json:"gender"`
	DateAdmitted   *time.Time `json:"date_admitted"`
	DateDischarged *time.Time `json:"date_discharged"`
	Diagnosis      string     `json:"diagnosis"`
	AmountBilled   float64    `json:"amount_billed"`
	FraudType      string     `json:"fraud_type,omitempty"` // pass-through label, ignored by scoring
}

// ScoredClaim is a ClaimRecord plus every derived feature and the final score.
type ScoredClaim struct {
	ClaimRecord

	LengthOfStay  int     `json:"length_of_stay"`
	AvgBilled     float64 `json:"avg_billed"` // peer mean amount_billed for the diagnosis
	BaseRatio     float64 `json:"base_ratio"`
	AgeRisk       float64 `json:"age_risk"`
	StayPenalty   float64 `json:"stay_penalty"`
	ClaimsLast60d int     `json:"claims_last_60d"`
	FreqPenalty   float64 `json:"freq_penalty"`
	RawScore      float64 `json:"raw_score"`
	FraudScore    int     `json:"fraud_score"`
}

// Risk buckets used by the report distribution.
const (
	BucketLow    = "Low"
	BucketMedium = "Medium"
	BucketHigh   = "High"
)

// HighRiskThreshold is the score above which a claim counts as high risk.
const HighRiskThreshold = 75

// Bucket returns the distribution bucket for a fraud score.
func Bucket(score int) string {
	switch {
	case score <= 25:
		return BucketLow
	case score <= HighRiskThreshold:
		return BucketMedium
	default:
		return BucketHigh
	}
}

// ClaimColumns returns the ordered column names of the claims table.
func ClaimColumns() []string {
	return []string{
		"source_row",
		"patient_id",
		"age",
		"gender",
		"date_admitted",
		"date_discharged",
		"diagnosis",
		"amount_billed",
		"fraud_type",
		"length_of_stay",
		"avg_billed",
		"base_ratio",
		"age_risk",
		"stay_penalty",
		"claims_last_60d",
		"freq_penalty",
		"raw_score",
		"fraud_score",
	}
}

// Values returns the row values in the same order as ClaimColumns(),
// suitable for COPY and prepared INSERTs.
func (c *ScoredClaim) Values() []any {
	return []any{
		c.SourceRow,
		c.PatientID,
		c.Age,
		c.Gender,
		c.DateAdmitted,
		c.DateDischarged,
		c.Diagnosis,
		c.AmountBilled,
		c.FraudType,
		c.LengthOfStay,
		c.AvgBilled,
		c.BaseRatio,
		c.AgeRisk,
		c.StayPenalty,
		c.ClaimsLast60d,
		c.FreqPenalty,
		c.RawScore,
		c.FraudScore,
	}
}
