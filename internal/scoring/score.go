// Package scoring turns a batch of claim records into fraud-scored claims.
//
// The pipeline is strictly two-pass: peer baselines and the score median need
// the whole batch before any row's final score is known.
package scoring

import (
	"sort"

	"github.com/gyeh/claimscore/internal/model"
)

// Stats describes one Score call.
type Stats struct {
	Rows              int
	Diagnoses         int
	Patients          int
	WindowFallbacks   int
	MedianBaseRatio   float64
	Baseline          float64
	MissingAdmitDates int
}

// Scorer applies a fixed parameter set.
type Scorer struct {
	params Params
}

// NewScorer creates a Scorer. Params are assumed valid.
func NewScorer(p Params) *Scorer {
	return &Scorer{params: p}
}

// Score derives features and fraud scores for the whole batch. The result is
// ordered by patient_id, then date_admitted (missing dates last), then source
// row. An empty batch returns an empty result.
func (s *Scorer) Score(records []model.ClaimRecord) ([]model.ScoredClaim, Stats) {
	if len(records) == 0 {
		return []model.ScoredClaim{}, Stats{}
	}
	p := s.params

	claims := make([]model.ScoredClaim, len(records))
	for i := range records {
		claims[i].ClaimRecord = records[i]
	}
	SortClaims(claims)

	stats := Stats{Rows: len(claims)}
	for i := range claims {
		c := &claims[i]
		c.LengthOfStay = LengthOfStay(&c.ClaimRecord)
		c.AgeRisk = p.AgeRisk(c.Age)
		c.StayPenalty = p.StayPenalty(c.LengthOfStay)
		if c.DateAdmitted == nil {
			stats.MissingAdmitDates++
		}
	}

	// Pass 1: group aggregates. Pass 2: join back per row.
	baselines := PeerBaselines(claims)
	stats.Diagnoses = len(baselines)
	ratios := make([]float64, len(claims))
	for i := range claims {
		c := &claims[i]
		c.AvgBilled = baselines[c.Diagnosis]
		c.BaseRatio = BaseRatio(c.AmountBilled, c.AvgBilled)
		ratios[i] = c.BaseRatio
	}

	stats.WindowFallbacks = ClaimFrequency(claims, p.FrequencyWindowDays)

	patients := make(map[string]struct{})
	for i := range claims {
		c := &claims[i]
		patients[c.PatientID] = struct{}{}
		c.FreqPenalty = p.FreqPenalty(c.ClaimsLast60d)
		c.RawScore = c.BaseRatio * c.AgeRisk * c.StayPenalty * c.FreqPenalty
	}
	stats.Patients = len(patients)

	stats.MedianBaseRatio, _ = MedianBaseRatio(ratios)
	stats.Baseline = Baseline(ratios)
	for i := range claims {
		claims[i].FraudScore = NormalizeScore(claims[i].RawScore, stats.Baseline)
	}
	return claims, stats
}

// Score scores records with the default parameters.
func Score(records []model.ClaimRecord) []model.ScoredClaim {
	claims, _ := NewScorer(DefaultParams()).Score(records)
	return claims
}

// SortClaims orders claims by patient_id, then date_admitted with missing
// dates last, then source row.
func SortClaims(claims []model.ScoredClaim) {
	sort.SliceStable(claims, func(i, j int) bool {
		a, b := &claims[i], &claims[j]
		if a.PatientID != b.PatientID {
			return a.PatientID < b.PatientID
		}
		da, db := a.DateAdmitted, b.DateAdmitted
		switch {
		case da != nil && db != nil && !da.Equal(*db):
			return da.Before(*db)
		case da != nil && db == nil:
			return true
		case da == nil && db != nil:
			return false
		}
		return a.SourceRow < b.SourceRow
	})
}
