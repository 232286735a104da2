package scoring

import (
	"github.com/gyeh/claimscore/internal/model"
	"github.com/gyeh/claimscore/internal/normalize"
)

// LengthOfStay returns whole days between admission and discharge, floored at
// zero. Missing dates yield zero.
func LengthOfStay(c *model.ClaimRecord) int {
	if c.DateAdmitted == nil || c.DateDischarged == nil {
		return 0
	}
	if days := normalize.DaysBetween(*c.DateAdmitted, *c.DateDischarged); days > 0 {
		return days
	}
	return 0
}

// PeerBaselines computes the mean amount_billed per diagnosis over the whole
// batch. Diagnoses are matched exactly, case-sensitive.
func PeerBaselines(claims []model.ScoredClaim) map[string]float64 {
	type agg struct {
		sum float64
		n   int
	}
	groups := make(map[string]*agg)
	for i := range claims {
		g, ok := groups[claims[i].Diagnosis]
		if !ok {
			g = &agg{}
			groups[claims[i].Diagnosis] = g
		}
		g.sum += claims[i].AmountBilled
		g.n++
	}

	means := make(map[string]float64, len(groups))
	for diag, g := range groups {
		means[diag] = g.sum / float64(g.n)
	}
	return means
}

// BaseRatio is amount relative to its peer mean; a zero mean is replaced by 1.
func BaseRatio(amount, avg float64) float64 {
	if avg == 0 {
		avg = 1.0
	}
	return amount / avg
}

// AgeRisk is a step function on the high-age threshold.
func (p Params) AgeRisk(age int) float64 {
	if age >= p.HighAgeThreshold {
		return p.AgeRiskMultiplier
	}
	return 1.0
}

// StayPenalty is 1 + clip(los/LongStayDays, 0, MaxPenalty).
func (p Params) StayPenalty(los int) float64 {
	return 1 + clip(float64(los)/p.LongStayDays, 0, p.MaxPenalty)
}

// FreqPenalty is 1 + clip(claims/FrequencyDivisor, 0, MaxPenalty).
func (p Params) FreqPenalty(claims int) float64 {
	return 1 + clip(float64(claims)/p.FrequencyDivisor, 0, p.MaxPenalty)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
