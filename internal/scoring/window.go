package scoring

import (
	"errors"
	"sort"
	"time"

	"github.com/gyeh/claimscore/internal/model"
)

var errUnusableDates = errors.New("patient has claims without an admission date")

// ClaimFrequency fills ClaimsLast60d for every claim: the number of the same
// patient's claims admitted within the trailing window ending at (and
// including) the claim's own admission day. Patients whose dates cannot be
// windowed fall back to their total claim count in the batch.
// It reports how many patients took the fallback.
func ClaimFrequency(claims []model.ScoredClaim, windowDays int) (fallbacks int) {
	byPatient := make(map[string][]int)
	var order []string
	for i := range claims {
		id := claims[i].PatientID
		if _, ok := byPatient[id]; !ok {
			order = append(order, id)
		}
		byPatient[id] = append(byPatient[id], i)
	}

	for _, id := range order {
		idx := byPatient[id]
		counts, err := windowCounts(claims, idx, windowDays)
		if err != nil {
			fallbacks++
			for _, i := range idx {
				claims[i].ClaimsLast60d = len(idx)
			}
			continue
		}
		for k, i := range idx {
			claims[i].ClaimsLast60d = counts[k]
		}
	}
	return fallbacks
}

// windowCounts returns, for each index in idx (same order), the number of
// claims in idx admitted in [day - windowDays, day]. Claims sharing a day all
// count toward each other. Runs a two-pointer scan over the date-sorted group.
func windowCounts(claims []model.ScoredClaim, idx []int, windowDays int) ([]int, error) {
	type dated struct {
		pos int
		day time.Time
	}
	seq := make([]dated, len(idx))
	for k, i := range idx {
		d := claims[i].DateAdmitted
		if d == nil {
			return nil, errUnusableDates
		}
		seq[k] = dated{pos: k, day: *d}
	}
	sort.SliceStable(seq, func(a, b int) bool { return seq[a].day.Before(seq[b].day) })

	window := time.Duration(windowDays) * 24 * time.Hour
	counts := make([]int, len(idx))
	lo, hi := 0, 0
	for _, cur := range seq {
		for hi < len(seq) && !seq[hi].day.After(cur.day) {
			hi++
		}
		start := cur.day.Add(-window)
		for seq[lo].day.Before(start) {
			lo++
		}
		counts[cur.pos] = hi - lo
	}
	return counts, nil
}
