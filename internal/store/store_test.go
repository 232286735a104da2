package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimscore/internal/config"
	"github.com/gyeh/claimscore/internal/model"
)

// ---------- helpers ----------

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	cfg := config.New()
	cfg.DBPath = filepath.Join(t.TempDir(), "nested", "claims.db")
	s, err := Open(context.Background(), &cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func datePtr(s string) *time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return &t
}

func makeClaim(row int64, patient, diag string, score int, amount float64) model.ScoredClaim {
	return model.ScoredClaim{
		ClaimRecord: model.ClaimRecord{
			SourceRow:      row,
			PatientID:      patient,
			Age:            40,
			Gender:         "F",
			DateAdmitted:   datePtr("2024-01-01"),
			DateDischarged: datePtr("2024-01-03"),
			Diagnosis:      diag,
			AmountBilled:   amount,
		},
		LengthOfStay:  2,
		AvgBilled:     amount,
		BaseRatio:     1,
		AgeRisk:       1,
		StayPenalty:   1 + 2.0/7,
		ClaimsLast60d: 1,
		FreqPenalty:   1.2,
		RawScore:      1.37,
		FraudScore:    score,
	}
}

func makeRun(rows int64) model.RunInfo {
	return model.RunInfo{
		RunID:      uuid.New(),
		SourceFile: "claims.csv",
		RowsScored: rows,
		ScoredAt:   time.Now().UTC().Truncate(time.Second),
	}
}

// fixtureClaims returns 23 claims: scores 0..22 * 4 (capped at 100), with a
// handful of recognizable diagnoses and patient ids.
func fixtureClaims() []model.ScoredClaim {
	var out []model.ScoredClaim
	for i := 0; i < 23; i++ {
		score := i * 5
		if score > 100 {
			score = 100
		}
		diag := "Flu"
		switch {
		case i%5 == 0:
			diag = "Heart Disease"
		case i%3 == 0:
			diag = "Broken_Arm"
		}
		out = append(out, makeClaim(int64(i+1), fmt.Sprintf("P%03d", i), diag, score, float64(100*(i+1))))
	}
	return out
}

// ---------- shared behaviour ----------

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("empty_dataset", func(t *testing.T) {
		sess, err := s.Session(ctx)
		if err != nil {
			t.Fatalf("session: %v", err)
		}
		defer sess.Close()

		sum, err := sess.Summary(ctx)
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if sum.Total != 0 || sum.AvgAmount != 0 || sum.HighRisk != 0 {
			t.Errorf("expected zero summary, got %+v", sum)
		}
		for _, b := range []string{model.BucketLow, model.BucketMedium, model.BucketHigh} {
			if v, ok := sum.Distribution[b]; !ok || v != 0 {
				t.Errorf("bucket %s: got %d (present=%v), want 0", b, v, ok)
			}
		}
		page, err := sess.Search(ctx, "", 1)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if page.TotalPages != 1 || len(page.Claims) != 0 {
			t.Errorf("empty search: got %+v", page)
		}
		if _, err := sess.LatestRun(ctx); err != ErrNoRuns {
			t.Errorf("LatestRun: got %v, want ErrNoRuns", err)
		}
	})

	claims := fixtureClaims()
	run := makeRun(int64(len(claims)))
	if err := s.Replace(ctx, run, claims); err != nil {
		t.Fatalf("replace: %v", err)
	}

	sess, err := s.Session(ctx)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer sess.Close()

	t.Run("summary", func(t *testing.T) {
		sum, err := sess.Summary(ctx)
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if sum.Total != 23 {
			t.Errorf("total: got %d, want 23", sum.Total)
		}
		// amounts 100..2300 -> mean 1200
		if sum.AvgAmount != 1200 {
			t.Errorf("avg amount: got %v, want 1200", sum.AvgAmount)
		}
		// scores 0,5,..,100,100,100: >75 are 80,85,90,95,100,100,100
		if sum.HighRisk != 7 {
			t.Errorf("high risk: got %d, want 7", sum.HighRisk)
		}
		want := map[string]int64{model.BucketLow: 6, model.BucketMedium: 10, model.BucketHigh: 7}
		for b, n := range want {
			if sum.Distribution[b] != n {
				t.Errorf("bucket %s: got %d, want %d", b, sum.Distribution[b], n)
			}
		}
	})

	t.Run("listing_order_and_pages", func(t *testing.T) {
		page, err := sess.Search(ctx, "", 1)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if page.Total != 23 || page.TotalPages != 3 {
			t.Errorf("total=%d pages=%d, want 23 and 3", page.Total, page.TotalPages)
		}
		if len(page.Claims) != PageSize {
			t.Fatalf("page size: got %d, want %d", len(page.Claims), PageSize)
		}
		for i := 1; i < len(page.Claims); i++ {
			if page.Claims[i-1].FraudScore < page.Claims[i].FraudScore {
				t.Errorf("not descending at %d: %d < %d", i, page.Claims[i-1].FraudScore, page.Claims[i].FraudScore)
			}
		}
		// ties at 100 break on patient_id
		if page.Claims[0].PatientID != "P020" {
			t.Errorf("first claim: got %s, want P020", page.Claims[0].PatientID)
		}

		last, err := sess.Search(ctx, "", 3)
		if err != nil {
			t.Fatalf("search page 3: %v", err)
		}
		if len(last.Claims) != 3 {
			t.Errorf("page 3: got %d claims, want 3", len(last.Claims))
		}
		beyond, err := sess.Search(ctx, "", 9)
		if err != nil {
			t.Fatalf("search page 9: %v", err)
		}
		if len(beyond.Claims) != 0 {
			t.Errorf("page 9: got %d claims, want 0", len(beyond.Claims))
		}
		clamped, err := sess.Search(ctx, "", -4)
		if err != nil {
			t.Fatalf("search page -4: %v", err)
		}
		if clamped.Page != 1 || len(clamped.Claims) != PageSize {
			t.Errorf("page -4 should clamp to 1, got page=%d n=%d", clamped.Page, len(clamped.Claims))
		}
	})

	t.Run("round_trip_fields", func(t *testing.T) {
		page, err := sess.Search(ctx, "P007", 1)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(page.Claims) != 1 {
			t.Fatalf("got %d claims, want 1", len(page.Claims))
		}
		got, want := page.Claims[0], claims[7]
		if got.DateAdmitted == nil || !got.DateAdmitted.Equal(*want.DateAdmitted) {
			t.Errorf("date_admitted: got %v, want %v", got.DateAdmitted, want.DateAdmitted)
		}
		if got.AmountBilled != want.AmountBilled || got.FraudScore != want.FraudScore ||
			got.StayPenalty != want.StayPenalty || got.ClaimsLast60d != want.ClaimsLast60d {
			t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
		}
	})

	t.Run("filter_case_insensitive", func(t *testing.T) {
		page, err := sess.Search(ctx, "heart", 1)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		// i = 0,5,10,15,20
		if page.Total != 5 {
			t.Errorf("heart: got %d, want 5", page.Total)
		}
		for _, c := range page.Claims {
			if c.Diagnosis != "Heart Disease" {
				t.Errorf("unexpected diagnosis %q", c.Diagnosis)
			}
		}
	})

	t.Run("filter_escapes_wildcards", func(t *testing.T) {
		page, err := sess.Search(ctx, "_", 1)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		// only Broken_Arm contains a literal underscore: i = 3,6,9,12,18,21
		if page.Total != 6 {
			t.Errorf("underscore: got %d, want 6", page.Total)
		}
		none, err := sess.Search(ctx, "%", 1)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if none.Total != 0 {
			t.Errorf("percent: got %d, want 0", none.Total)
		}
	})

	t.Run("latest_run", func(t *testing.T) {
		got, err := sess.LatestRun(ctx)
		if err != nil {
			t.Fatalf("latest run: %v", err)
		}
		if got.RunID != run.RunID || got.RowsScored != 23 || got.SourceFile != "claims.csv" {
			t.Errorf("latest run: got %+v, want %+v", got, run)
		}
	})

	t.Run("replace_supersedes", func(t *testing.T) {
		next := []model.ScoredClaim{makeClaim(1, "Z1", "Other", 90, 50)}
		if err := s.Replace(ctx, makeRun(1), next); err != nil {
			t.Fatalf("replace: %v", err)
		}
		sum, err := sess.Summary(ctx)
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if sum.Total != 1 || sum.HighRisk != 1 || sum.AvgAmount != 50 {
			t.Errorf("after replace: got %+v", sum)
		}
	})

	t.Run("failed_replace_keeps_previous", func(t *testing.T) {
		bad := []model.ScoredClaim{makeClaim(1, "Y1", "Other", 10, 5), makeClaim(2, "Y2", "Other", 500, 5)}
		if err := s.Replace(ctx, makeRun(2), bad); err == nil {
			t.Fatal("expected check constraint failure for score 500")
		}
		page, err := sess.Search(ctx, "", 1)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if page.Total != 1 || page.Claims[0].PatientID != "Z1" {
			t.Errorf("previous dataset not preserved: %+v", page)
		}
	})

	t.Run("replace_with_empty", func(t *testing.T) {
		if err := s.Replace(ctx, makeRun(0), nil); err != nil {
			t.Fatalf("replace: %v", err)
		}
		sum, err := sess.Summary(ctx)
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if sum.Total != 0 {
			t.Errorf("total: got %d, want 0", sum.Total)
		}
	})

	t.Run("missing_dates_sort_last", func(t *testing.T) {
		undated := makeClaim(1, "M1", "X", 50, 1)
		undated.DateAdmitted = nil
		later := makeClaim(2, "M1", "X", 50, 1)
		later.DateAdmitted = datePtr("2024-02-01")
		earlier := makeClaim(3, "M1", "X", 50, 1)
		earlier.DateAdmitted = datePtr("2024-01-15")
		if err := s.Replace(ctx, makeRun(3), []model.ScoredClaim{undated, later, earlier}); err != nil {
			t.Fatalf("replace: %v", err)
		}

		sess, err := s.Session(ctx)
		if err != nil {
			t.Fatalf("session: %v", err)
		}
		defer sess.Close()
		page, err := sess.Search(ctx, "", 1)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		want := []int64{3, 2, 1}
		if len(page.Claims) != len(want) {
			t.Fatalf("got %d claims, want %d", len(page.Claims), len(want))
		}
		for i, row := range want {
			if page.Claims[i].SourceRow != row {
				t.Errorf("position %d: got source_row %d, want %d", i, page.Claims[i].SourceRow, row)
			}
		}
	})
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, newSQLiteStore(t))
}

func TestSQLiteStore_NullDates(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	c := makeClaim(1, "N1", "X", 10, 1)
	c.DateAdmitted = nil
	c.DateDischarged = nil
	if err := s.Replace(ctx, makeRun(1), []model.ScoredClaim{c}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	sess, err := s.Session(ctx)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer sess.Close()
	page, err := sess.Search(ctx, "", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Claims[0].DateAdmitted != nil || page.Claims[0].DateDischarged != nil {
		t.Errorf("expected nil dates, got %v / %v", page.Claims[0].DateAdmitted, page.Claims[0].DateDischarged)
	}
}

func TestHelpers(t *testing.T) {
	if got := likePattern(`50%_a\b`); got != `%50\%\_a\\b%` {
		t.Errorf("likePattern: got %q", got)
	}
	cases := []struct {
		total int64
		want  int
	}{{0, 1}, {1, 1}, {10, 1}, {11, 2}, {100, 10}, {101, 11}}
	for _, tc := range cases {
		if got := totalPages(tc.total); got != tc.want {
			t.Errorf("totalPages(%d): got %d, want %d", tc.total, got, tc.want)
		}
	}
	if p, off := normalizePage(0); p != 1 || off != 0 {
		t.Errorf("normalizePage(0): got %d,%d", p, off)
	}
	if p, off := normalizePage(3); p != 3 || off != 20 {
		t.Errorf("normalizePage(3): got %d,%d", p, off)
	}
}
