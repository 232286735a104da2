package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gyeh/claimscore/internal/model"
	embedsql "github.com/gyeh/claimscore/internal/sql"
)

// SQLiteStore is the default file-backed Store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite wraps an open, migrated SQLite handle.
func NewSQLite(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Replace deletes every claim and inserts the new batch inside one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, run model.RunInfo, claims []model.ScoredClaim) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM claims"); err != nil {
		return fmt.Errorf("clear claims: %w", err)
	}

	cols := model.ClaimColumns()
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO claims (%s) VALUES (%s)",
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
	))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range claims {
		if _, err := stmt.ExecContext(ctx, sqliteArgs(&claims[i])...); err != nil {
			return fmt.Errorf("insert claim row %d: %w", claims[i].SourceRow, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scoring_runs (run_id, source_file, source_sha256, rows_scored, high_risk, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID.String(), run.SourceFile, run.SourceSHA256, run.RowsScored, run.HighRisk, run.ScoredAt.UTC(),
	); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return tx.Commit()
}

// Session acquires a dedicated connection from the pool.
func (s *SQLiteStore) Session(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &sqliteSession{conn: conn}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteArgs renders dates as ISO calendar days so they sort and compare as text.
func sqliteArgs(c *model.ScoredClaim) []any {
	vals := c.Values()
	vals[4] = isoDate(c.DateAdmitted)
	vals[5] = isoDate(c.DateDischarged)
	return vals
}

func isoDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.DateOnly)
}

type sqliteSession struct {
	conn *sql.Conn
}

func (s *sqliteSession) Close() error {
	return s.conn.Close()
}

func (s *sqliteSession) Summary(ctx context.Context) (*model.DatasetSummary, error) {
	sum := &model.DatasetSummary{Distribution: newDistribution()}
	if err := s.conn.QueryRowContext(ctx, embedsql.Summary).Scan(&sum.Total, &sum.AvgAmount, &sum.HighRisk); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, embedsql.Distribution)
	if err != nil {
		return nil, fmt.Errorf("distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bucket string
		var n int64
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		sum.Distribution[bucket] = n
	}
	return sum, rows.Err()
}

func (s *sqliteSession) Search(ctx context.Context, query string, page int) (*model.ClaimPage, error) {
	query = strings.TrimSpace(query)
	page, offset := normalizePage(page)

	where := ""
	var args []any
	if query != "" {
		where = ` WHERE diagnosis LIKE ? ESCAPE '\' OR patient_id LIKE ? ESCAPE '\'`
		p := likePattern(query)
		args = append(args, p, p)
	}

	out := &model.ClaimPage{Query: query, Page: page, Claims: []model.ScoredClaim{}}
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM claims"+where, args...).Scan(&out.Total); err != nil {
		return nil, fmt.Errorf("count claims: %w", err)
	}
	out.TotalPages = totalPages(out.Total)

	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+selectList()+" FROM claims"+where+orderBy+" LIMIT ? OFFSET ?",
		append(args, PageSize, offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanSQLiteClaim(rows)
		if err != nil {
			return nil, err
		}
		out.Claims = append(out.Claims, c)
	}
	return out, rows.Err()
}

func (s *sqliteSession) LatestRun(ctx context.Context) (*model.RunInfo, error) {
	var run model.RunInfo
	var id string
	err := s.conn.QueryRowContext(ctx,
		`SELECT run_id, source_file, source_sha256, rows_scored, high_risk, scored_at
		 FROM scoring_runs ORDER BY scored_at DESC LIMIT 1`,
	).Scan(&id, &run.SourceFile, &run.SourceSHA256, &run.RowsScored, &run.HighRisk, &run.ScoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	if err := run.RunID.UnmarshalText([]byte(id)); err != nil {
		return nil, fmt.Errorf("parse run id %q: %w", id, err)
	}
	return &run, nil
}

func scanSQLiteClaim(rows *sql.Rows) (model.ScoredClaim, error) {
	var c model.ScoredClaim
	var admitted, discharged sql.NullString
	err := rows.Scan(
		&c.SourceRow, &c.PatientID, &c.Age, &c.Gender, &admitted, &discharged,
		&c.Diagnosis, &c.AmountBilled, &c.FraudType, &c.LengthOfStay, &c.AvgBilled,
		&c.BaseRatio, &c.AgeRisk, &c.StayPenalty, &c.ClaimsLast60d, &c.FreqPenalty,
		&c.RawScore, &c.FraudScore,
	)
	if err != nil {
		return c, fmt.Errorf("scan claim: %w", err)
	}
	c.DateAdmitted = parseISODate(admitted)
	c.DateDischarged = parseISODate(discharged)
	return c, nil
}

func parseISODate(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s.String)
	if err != nil {
		return nil
	}
	return &t
}
