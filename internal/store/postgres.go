package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/claimscore/internal/db"
	"github.com/gyeh/claimscore/internal/model"
	embedsql "github.com/gyeh/claimscore/internal/sql"
)

// PostgresStore keeps the dataset in Postgres and bulk-loads it with COPY.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a connected, migrated pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Replace deletes every claim and COPYs the new batch inside one transaction.
// DELETE rather than TRUNCATE keeps concurrent readers on the old snapshot
// until commit.
func (s *PostgresStore) Replace(ctx context.Context, run model.RunInfo, claims []model.ScoredClaim) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM claims"); err != nil {
		return fmt.Errorf("clear claims: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"claims"}, model.ClaimColumns(), db.NewClaimSource(claims))
	if err != nil {
		return fmt.Errorf("copy claims: %w", err)
	}
	if n != int64(len(claims)) {
		return fmt.Errorf("copy claims: wrote %d of %d rows", n, len(claims))
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO scoring_runs (run_id, source_file, source_sha256, rows_scored, high_risk, scored_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.RunID, run.SourceFile, run.SourceSHA256, run.RowsScored, run.HighRisk, run.ScoredAt,
	); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return tx.Commit(ctx)
}

// Session acquires one pooled connection for the caller.
func (s *PostgresStore) Session(ctx context.Context) (Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &pgSession{conn: conn}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type pgSession struct {
	conn *pgxpool.Conn
}

func (s *pgSession) Close() error {
	s.conn.Release()
	return nil
}

func (s *pgSession) Summary(ctx context.Context) (*model.DatasetSummary, error) {
	sum := &model.DatasetSummary{Distribution: newDistribution()}
	if err := s.conn.QueryRow(ctx, embedsql.Summary).Scan(&sum.Total, &sum.AvgAmount, &sum.HighRisk); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	rows, err := s.conn.Query(ctx, embedsql.Distribution)
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

func (s *pgSession) Search(ctx context.Context, query string, page int) (*model.ClaimPage, error) {
	query = strings.TrimSpace(query)
	page, offset := normalizePage(page)

	where := ""
	var args []any
	if query != "" {
		where = ` WHERE diagnosis ILIKE $1 ESCAPE '\' OR patient_id ILIKE $1 ESCAPE '\'`
		args = append(args, likePattern(query))
	}

	out := &model.ClaimPage{Query: query, Page: page, Claims: []model.ScoredClaim{}}
	if err := s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM claims"+where, args...).Scan(&out.Total); err != nil {
		return nil, fmt.Errorf("count claims: %w", err)
	}
	out.TotalPages = totalPages(out.Total)

	limitArgs := fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.conn.Query(ctx,
		"SELECT "+selectList()+" FROM claims"+where+orderBy+limitArgs,
		append(args, PageSize, offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.ScoredClaim
		err := rows.Scan(
			&c.SourceRow, &c.PatientID, &c.Age, &c.Gender, &c.DateAdmitted, &c.DateDischarged,
			&c.Diagnosis, &c.AmountBilled, &c.FraudType, &c.LengthOfStay, &c.AvgBilled,
			&c.BaseRatio, &c.AgeRisk, &c.StayPenalty, &c.ClaimsLast60d, &c.FreqPenalty,
			&c.RawScore, &c.FraudScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out.Claims = append(out.Claims, c)
	}
	return out, rows.Err()
}

func (s *pgSession) LatestRun(ctx context.Context) (*model.RunInfo, error) {
	var run model.RunInfo
	err := s.conn.QueryRow(ctx,
		`SELECT run_id, source_file, source_sha256, rows_scored, high_risk, scored_at
		 FROM scoring_runs ORDER BY scored_at DESC LIMIT 1`,
	).Scan(&run.RunID, &run.SourceFile, &run.SourceSHA256, &run.RowsScored, &run.HighRisk, &run.ScoredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &run, nil
}
