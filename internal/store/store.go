// Package store persists scored claim datasets and serves the read-only
// reporting queries over them.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimscore/internal/config"
	"github.com/gyeh/claimscore/internal/db"
	"github.com/gyeh/claimscore/internal/model"
)

// PageSize is the fixed listing page size.
const PageSize = 10

// ErrNoRuns is returned by LatestRun before any dataset has been written.
var ErrNoRuns = errors.New("no scoring runs recorded")

// Store owns the persisted claims dataset.
type Store interface {
	// Replace supersedes the whole dataset with claims in one transaction and
	// records run. On error the previous dataset is left untouched.
	Replace(ctx context.Context, run model.RunInfo, claims []model.ScoredClaim) error
	// Session acquires a scoped connection for read queries. Callers must
	// Close it.
	Session(ctx context.Context) (Session, error)
	Close() error
}

// Session is a read-only view bound to one acquired connection.
type Session interface {
	Summary(ctx context.Context) (*model.DatasetSummary, error)
	Search(ctx context.Context, query string, page int) (*model.ClaimPage, error)
	LatestRun(ctx context.Context) (*model.RunInfo, error)
	Close() error
}

// Open connects to the configured backend and applies its migrations.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.ApplyMigrations(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgres(pool), nil
	case config.DriverSQLite, "":
		sqlDB, err := db.OpenSQLite(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := db.ApplySQLiteMigrations(ctx, sqlDB, log); err != nil {
			sqlDB.Close()
			return nil, err
		}
		return NewSQLite(sqlDB), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a user query into a substring LIKE pattern with
// wildcards in the query escaped.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// normalizePage clamps page to >= 1 and returns the row offset.
func normalizePage(page int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * PageSize
}

func totalPages(total int64) int {
	pages := int((total + PageSize - 1) / PageSize)
	if pages < 1 {
		return 1
	}
	return pages
}

func newDistribution() map[string]int64 {
	return map[string]int64{
		model.BucketLow:    0,
		model.BucketMedium: 0,
		model.BucketHigh:   0,
	}
}

func selectList() string {
	return strings.Join(model.ClaimColumns(), ", ")
}

// orderBy puts missing admission dates last on both backends.
const orderBy = " ORDER BY fraud_score DESC, patient_id, date_admitted IS NULL, date_admitted, source_row"
