package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/claimscore/internal/sql"
)

type migration struct {
	name string
	ddl  string
}

// loadMigrations returns the embedded migrations for dialect in filename order.
func loadMigrations(dialect string) ([]migration, error) {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(embedsql.Migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename to ensure correct ordering.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := fs.ReadFile(embedsql.Migrations, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		out = append(out, migration{name: entry.Name(), ddl: string(data)})
	}
	return out, nil
}

// ApplyMigrations runs all embedded Postgres migrations in filename order.
// All DDL uses IF NOT EXISTS so migrations are idempotent.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	migrations, err := loadMigrations("postgres")
	if err != nil {
		return err
	}
	for _, m := range migrations {
		log.Info().Str("migration", m.name).Msg("applying migration")
		if _, err := pool.Exec(ctx, m.ddl); err != nil {
			return fmt.Errorf("execute migration %s: %w", m.name, err)
		}
	}
	log.Info().Int("count", len(migrations)).Msg("all migrations applied")
	return nil
}

// ApplySQLiteMigrations runs all embedded SQLite migrations in filename order.
func ApplySQLiteMigrations(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	migrations, err := loadMigrations("sqlite")
	if err != nil {
		return err
	}
	for _, m := range migrations {
		log.Debug().Str("migration", m.name).Msg("applying migration")
		if _, err := db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("execute migration %s: %w", m.name, err)
		}
	}
	log.Debug().Int("count", len(migrations)).Msg("all migrations applied")
	return nil
}
