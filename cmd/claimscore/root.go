package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/claimscore/internal/config"
	"github.com/gyeh/claimscore/internal/exitcode"
	"github.com/gyeh/claimscore/internal/ingest"
	"github.com/gyeh/claimscore/internal/logging"
	"github.com/gyeh/claimscore/internal/normalize"
	"github.com/gyeh/claimscore/internal/source"
	"github.com/gyeh/claimscore/internal/store"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "claimscore",
	Short: "Healthcare claim fraud scoring",
	Long: "Reads a CSV or Parquet file of healthcare claims, assigns each claim a fraud-risk score " +
		"from 0 to 100, stores the scored dataset in SQLite or Postgres and serves a read-only report.",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.Driver, "driver", cfg.Driver, "Store driver: sqlite or postgres")
	pf.StringVar(&cfg.DBPath, "db", envOr("CLAIMSCORE_DB_PATH", cfg.DBPath), "SQLite database file (or set CLAIMSCORE_DB_PATH)")
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("CLAIMSCORE_DB_URL"), "Postgres connection string (or set CLAIMSCORE_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger() zerolog.Logger {
	return logging.Setup(cfg.LogFormat, cfg.LogLevel)
}

// openStore connects to the configured store or exits the process.
func openStore(ctx context.Context, log zerolog.Logger) store.Store {
	if err := cfg.ValidateStore(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	st, err := store.Open(ctx, &cfg, log)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Driver).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	return st
}

// exitCodeFor maps a pipeline failure to the process exit code.
func exitCodeFor(err error) int {
	var nf *source.SourceNotFoundError
	if errors.As(err, &nf) {
		return exitcode.SourceNotFound
	}
	var se *normalize.SchemaError
	if errors.As(err, &se) {
		return exitcode.SchemaError
	}
	var pe *ingest.PipelineError
	if errors.As(err, &pe) {
		switch pe.Phase {
		case ingest.PhasePreflight:
			// Unparseable input file.
			return exitcode.SchemaError
		case ingest.PhaseScore:
			return exitcode.ScoreError
		case ingest.PhaseWrite:
			return exitcode.WriteError
		case ingest.PhaseExport:
			return exitcode.ExportError
		}
	}
	return exitcode.ScoreError
}

// logPipelineError logs err with its phase when it has one.
func logPipelineError(log zerolog.Logger, err error, msg string) {
	ev := log.Error()
	var pe *ingest.PipelineError
	if errors.As(err, &pe) {
		ev = ev.Str("phase", pe.Phase)
		err = pe.Err
	}
	var se *normalize.SchemaError
	if errors.As(err, &se) {
		ev = ev.Strs("missing", se.Missing).Strs("headers", se.Headers)
	}
	ev.Err(err).Msg(msg)
}
