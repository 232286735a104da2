package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/claimscore/internal/scoring"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultDBPath is where the SQLite dataset lives unless overridden.
const DefaultDBPath = "db/claims.db"

// Config holds all runtime configuration for a claimscore run.
type Config struct {
	Driver      string // "sqlite" or "postgres"
	DBPath      string // SQLite file
	DSN         string // Postgres connection string
	FilePath    string
	ExportPath  string // optional Parquet export of the scored table
	ScoringFile string
	LogFormat   string // "text" or "json"
	LogLevel    string
	Addr        string
	DryRun      bool
	Scoring     scoring.Params
}

// yamlConfig is the on-disk YAML structure. Absent keys keep their defaults.
type yamlConfig struct {
	Scoring scoring.Params `yaml:"scoring"`
}

// New returns a Config with default scoring parameters and SQLite storage.
func New() Config {
	return Config{
		Driver:    DriverSQLite,
		DBPath:    DefaultDBPath,
		LogFormat: "text",
		LogLevel:  "info",
		Scoring:   scoring.DefaultParams(),
	}
}

// LoadScoringFile reads a YAML file and merges its scoring section over the
// current parameters.
func (c *Config) LoadScoringFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	yc := yamlConfig{Scoring: c.Scoring}
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if err := yc.Scoring.Validate(); err != nil {
		return fmt.Errorf("invalid scoring config: %w", err)
	}
	c.Scoring = yc.Scoring
	return nil
}

// Validate checks the input file and scoring parameters.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if c.ScoringFile != "" {
		if err := c.LoadScoringFile(c.ScoringFile); err != nil {
			return err
		}
	}
	return c.Scoring.Validate()
}

// ValidateStore checks that the selected driver has what it needs to connect.
func (c *Config) ValidateStore() error {
	switch c.Driver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("--db is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("--dsn or CLAIMSCORE_DB_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, DriverSQLite, DriverPostgres)
	}
	return nil
}
