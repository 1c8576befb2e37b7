// Package container wires the statement service and its infrastructure,
// shared by the HTTP server and the CLI.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/kvdph/pkg/database"
)

// Config holds all configuration for the Container.
type Config struct {
	Database  DatabaseConfig
	Statement StatementConfig
	Server    ServerConfig
	Version   string
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is sqlite3 or pgx
	Driver string

	// Path to the SQLite database file
	Path string

	// DSN is the PostgreSQL connection string
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// AutoMigrate applies pending migrations on start
	AutoMigrate bool
}

// StatementConfig holds generation and export settings.
type StatementConfig struct {
	DomesticPrefix string
	XMLNamespace   string

	// OutputDir receives a copy of every exported file. Empty disables it.
	OutputDir string

	// TraceDecisions logs every aggregation decision at debug level
	TraceDecisions bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          database.DriverSQLite,
			Path:            "data/kvdph.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Statement: StatementConfig{
			DomesticPrefix: "SK",
			OutputDir:      "generated_statements",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Version: "dev",
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverSQLite:
	case database.DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Statement.DomesticPrefix == "" {
		return fmt.Errorf("statement.domestic_prefix is required")
	}
	return nil
}
