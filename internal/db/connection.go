package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"railpulse/internal/config"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const driverName = "sqlite3"

//go:embed schema.sql
var schema string

type DatabaseOptions struct {
	ForeignKeysEnabled bool
	JournalMode        string
	BusyTimeout        int
	Synchronous        string
	CacheSize          int
}

func DefaultDatabaseOptions() DatabaseOptions {
	return DatabaseOptions{
		ForeignKeysEnabled: true,
		JournalMode:        "WAL", // for concurrency
		BusyTimeout:        5000,
		Synchronous:        "NORMAL",
		CacheSize:          20000,
	}
}

func buildDSN(dbPath string, opts DatabaseOptions) string {
	return fmt.Sprintf(
		"file:%s?_foreign_keys=%v&_journal_mode=%s&_busy_timeout=%d&_synchronous=%s&_cache_size=%d",
		dbPath,
		opts.ForeignKeysEnabled,
		opts.JournalMode,
		opts.BusyTimeout,
		opts.Synchronous,
		opts.CacheSize,
	)
}

// OpenDatabase opens (creating if needed) the station directory database and
// applies the embedded schema.
func OpenDatabase(dbCfg config.DatabaseConfig, opts DatabaseOptions, logger zerolog.Logger) (*sql.DB, error) {
	if err := ensureDataDirectory(dbCfg.Path); err != nil {
		return nil, err
	}

	dbConn, err := sql.Open(driverName, buildDSN(dbCfg.Path, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Str("path", dbCfg.Path).Msg("database opened")

	if err := applyMigrations(dbConn, logger); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	if err := verifyJournalMode(dbConn, logger); err != nil {
		logger.Warn().Err(err).Msg("journal mode check failed")
	}

	configureConnectionPool(dbConn, dbCfg, logger)
	return dbConn, nil
}

func ensureDataDirectory(dbPath string) error {
	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func configureConnectionPool(dbConn *sql.DB, dbCfg config.DatabaseConfig, logger zerolog.Logger) {
	dbConn.SetMaxOpenConns(dbCfg.MaxOpenConnections)
	dbConn.SetMaxIdleConns(dbCfg.MaxIdleConnections)
	dbConn.SetConnMaxLifetime(dbCfg.ConnectionMaxLifetime)
	dbConn.SetConnMaxIdleTime(dbCfg.ConnectionMaxIdleTime)

	logger.Debug().
		Int("max_open", dbCfg.MaxOpenConnections).
		Int("max_idle", dbCfg.MaxIdleConnections).
		Dur("max_lifetime", dbCfg.ConnectionMaxLifetime).
		Dur("max_idle_time", dbCfg.ConnectionMaxIdleTime).
		Msg("connection pool configured")
}

func applyMigrations(dbConn *sql.DB, logger zerolog.Logger) error {
	if _, err := dbConn.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	logger.Debug().Msg("migrations applied successfully")
	return nil
}

func verifyJournalMode(dbConn *sql.DB, logger zerolog.Logger) error {
	var journalMode string
	if err := dbConn.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}
	logger.Debug().Str("journal_mode", journalMode).Msg("journal mode")
	return nil
}
