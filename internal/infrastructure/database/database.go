package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// File and connection settings for the alarm journal.
const (
	// dirPermissions is applied to a data directory Open has to create.
	dirPermissions = 0750

	// filePermissions keeps the journal readable by its owner only.
	filePermissions = 0600

	// openPingTimeout bounds the ping Open uses to verify the file.
	openPingTimeout = 5 * time.Second
)

// DB is the SQLite handle for the alarm journal.
//
// It embeds *sql.DB so repositories run queries on it directly, and adds
// schema migration (Migrate) and a health probe for the API.
type DB struct {
	*sql.DB
	path string
}

// Config contains database configuration options.
// These map to the database section of config.yaml.
type Config struct {
	// Path is the SQLite file. Missing parent directories are created.
	Path string

	// WALMode lets "antitheft alarms" read the journal while a running
	// monitor is writing to it.
	WALMode bool

	// BusyTimeout is how long, in seconds, a writer waits for the lock
	// held by another process before failing with "database is locked".
	BusyTimeout int
}

// Open opens, and if necessary creates, the journal file.
//
// It performs the following setup:
//  1. Creates the parent directory of cfg.Path
//  2. Opens the file with the busy timeout and, when enabled, WAL journaling
//  3. Limits the pool to one connection, since SQLite has a single writer
//  4. Pings the file and restricts its permissions to 0600
//
// Parameters:
//   - ctx: Bounds the verification ping together with an internal timeout
//   - cfg: Path and locking options from the database section
//
// Returns:
//   - *DB: Open journal; call Migrate before using the alarms table
//   - error: If the path is empty, the directory cannot be created or the
//     file cannot be opened
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("opening database: path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Path, err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, openPingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database %s: %w", cfg.Path, err)
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // File may not exist until first write

	return &DB{DB: sqlDB, path: cfg.Path}, nil
}

// dsn builds the go-sqlite3 connection string for cfg.
// See: https://github.com/mattn/go-sqlite3#connection-string
func dsn(cfg Config) string {
	busy := time.Duration(cfg.BusyTimeout) * time.Second
	s := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", cfg.Path, busy.Milliseconds())
	if cfg.WALMode {
		s += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return s
}

// Close closes the journal. Closing a zero DB is a no-op.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database %s: %w", db.path, err)
	}
	return nil
}

// Path returns the journal file path.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck runs a trivial query against the journal. The API health
// endpoint reports the result under "database".
//
// Returns:
//   - error: nil if the file answers, otherwise the query failure
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database %s: %w", db.path, err)
	}
	return nil
}
