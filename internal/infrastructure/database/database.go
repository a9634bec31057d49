package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a private in-memory database. It lives as long as the
// DB's single pooled connection, so the pool never recycles it.
const MemoryPath = ":memory:"

const (
	dirPermissions  = 0750
	filePermissions = 0600

	// pingTimeout caps the connectivity check in Open.
	pingTimeout = 5 * time.Second

	// fileConnLifetime recycles the file-backed connection hourly.
	fileConnLifetime = time.Hour
)

// DB is the catalogue, inventory and audit store.
type DB struct {
	*sql.DB
	path string
}

// Config maps the database section of config.yaml.
type Config struct {
	// Path is the SQLite file, created with its directory when missing.
	// MemoryPath selects an in-memory database.
	Path string

	// WALMode lets API reads proceed while a write is in flight.
	WALMode bool

	// BusyTimeout is how long (seconds) a statement waits for a lock.
	BusyTimeout int
}

func (c Config) dsn() string {
	if c.Path == MemoryPath {
		return "file::memory:?_foreign_keys=on"
	}
	// See: https://github.com/mattn/go-sqlite3#connection-string
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		c.Path, c.BusyTimeout*int(time.Second/time.Millisecond))
	if c.WALMode {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return dsn
}

// Open connects to the database described by cfg and verifies it answers.
// Foreign keys are always enforced: sensors reference their sensor type.
//
// SQLite has one writer, so the pool holds a single connection; callers
// never see "database is locked" from their own process.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("opening database: empty path")
	}

	inMemory := cfg.Path == MemoryPath
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if inMemory {
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetConnMaxLifetime(fileConnLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	if !inMemory {
		_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // file may appear on first write
	}
	return &DB{DB: sqlDB, path: cfg.Path}, nil
}

// OpenMigrated opens the database and applies every pending migration in
// src. The connection is closed again if migrating fails.
func OpenMigrated(ctx context.Context, cfg Config, src fs.FS) (*DB, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, src); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection. Calling it on a closed or zero DB is safe.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the configured database path.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck runs a trivial query.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// SchemaVersion returns the newest applied migration version, or "" for
// an unmigrated database.
func (db *DB) SchemaVersion(ctx context.Context) (string, error) {
	if err := db.createMigrationsTable(ctx); err != nil {
		return "", fmt.Errorf("creating migrations table: %w", err)
	}
	var version sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return "", fmt.Errorf("reading schema version: %w", err)
	}
	return version.String, nil
}
