package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Dialect selects the SQL flavour of the traffic store.
type Dialect string

const (
	DIALECT_POSTGRES Dialect = "postgres"
	DIALECT_SQLITE   Dialect = "sqlite"
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "postgresql":
		return DIALECT_POSTGRES, nil
	case "sqlite", "sqlite3":
		return DIALECT_SQLITE, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS traffic_logs (
  id BIGSERIAL PRIMARY KEY,
  date DATE NOT NULL,
  time TIME NOT NULL,
  count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_traffic_logs_date_time ON traffic_logs(date, time);
CREATE TABLE IF NOT EXISTS daily_metas (
  id BIGSERIAL PRIMARY KEY,
  date DATE NOT NULL UNIQUE,
  target_count INTEGER NOT NULL CHECK (target_count >= 0)
);
CREATE TABLE IF NOT EXISTS execution_logs (
  id TEXT PRIMARY KEY,
  execution_type TEXT NOT NULL,
  command TEXT NOT NULL,
  date DATE NOT NULL,
  time TIME NOT NULL
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS traffic_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  date TEXT NOT NULL,
  time TEXT NOT NULL,
  count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_traffic_logs_date_time ON traffic_logs(date, time);
CREATE TABLE IF NOT EXISTS daily_metas (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  date TEXT NOT NULL UNIQUE,
  target_count INTEGER NOT NULL CHECK (target_count >= 0)
);
CREATE TABLE IF NOT EXISTS execution_logs (
  id TEXT PRIMARY KEY,
  execution_type TEXT NOT NULL,
  command TEXT NOT NULL,
  date TEXT NOT NULL,
  time TEXT NOT NULL
);
`

// Migrate creates the traffic_logs, daily_metas and execution_logs tables.
func Migrate(ctx context.Context, conn *sql.DB, dialect Dialect) error {
	schema := sqliteSchema
	if dialect == DIALECT_POSTGRES {
		schema = postgresSchema
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate %s schema: %w", dialect, err)
	}
	return nil
}
