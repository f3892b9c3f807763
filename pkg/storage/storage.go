// Package storage opens the relational database that backs the blog post
// snapshot. SQLite (mattn/go-sqlite3) and Postgres (lib/pq) are supported
// through bun dialects.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	ErrDriverUnsupported = errors.New("storage: unsupported driver")
	ErrDSNRequired       = errors.New("storage: dsn required")
)

// Config selects a driver and data source.
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// NormalizeDriver maps driver aliases onto the registered sql driver names.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return DriverSQLite
	case "postgres", "postgresql", "pg":
		return DriverPostgres
	default:
		return strings.ToLower(strings.TrimSpace(driver))
	}
}

// Open connects to cfg and wraps the handle with the matching bun dialect.
func Open(cfg Config) (*bun.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, ErrDSNRequired
	}
	driver := NormalizeDriver(cfg.Driver)

	var db *bun.DB
	switch driver {
	case DriverSQLite:
		sqldb, err := sql.Open(DriverSQLite, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err := sql.Open(DriverPostgres, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("%w: %q", ErrDriverUnsupported, cfg.Driver)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return db, nil
}
