package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

const (
	uniqueViolation = "23505"
	duplicateSchema = "42P06"
)

// ErrDuplicateSlug is returned when a tenant slug is already taken.
var ErrDuplicateSlug = errors.New("tenant slug already exists")

// PoolOptions tunes the database/sql pool.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the global catalog database. driver is "pgx" for the
// jackc/pgx stdlib adapter or "postgres" for lib/pq.
func Open(ctx context.Context, driver, dsn string, opts PoolOptions) (*sql.DB, error) {
	var db *sql.DB
	switch driver {
	case "pgx":
		config, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		db = stdlib.OpenDB(*config)
	case "postgres":
		var err error
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// qualified quotes a schema-scoped table name. Embedded quotes are escaped.
func qualified(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

// sqlState returns the SQLSTATE carried by err from either supported
// driver, or "" when there is none.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isUniqueViolation reports whether err is a unique constraint failure.
func isUniqueViolation(err error) bool {
	return sqlState(err) == uniqueViolation
}

// isDuplicateSchema reports whether err is a CREATE SCHEMA on an existing schema.
func isDuplicateSchema(err error) bool {
	return sqlState(err) == duplicateSchema
}
