// Package sqlstore provides the transaction manager and the context-aware
// executor shared by all SQL repositories.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/port"
)

type contextKey string

const txKey contextKey = "tx"

// Dialect selects placeholder syntax
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// DialectFor maps a database/sql driver name to its dialect
func DialectFor(driver string) Dialect {
	if driver == "pgx" || driver == "postgres" {
		return DialectPostgres
	}
	return DialectSQLite
}

// Executor covers both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB wraps sql.DB and implements port.TransactionManager
type DB struct {
	*sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewDB creates a new database wrapper
func NewDB(sqlDB *sql.DB, dialect Dialect, logger *zap.Logger) *DB {
	return &DB{
		DB:      sqlDB,
		dialect: dialect,
		logger:  logger,
	}
}

// Dialect returns the placeholder dialect
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// WithTransaction runs fn inside a transaction carried by the context.
// Nested calls reuse the outer transaction.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := extractTx(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func extractTx(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// Executor returns the transaction from ctx, or the database.
// Queries are written with '?' placeholders and rebound for the dialect.
func (db *DB) Executor(ctx context.Context) Executor {
	var exec Executor = db.DB
	if tx := extractTx(ctx); tx != nil {
		exec = tx
	}
	if db.dialect == DialectSQLite {
		return exec
	}
	return &rebindExecutor{exec: exec}
}

type rebindExecutor struct {
	exec Executor
}

func (r *rebindExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return r.exec.ExecContext(ctx, Rebind(query), args...)
}

func (r *rebindExecutor) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return r.exec.QueryContext(ctx, Rebind(query), args...)
}

func (r *rebindExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.exec.QueryRowContext(ctx, Rebind(query), args...)
}

// Rebind replaces '?' placeholders with $1, $2, ...
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Placeholders returns "?, ?, ..." with n markers
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var _ port.TransactionManager = (*DB)(nil)
