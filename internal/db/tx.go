package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hpungsan/pantry/internal/errors"
)

// Scope is a request transaction bound to one owner. Every per-user query
// is issued through a Scope and filters by its owner at the SQL level.
type Scope struct {
	tx    *sql.Tx
	owner string
}

// Owner returns the owner every query in this scope is restricted to.
func (s *Scope) Owner() string { return s.owner }

// WithTx runs fn inside a read-write transaction scoped to ownerID.
// The transaction commits only if fn returns nil; any error rolls it back.
func WithTx(ctx context.Context, database *sql.DB, ownerID string, fn func(*Scope) error) error {
	return withTx(ctx, database, ownerID, nil, fn)
}

// WithReadTx runs fn inside a read-only transaction scoped to ownerID.
func WithReadTx(ctx context.Context, database *sql.DB, ownerID string, fn func(*Scope) error) error {
	return withTx(ctx, database, ownerID, &sql.TxOptions{ReadOnly: true}, fn)
}

func withTx(ctx context.Context, database *sql.DB, ownerID string, opts *sql.TxOptions, fn func(*Scope) error) error {
	owner := strings.TrimSpace(ownerID)
	if owner == "" {
		return errors.NewValidation("owner_id", "is required")
	}

	tx, err := database.BeginTx(ctx, opts)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&Scope{tx: tx, owner: owner}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Savepoint runs fn inside a named savepoint. If fn fails, only the work done
// since the savepoint is undone and the enclosing transaction stays usable.
// fnErr is fn's own error; err reports a failure of the savepoint itself,
// after which the transaction must be abandoned. name must be a plain SQL
// identifier.
func (s *Scope) Savepoint(ctx context.Context, name string, fn func() error) (fnErr error, err error) {
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return nil, errors.NewInternal(err)
	}

	if fnErr := fn(); fnErr != nil {
		if _, err := s.tx.ExecContext(ctx, "ROLLBACK TO "+name); err != nil {
			return fnErr, errors.NewInternal(fmt.Errorf("rollback to savepoint %s: %w", name, err))
		}
		if _, err := s.tx.ExecContext(ctx, "RELEASE "+name); err != nil {
			return fnErr, errors.NewInternal(err)
		}
		return fnErr, nil
	}

	if _, err := s.tx.ExecContext(ctx, "RELEASE "+name); err != nil {
		return nil, errors.NewInternal(err)
	}
	return nil, nil
}

// placeholders returns "?, ?, ?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// stringArgs converts values to a []any for variadic query args.
func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
