// Package database administers MySQL and PostgreSQL servers through
// database/sql, using go-sql-driver/mysql and the pgx stdlib driver.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// ErrUnsupportedVendor is returned for vendors without a dialect.
var ErrUnsupportedVendor = errors.New("unsupported database vendor")

// Admin implements ports.DatabaseAdmin over a *sql.DB.
type Admin struct {
	db      *sql.DB
	dialect dialect
}

// NewAdmin wraps an open connection pool for vendor.
func NewAdmin(db *sql.DB, vendor string) (*Admin, error) {
	d, err := dialectFor(vendor)
	if err != nil {
		return nil, err
	}
	return &Admin{db: db, dialect: d}, nil
}

// DatabaseExists reports whether the named database exists.
func (a *Admin) DatabaseExists(ctx context.Context, name string) (bool, error) {
	n, err := a.Count(ctx, a.dialect.DatabaseExists(), name)
	return n > 0, err
}

// CreateDatabase creates the database.
func (a *Admin) CreateDatabase(ctx context.Context, spec ports.DatabaseSpec) error {
	return a.exec(ctx, a.dialect.CreateDatabase(spec))
}

// UserExists reports whether the login exists.
func (a *Admin) UserExists(ctx context.Context, user ports.DatabaseUserSpec) (bool, error) {
	q, args := a.dialect.UserExists(user)
	n, err := a.Count(ctx, q, args...)
	return n > 0, err
}

// CreateUser creates the login with its password.
func (a *Admin) CreateUser(ctx context.Context, user ports.DatabaseUserSpec) error {
	return a.exec(ctx, a.dialect.CreateUser(user))
}

// HasGrant reports whether the user holds privileges on its database.
func (a *Admin) HasGrant(ctx context.Context, user ports.DatabaseUserSpec) (bool, error) {
	q, args := a.dialect.HasGrant(user)
	n, err := a.Count(ctx, q, args...)
	return n > 0, err
}

// Grant gives the user all privileges on its database.
func (a *Admin) Grant(ctx context.Context, user ports.DatabaseUserSpec) error {
	return a.exec(ctx, a.dialect.Grant(user))
}

// Count runs a query returning a single integer.
func (a *Admin) Count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, a.dialect.Rebind(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s query: %w", a.dialect.Name(), err)
	}
	return n, nil
}

// Exec runs a statement.
func (a *Admin) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := a.db.ExecContext(ctx, a.dialect.Rebind(query), args...); err != nil {
		return fmt.Errorf("%s exec: %w", a.dialect.Name(), err)
	}
	return nil
}

// exec runs DDL, which never carries placeholders.
func (a *Admin) exec(ctx context.Context, stmt string) error {
	if _, err := a.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s exec: %w", a.dialect.Name(), err)
	}
	return nil
}

// Close closes the connection pool.
func (a *Admin) Close() error {
	return a.db.Close()
}

var _ ports.DatabaseAdmin = (*Admin)(nil)
