package ports

import "context"

// DatabaseConnection describes how to reach a database server.
type DatabaseConnection struct {
	Vendor   string
	Host     string
	Port     int
	Username string
	Password string
	// Database is the database to connect to. Empty selects the server default.
	Database string
}

// DatabaseSpec is the declared state of an application database.
type DatabaseSpec struct {
	Name      string
	Encoding  string
	Collation string
	// ConnectionLimit of -1 means unlimited. Ignored by vendors without the concept.
	ConnectionLimit int
}

// DatabaseUserSpec is the declared state of a database login and its grant.
type DatabaseUserSpec struct {
	Name     string
	Password string
	// Host restricts where the user may connect from. Ignored by vendors without the concept.
	Host     string
	Database string
}

// DatabaseAdmin performs administrative operations on a database server.
type DatabaseAdmin interface {
	DatabaseExists(ctx context.Context, name string) (bool, error)
	CreateDatabase(ctx context.Context, spec DatabaseSpec) error
	UserExists(ctx context.Context, user DatabaseUserSpec) (bool, error)
	CreateUser(ctx context.Context, user DatabaseUserSpec) error
	HasGrant(ctx context.Context, user DatabaseUserSpec) (bool, error)
	Grant(ctx context.Context, user DatabaseUserSpec) error
	// Count runs a query returning a single integer. Placeholders are written as '?'.
	Count(ctx context.Context, query string, args ...any) (int, error)
	// Exec runs a statement. Placeholders are written as '?'.
	Exec(ctx context.Context, query string, args ...any) error
	Close() error
}

// DatabaseOpener connects to a database server.
type DatabaseOpener interface {
	Open(ctx context.Context, conn DatabaseConnection) (DatabaseAdmin, error)
}
