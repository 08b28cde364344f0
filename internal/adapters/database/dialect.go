package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// dialect holds the vendor-specific administrative SQL.
// Identifiers are always quoted; DDL that cannot take bind parameters
// embeds passwords as escaped string literals.
type dialect interface {
	Name() string
	Rebind(query string) string
	DatabaseExists() string
	CreateDatabase(spec ports.DatabaseSpec) string
	UserExists(user ports.DatabaseUserSpec) (string, []any)
	CreateUser(user ports.DatabaseUserSpec) string
	HasGrant(user ports.DatabaseUserSpec) (string, []any)
	Grant(user ports.DatabaseUserSpec) string
}

func dialectFor(vendor string) (dialect, error) {
	switch vendor {
	case "mysql":
		return mysqlDialect{}, nil
	case "postgresql":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVendor, vendor)
	}
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) Rebind(query string) string { return query }

func (mysqlDialect) DatabaseExists() string {
	return "SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?"
}

func (d mysqlDialect) CreateDatabase(spec ports.DatabaseSpec) string {
	q := "CREATE DATABASE IF NOT EXISTS " + d.ident(spec.Name)
	if spec.Encoding != "" {
		q += " CHARACTER SET " + spec.Encoding
	}
	if spec.Collation != "" {
		q += " COLLATE " + spec.Collation
	}
	return q
}

func (mysqlDialect) UserExists(user ports.DatabaseUserSpec) (string, []any) {
	return "SELECT COUNT(*) FROM mysql.user WHERE User = ? AND Host = ?", []any{user.Name, mysqlHost(user)}
}

func (d mysqlDialect) CreateUser(user ports.DatabaseUserSpec) string {
	return fmt.Sprintf("CREATE USER %s IDENTIFIED BY %s", d.account(user), d.literal(user.Password))
}

func (d mysqlDialect) HasGrant(user ports.DatabaseUserSpec) (string, []any) {
	return "SELECT COUNT(*) FROM information_schema.SCHEMA_PRIVILEGES WHERE GRANTEE = ? AND TABLE_SCHEMA = ?",
		[]any{d.account(user), user.Database}
}

func (d mysqlDialect) Grant(user ports.DatabaseUserSpec) string {
	return fmt.Sprintf("GRANT ALL PRIVILEGES ON %s.* TO %s", d.ident(user.Database), d.account(user))
}

func (mysqlDialect) ident(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlDialect) literal(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (d mysqlDialect) account(user ports.DatabaseUserSpec) string {
	return d.literal(user.Name) + "@" + d.literal(mysqlHost(user))
}

func mysqlHost(user ports.DatabaseUserSpec) string {
	if user.Host == "" {
		return "%"
	}
	return user.Host
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgresql" }

// Rebind rewrites '?' placeholders to $1, $2, ... outside quoted text.
func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) DatabaseExists() string {
	return "SELECT COUNT(*) FROM pg_database WHERE datname = ?"
}

func (d postgresDialect) CreateDatabase(spec ports.DatabaseSpec) string {
	q := "CREATE DATABASE " + d.ident(spec.Name) + " TEMPLATE template0"
	if spec.Encoding != "" {
		q += " ENCODING " + d.literal(spec.Encoding)
	}
	if spec.ConnectionLimit != 0 {
		q += " CONNECTION LIMIT " + strconv.Itoa(spec.ConnectionLimit)
	}
	return q
}

func (postgresDialect) UserExists(user ports.DatabaseUserSpec) (string, []any) {
	return "SELECT COUNT(*) FROM pg_roles WHERE rolname = ?", []any{user.Name}
}

func (d postgresDialect) CreateUser(user ports.DatabaseUserSpec) string {
	return fmt.Sprintf("CREATE ROLE %s WITH LOGIN PASSWORD %s", d.ident(user.Name), d.literal(user.Password))
}

func (postgresDialect) HasGrant(user ports.DatabaseUserSpec) (string, []any) {
	return "SELECT COUNT(*) FROM pg_roles WHERE rolname = ? " +
			"AND has_database_privilege(rolname, ?, 'CREATE') " +
			"AND has_database_privilege(rolname, ?, 'CONNECT') " +
			"AND has_database_privilege(rolname, ?, 'TEMPORARY')",
		[]any{user.Name, user.Database, user.Database, user.Database}
}

func (d postgresDialect) Grant(user ports.DatabaseUserSpec) string {
	return fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", d.ident(user.Database), d.ident(user.Name))
}

func (postgresDialect) ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (postgresDialect) literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
