package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

func stashUser(host string) ports.DatabaseUserSpec {
	return ports.DatabaseUserSpec{Name: "stash", Password: "it's-secret", Host: host, Database: "stash"}
}

func TestMySQLDialect(t *testing.T) {
	d := mysqlDialect{}

	assert.Equal(t,
		"CREATE DATABASE IF NOT EXISTS `stash` CHARACTER SET utf8 COLLATE utf8_bin",
		d.CreateDatabase(ports.DatabaseSpec{Name: "stash", Encoding: "utf8", Collation: "utf8_bin"}))
	assert.Equal(t,
		`CREATE USER 'stash'@'%' IDENTIFIED BY 'it''s-secret'`,
		d.CreateUser(stashUser("")))
	assert.Equal(t,
		"GRANT ALL PRIVILEGES ON `stash`.* TO 'stash'@'%'",
		d.Grant(stashUser("%")))

	q, args := d.HasGrant(stashUser("%"))
	assert.Contains(t, q, "SCHEMA_PRIVILEGES")
	assert.Equal(t, []any{"'stash'@'%'", "stash"}, args)

	_, args = d.UserExists(stashUser("10.0.0.%"))
	assert.Equal(t, []any{"stash", "10.0.0.%"}, args)
}

func TestMySQLDialect_EscapesIdentifiersAndLiterals(t *testing.T) {
	d := mysqlDialect{}
	assert.Equal(t, "`we``ird`", d.ident("we`ird"))
	assert.Equal(t, `'a\\b'`, d.literal(`a\b`))
}

func TestPostgresDialect(t *testing.T) {
	d := postgresDialect{}

	assert.Equal(t,
		`CREATE DATABASE "stash" TEMPLATE template0 ENCODING 'utf8' CONNECTION LIMIT -1`,
		d.CreateDatabase(ports.DatabaseSpec{Name: "stash", Encoding: "utf8", ConnectionLimit: -1}))
	assert.Equal(t,
		`CREATE ROLE "stash" WITH LOGIN PASSWORD 'it''s-secret'`,
		d.CreateUser(stashUser("")))
	assert.Equal(t,
		`GRANT ALL PRIVILEGES ON DATABASE "stash" TO "stash"`,
		d.Grant(stashUser("")))

	q, args := d.HasGrant(stashUser(""))
	assert.Len(t, args, 4)
	assert.Contains(t, d.Rebind(q), "has_database_privilege(rolname, $4, 'TEMPORARY')")
}

func TestPostgresDialect_Rebind(t *testing.T) {
	d := postgresDialect{}

	tests := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT COUNT(*) FROM app_property WHERE prop_key = ?", "SELECT COUNT(*) FROM app_property WHERE prop_key = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT '?' , ?", "SELECT '?' , $1"},
		{`SELECT "col?" FROM t WHERE x = ?`, `SELECT "col?" FROM t WHERE x = $1`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.Rebind(tt.in))
	}
}

func TestDialectFor(t *testing.T) {
	d, err := dialectFor("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "postgresql", d.Name())

	_, err = dialectFor("oracle")
	assert.True(t, errors.Is(err, ErrUnsupportedVendor))
}
