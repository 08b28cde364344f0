package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Vendor identifies a supported database server product.
type Vendor string

const (
	// VendorMySQL is MySQL (or a compatible server).
	VendorMySQL Vendor = "mysql"
	// VendorPostgreSQL is PostgreSQL.
	VendorPostgreSQL Vendor = "postgresql"
	// VendorUnsupported marks a database type the recipe has no provider for.
	VendorUnsupported Vendor = ""
)

// ParseVendor maps a configured database type onto a Vendor.
// Unknown types yield VendorUnsupported.
func ParseVendor(dbType string) Vendor {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "mysql":
		return VendorMySQL
	case "postgresql", "postgres":
		return VendorPostgreSQL
	default:
		return VendorUnsupported
	}
}

// String returns the vendor name.
func (v Vendor) String() string {
	if v == VendorUnsupported {
		return "unsupported"
	}
	return string(v)
}

// Supported reports whether the vendor has a database provider.
func (v Vendor) Supported() bool {
	return v == VendorMySQL || v == VendorPostgreSQL
}

// DefaultPort returns the server's well-known port, or 0 if unsupported.
func (v Vendor) DefaultPort() int {
	switch v {
	case VendorMySQL:
		return 3306
	case VendorPostgreSQL:
		return 5432
	default:
		return 0
	}
}

// DatabaseProvider names the provider that manages databases for this vendor.
func (v Vendor) DatabaseProvider() string {
	if !v.Supported() {
		return ""
	}
	return "database/" + string(v)
}

// UserProvider names the provider that manages database users for this vendor.
func (v Vendor) UserProvider() string {
	if !v.Supported() {
		return ""
	}
	return "database_user/" + string(v)
}

// AdminUser is the superuser used to create the application database on a local server.
func (v Vendor) AdminUser() string {
	switch v {
	case VendorMySQL:
		return "root"
	case VendorPostgreSQL:
		return "postgres"
	default:
		return ""
	}
}

// ServerPackage is the OS package that installs a local database server.
func (v Vendor) ServerPackage() string {
	switch v {
	case VendorMySQL:
		return "mysql-server"
	case VendorPostgreSQL:
		return "postgresql"
	default:
		return ""
	}
}

// JDBCDriver is the driver class Stash loads for this vendor.
func (v Vendor) JDBCDriver() string {
	switch v {
	case VendorMySQL:
		return "com.mysql.jdbc.Driver"
	case VendorPostgreSQL:
		return "org.postgresql.Driver"
	default:
		return ""
	}
}

// JDBCURL builds the connection URL Stash uses to reach the database.
func (v Vendor) JDBCURL(host string, port int, name string) string {
	addr := host
	if port > 0 {
		addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
	switch v {
	case VendorMySQL:
		return fmt.Sprintf("jdbc:mysql://%s/%s?autoReconnect=true&characterEncoding=utf8&useUnicode=true&sessionVariables=storage_engine%%3DInnoDB", addr, name)
	case VendorPostgreSQL:
		return fmt.Sprintf("jdbc:postgresql://%s/%s", addr, name)
	default:
		return ""
	}
}
