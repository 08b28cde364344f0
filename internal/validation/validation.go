// Package validation checks values from the configuration bundle before they
// reach a command line, a SQL statement or a rendered file.
package validation

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput          = errors.New("input cannot be empty")
	ErrInvalidPackageName  = errors.New("invalid package name")
	ErrInvalidUsername     = errors.New("invalid user name")
	ErrInvalidDatabaseName = errors.New("invalid database name")
	ErrPathTraversal       = errors.New("path traversal detected")
	ErrInvalidPath         = errors.New("invalid path")
	ErrCommandInjection    = errors.New("potential command injection detected")
	ErrInvalidHostname     = errors.New("invalid hostname")
	ErrNewlineInjection    = errors.New("newline injection detected")
)

var (
	// Debian package names, e.g. "mysql-server", "postgresql-9.1".
	packageNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.+-]+$`)

	// POSIX portable user names as accepted by useradd.
	usernameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]*\$?$`)

	// Unquoted-safe database and role names.
	databaseNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

	// DNS names and IPv4 literals; IPv6 literals are accepted separately.
	hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)*$`)

	shellMetaChars = ";|&$`(){}<>\n\r\\"
)

// ValidatePackageName validates an apt package name.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 256 {
		return fmt.Errorf("%w: name too long (max 256 characters)", ErrInvalidPackageName)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPackageName, name)
	}
	return nil
}

// ValidateUsername validates a system account name.
func ValidateUsername(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 32 {
		return fmt.Errorf("%w: %q is longer than 32 characters", ErrInvalidUsername, name)
	}
	if !usernameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, name)
	}
	return nil
}

// ValidateDatabaseName validates a database or database role name.
func ValidateDatabaseName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 63 {
		return fmt.Errorf("%w: %q is longer than 63 characters", ErrInvalidDatabaseName, name)
	}
	if !databaseNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidDatabaseName, name)
	}
	return nil
}

// ValidatePath requires an absolute path without traversal or shell metacharacters.
func ValidatePath(p string) error {
	if p == "" {
		return ErrEmptyInput
	}
	if strings.Contains(p, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}
	if !path.IsAbs(p) {
		return fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, p)
	}
	if containsPathTraversal(p) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, p)
	}
	if containsShellMeta(p) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, p)
	}
	return nil
}

// ValidatePathWithBase validates p and requires it to be below base.
func ValidatePathWithBase(p, base string) error {
	if err := ValidatePath(p); err != nil {
		return err
	}
	cleanBase := path.Clean(base)
	cleanPath := path.Clean(p)
	if cleanPath != cleanBase && !strings.HasPrefix(cleanPath, cleanBase+"/") {
		return fmt.Errorf("%w: path %q escapes base directory %q", ErrPathTraversal, p, base)
	}
	return nil
}

// ValidateHostname validates a host name or IP literal.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return ErrEmptyInput
	}
	if len(hostname) > 253 {
		return fmt.Errorf("%w: hostname too long", ErrInvalidHostname)
	}
	if strings.Contains(hostname, ":") && !containsShellMeta(hostname) && !strings.ContainsAny(hostname, " /") {
		return nil
	}
	if !hostnameRegex.MatchString(hostname) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidHostname, hostname)
	}
	return nil
}

// ValidateSingleLine rejects values that would break line-oriented files
// such as stash-config.properties or setenv.sh.
func ValidateSingleLine(value string) error {
	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("%w: value contains a line break", ErrNewlineInjection)
	}
	return nil
}

func containsShellMeta(s string) bool {
	return strings.ContainsAny(s, shellMetaChars)
}

func containsPathTraversal(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	lower := strings.ToLower(p)
	return strings.Contains(lower, "%2e%2e")
}
