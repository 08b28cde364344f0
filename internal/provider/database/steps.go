package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/commandutil"
	"github.com/felixgeelhaar/stashprov/internal/validation"
)

// withAdmin opens an admin session, runs fn and closes the session.
func withAdmin(ctx context.Context, opener ports.DatabaseOpener, conn ports.DatabaseConnection, fn func(ports.DatabaseAdmin) error) (err error) {
	admin, err := opener.Open(ctx, conn)
	if err != nil {
		return fmt.Errorf("connect to %s as %s: %w", conn.Vendor, conn.Username, err)
	}
	defer func() {
		if cerr := admin.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(admin)
}

// AdminPasswordStep sets the superuser password of a freshly installed server.
type AdminPasswordStep struct {
	vendor config.Vendor
	conn   ports.DatabaseConnection
	id     compiler.StepID
	opener ports.DatabaseOpener
	runner ports.CommandRunner
}

// NewAdminPasswordStep creates a new AdminPasswordStep.
func NewAdminPasswordStep(vendor config.Vendor, conn ports.DatabaseConnection, opener ports.DatabaseOpener, runner ports.CommandRunner) *AdminPasswordStep {
	return &AdminPasswordStep{
		vendor: vendor,
		conn:   conn,
		id:     compiler.MustNewStepID("database:admin-password:" + vendor.String()),
		opener: opener,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *AdminPasswordStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *AdminPasswordStep) DependsOn() []compiler.StepID {
	return []compiler.StepID{serverPackageStep(s.vendor)}
}

// Guard limits the step to a local database server.
func (s *AdminPasswordStep) Guard() compiler.Guard {
	return compiler.GuardDatabaseLocal
}

// Check is satisfied once the superuser can log in with the configured password.
func (s *AdminPasswordStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	err := withAdmin(ctx.Context(), s.opener, s.conn, func(ports.DatabaseAdmin) error { return nil })
	if err != nil {
		return compiler.StatusNeedsApply, nil
	}
	return compiler.StatusSatisfied, nil
}

// Plan returns the diff for this step.
func (s *AdminPasswordStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeModify, "database-login", s.conn.Username, "", s.conn.Password).Sensitive(), nil
}

// Apply sets the password with the vendor's own client tools.
func (s *AdminPasswordStep) Apply(ctx compiler.RunContext) error {
	if s.conn.Password == "" {
		return fmt.Errorf("no %s password configured for %s", s.vendor, s.conn.Username)
	}
	if err := validation.ValidateSingleLine(s.conn.Password); err != nil {
		return err
	}

	var err error
	switch s.vendor {
	case config.VendorMySQL:
		_, err = commandutil.Run(ctx.Context(), s.runner, "mysqladmin", "-u", s.conn.Username, "password", s.conn.Password)
	case config.VendorPostgreSQL:
		stmt := fmt.Sprintf("ALTER ROLE %s WITH PASSWORD '%s'", s.conn.Username, strings.ReplaceAll(s.conn.Password, "'", "''"))
		_, err = commandutil.Run(ctx.Context(), s.runner, "sudo", "-u", s.conn.Username, "psql", "-q", "-c", stmt)
	default:
		err = fmt.Errorf("unsupported vendor %q", s.vendor)
	}
	if err != nil {
		return fmt.Errorf("set %s password: %w", s.conn.Username, err)
	}
	return nil
}

// Explain provides a human-readable explanation.
func (s *AdminPasswordStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Secure database superuser",
		fmt.Sprintf("Sets the %s password of the local %s server so the recipe can administer it.", s.conn.Username, s.vendor),
		nil,
	).WithCondition(compiler.GuardDatabaseLocal.Description())
}

// CreateDatabaseStep creates the application database.
type CreateDatabaseStep struct {
	spec   ports.DatabaseSpec
	conn   ports.DatabaseConnection
	id     compiler.StepID
	after  compiler.StepID
	opener ports.DatabaseOpener
}

// NewCreateDatabaseStep creates a new CreateDatabaseStep.
func NewCreateDatabaseStep(spec ports.DatabaseSpec, conn ports.DatabaseConnection, opener ports.DatabaseOpener, after compiler.StepID) *CreateDatabaseStep {
	return &CreateDatabaseStep{
		spec:   spec,
		conn:   conn,
		id:     compiler.MustNewStepID("database:create:" + spec.Name),
		after:  after,
		opener: opener,
	}
}

// ID returns the step identifier.
func (s *CreateDatabaseStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *CreateDatabaseStep) DependsOn() []compiler.StepID {
	return dependsOn(s.after)
}

// Guard limits the step to a local database server.
func (s *CreateDatabaseStep) Guard() compiler.Guard {
	return compiler.GuardDatabaseLocal
}

// Check determines if the database exists.
func (s *CreateDatabaseStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	var exists bool
	err := withAdmin(ctx.Context(), s.opener, s.conn, func(admin ports.DatabaseAdmin) error {
		var err error
		exists, err = admin.DatabaseExists(ctx.Context(), s.spec.Name)
		return err
	})
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if exists {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *CreateDatabaseStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "database", s.spec.Name, "", s.conn.Vendor), nil
}

// Apply creates the database.
func (s *CreateDatabaseStep) Apply(ctx compiler.RunContext) error {
	if err := validation.ValidateDatabaseName(s.spec.Name); err != nil {
		return err
	}
	return withAdmin(ctx.Context(), s.opener, s.conn, func(admin ports.DatabaseAdmin) error {
		return admin.CreateDatabase(ctx.Context(), s.spec)
	})
}

// Explain provides a human-readable explanation.
func (s *CreateDatabaseStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	detail := fmt.Sprintf("Creates the %s database with %s encoding", s.spec.Name, s.spec.Encoding)
	if s.spec.Collation != "" {
		detail += " and " + s.spec.Collation + " collation"
	}
	return compiler.NewExplanation("Create application database", detail+".", nil).
		WithCondition(compiler.GuardDatabaseLocal.Description())
}

// CreateUserStep creates the application's database login.
type CreateUserStep struct {
	user   ports.DatabaseUserSpec
	conn   ports.DatabaseConnection
	id     compiler.StepID
	after  compiler.StepID
	opener ports.DatabaseOpener
}

// NewCreateUserStep creates a new CreateUserStep.
func NewCreateUserStep(user ports.DatabaseUserSpec, conn ports.DatabaseConnection, opener ports.DatabaseOpener, after compiler.StepID) *CreateUserStep {
	return &CreateUserStep{
		user:   user,
		conn:   conn,
		id:     compiler.MustNewStepID("database:user:" + user.Name),
		after:  after,
		opener: opener,
	}
}

// ID returns the step identifier.
func (s *CreateUserStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *CreateUserStep) DependsOn() []compiler.StepID {
	return dependsOn(s.after)
}

// Guard limits the step to a local database server.
func (s *CreateUserStep) Guard() compiler.Guard {
	return compiler.GuardDatabaseLocal
}

// Check determines if the login exists.
func (s *CreateUserStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	var exists bool
	err := withAdmin(ctx.Context(), s.opener, s.conn, func(admin ports.DatabaseAdmin) error {
		var err error
		exists, err = admin.UserExists(ctx.Context(), s.user)
		return err
	})
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if exists {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *CreateUserStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "database-user", s.user.Name, "", s.conn.Vendor), nil
}

// Apply creates the login.
func (s *CreateUserStep) Apply(ctx compiler.RunContext) error {
	if err := validation.ValidateDatabaseName(s.user.Name); err != nil {
		return err
	}
	return withAdmin(ctx.Context(), s.opener, s.conn, func(admin ports.DatabaseAdmin) error {
		return admin.CreateUser(ctx.Context(), s.user)
	})
}

// Explain provides a human-readable explanation.
func (s *CreateUserStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Create database user",
		fmt.Sprintf("Creates the %s login Stash uses to reach the %s database.", s.user.Name, s.user.Database),
		nil,
	).WithCondition(compiler.GuardDatabaseLocal.Description())
}

// GrantStep grants the login all privileges on the application database.
type GrantStep struct {
	user   ports.DatabaseUserSpec
	conn   ports.DatabaseConnection
	id     compiler.StepID
	after  compiler.StepID
	opener ports.DatabaseOpener
}

// GrantStepID identifies the grant of database to user.
func GrantStepID(user, database string) compiler.StepID {
	return compiler.MustNewStepID("database:grant:" + user + "@" + database)
}

// NewGrantStep creates a new GrantStep.
func NewGrantStep(user ports.DatabaseUserSpec, conn ports.DatabaseConnection, opener ports.DatabaseOpener, after compiler.StepID) *GrantStep {
	return &GrantStep{
		user:   user,
		conn:   conn,
		id:     GrantStepID(user.Name, user.Database),
		after:  after,
		opener: opener,
	}
}

// ID returns the step identifier.
func (s *GrantStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *GrantStep) DependsOn() []compiler.StepID {
	return dependsOn(s.after)
}

// Guard limits the step to a local database server.
func (s *GrantStep) Guard() compiler.Guard {
	return compiler.GuardDatabaseLocal
}

// Check determines if the grant is in place.
func (s *GrantStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	var granted bool
	err := withAdmin(ctx.Context(), s.opener, s.conn, func(admin ports.DatabaseAdmin) error {
		var err error
		granted, err = admin.HasGrant(ctx.Context(), s.user)
		return err
	})
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if granted {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *GrantStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "grant", s.user.Name+"@"+s.user.Database, "", "ALL PRIVILEGES"), nil
}

// Apply grants the privileges.
func (s *GrantStep) Apply(ctx compiler.RunContext) error {
	return withAdmin(ctx.Context(), s.opener, s.conn, func(admin ports.DatabaseAdmin) error {
		return admin.Grant(ctx.Context(), s.user)
	})
}

// Explain provides a human-readable explanation.
func (s *GrantStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Grant database privileges",
		fmt.Sprintf("Grants %s all privileges on %s.", s.user.Name, s.user.Database),
		nil,
	).WithCondition(compiler.GuardDatabaseLocal.Description())
}

func dependsOn(id compiler.StepID) []compiler.StepID {
	if id.IsZero() {
		return nil
	}
	return []compiler.StepID{id}
}

var (
	_ compiler.GuardedStep = (*AdminPasswordStep)(nil)
	_ compiler.GuardedStep = (*CreateDatabaseStep)(nil)
	_ compiler.GuardedStep = (*CreateUserStep)(nil)
	_ compiler.GuardedStep = (*GrantStep)(nil)
)
