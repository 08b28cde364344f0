package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// DatabaseServer is an in-memory database server shared by the admins it opens.
type DatabaseServer struct {
	mu        sync.Mutex
	databases map[string]ports.DatabaseSpec
	users     map[string]ports.DatabaseUserSpec
	grants    map[string]bool
	counts    map[string]int
	execs     []string
	execErr   error
	openErr   error
	opened    []ports.DatabaseConnection
}

// NewDatabaseServer creates an empty server.
func NewDatabaseServer() *DatabaseServer {
	return &DatabaseServer{
		databases: make(map[string]ports.DatabaseSpec),
		users:     make(map[string]ports.DatabaseUserSpec),
		grants:    make(map[string]bool),
		counts:    make(map[string]int),
	}
}

// SetCount fixes the result of Count for query.
func (s *DatabaseServer) SetCount(query string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[query] = n
}

// FailExec makes every Exec return err.
func (s *DatabaseServer) FailExec(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execErr = err
}

// FailOpen makes Open return err.
func (s *DatabaseServer) FailOpen(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

// Database returns a created database.
func (s *DatabaseServer) Database(name string) (ports.DatabaseSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, ok := s.databases[name]
	return spec, ok
}

// Granted reports whether user holds all privileges on database.
func (s *DatabaseServer) Granted(user, database string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grants[user+"@"+database]
}

// Execs returns the statements passed to Exec.
func (s *DatabaseServer) Execs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.execs))
	copy(out, s.execs)
	return out
}

// Connections returns the connections opened so far.
func (s *DatabaseServer) Connections() []ports.DatabaseConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.DatabaseConnection, len(s.opened))
	copy(out, s.opened)
	return out
}

// Open implements ports.DatabaseOpener.
func (s *DatabaseServer) Open(ctx context.Context, conn ports.DatabaseConnection) (ports.DatabaseAdmin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.opened = append(s.opened, conn)
	return &databaseAdmin{server: s}, nil
}

type databaseAdmin struct {
	server *DatabaseServer
	closed bool
}

func (a *databaseAdmin) lock() (*DatabaseServer, error) {
	if a.closed {
		return nil, fmt.Errorf("database admin is closed")
	}
	a.server.mu.Lock()
	return a.server, nil
}

func (a *databaseAdmin) DatabaseExists(_ context.Context, name string) (bool, error) {
	s, err := a.lock()
	if err != nil {
		return false, err
	}
	defer s.mu.Unlock()
	_, ok := s.databases[name]
	return ok, nil
}

func (a *databaseAdmin) CreateDatabase(_ context.Context, spec ports.DatabaseSpec) error {
	s, err := a.lock()
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.databases[spec.Name] = spec
	return nil
}

func (a *databaseAdmin) UserExists(_ context.Context, user ports.DatabaseUserSpec) (bool, error) {
	s, err := a.lock()
	if err != nil {
		return false, err
	}
	defer s.mu.Unlock()
	_, ok := s.users[user.Name]
	return ok, nil
}

func (a *databaseAdmin) CreateUser(_ context.Context, user ports.DatabaseUserSpec) error {
	s, err := a.lock()
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.users[user.Name] = user
	return nil
}

func (a *databaseAdmin) HasGrant(_ context.Context, user ports.DatabaseUserSpec) (bool, error) {
	s, err := a.lock()
	if err != nil {
		return false, err
	}
	defer s.mu.Unlock()
	return s.grants[user.Name+"@"+user.Database], nil
}

func (a *databaseAdmin) Grant(_ context.Context, user ports.DatabaseUserSpec) error {
	s, err := a.lock()
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	if _, ok := s.users[user.Name]; !ok {
		return fmt.Errorf("grant: unknown user %s", user.Name)
	}
	s.grants[user.Name+"@"+user.Database] = true
	return nil
}

func (a *databaseAdmin) Count(_ context.Context, query string, _ ...any) (int, error) {
	s, err := a.lock()
	if err != nil {
		return 0, err
	}
	defer s.mu.Unlock()
	return s.counts[query], nil
}

func (a *databaseAdmin) Exec(_ context.Context, query string, _ ...any) error {
	s, err := a.lock()
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	if s.execErr != nil {
		return s.execErr
	}
	s.execs = append(s.execs, query)
	return nil
}

func (a *databaseAdmin) Close() error {
	a.closed = true
	return nil
}

var (
	_ ports.DatabaseOpener = (*DatabaseServer)(nil)
	_ ports.DatabaseAdmin  = (*databaseAdmin)(nil)
)
