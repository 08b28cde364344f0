package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// DialFunc opens the network connection to the database server.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

const defaultPingTimeout = 5 * time.Second

// tunnelNetPrefix starts the go-sql-driver/mysql network names bound to dialers.
const tunnelNetPrefix = "stashprov-tunnel-"

// Opener connects to MySQL or PostgreSQL servers.
type Opener struct {
	dial        DialFunc
	tunnelNet   string
	pingTimeout time.Duration
}

// NewOpener creates an Opener using direct TCP connections.
func NewOpener() *Opener {
	return &Opener{pingTimeout: defaultPingTimeout}
}

// WithDialer returns an Opener that reaches servers through dial, e.g. an SSH tunnel.
// The MySQL driver only resolves dialers by network name, so each Opener
// registers dial once under a name of its own.
func (o *Opener) WithDialer(dial DialFunc) *Opener {
	clone := *o
	clone.dial = dial
	clone.tunnelNet = tunnelNetPrefix + uuid.NewString()
	mysql.RegisterDialContext(clone.tunnelNet, func(ctx context.Context, addr string) (net.Conn, error) {
		return dial(ctx, "tcp", addr)
	})
	return &clone
}

// Open connects and pings the server.
func (o *Opener) Open(ctx context.Context, conn ports.DatabaseConnection) (ports.DatabaseAdmin, error) {
	var (
		db  *sql.DB
		err error
	)
	switch conn.Vendor {
	case "mysql":
		db, err = o.openMySQL(conn)
	case "postgresql":
		db, err = o.openPostgres(conn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVendor, conn.Vendor)
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s at %s: %w", conn.Vendor, address(conn), err)
	}

	return NewAdmin(db, conn.Vendor)
}

// MySQLConfig builds the driver configuration for conn.
func MySQLConfig(conn ports.DatabaseConnection) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = conn.Username
	cfg.Passwd = conn.Password
	cfg.Net = "tcp"
	cfg.Addr = address(conn)
	cfg.DBName = conn.Database
	cfg.Timeout = defaultPingTimeout
	return cfg
}

func (o *Opener) openMySQL(conn ports.DatabaseConnection) (*sql.DB, error) {
	cfg := MySQLConfig(conn)
	if o.tunnelNet != "" {
		cfg.Net = o.tunnelNet
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure mysql: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// PostgresConfig builds the pgx configuration for conn.
func PostgresConfig(conn ports.DatabaseConnection) (*pgx.ConnConfig, error) {
	database := conn.Database
	if database == "" {
		database = "postgres"
	}
	cfg, err := pgx.ParseConfig("sslmode=prefer")
	if err != nil {
		return nil, fmt.Errorf("configure postgresql: %w", err)
	}
	cfg.Host = conn.Host
	cfg.Port = uint16(conn.Port)
	cfg.User = conn.Username
	cfg.Password = conn.Password
	cfg.Database = database
	cfg.ConnectTimeout = defaultPingTimeout
	for _, fb := range cfg.Fallbacks {
		fb.Host = conn.Host
		fb.Port = uint16(conn.Port)
	}
	return cfg, nil
}

func (o *Opener) openPostgres(conn ports.DatabaseConnection) (*sql.DB, error) {
	cfg, err := PostgresConfig(conn)
	if err != nil {
		return nil, err
	}
	if o.dial != nil {
		cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return o.dial(ctx, network, addr)
		}
	}
	return stdlib.OpenDB(*cfg), nil
}

func address(conn ports.DatabaseConnection) string {
	return net.JoinHostPort(conn.Host, strconv.Itoa(conn.Port))
}

var _ ports.DatabaseOpener = (*Opener)(nil)
