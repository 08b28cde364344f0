// Package remote provisions a host over SSH: commands run in SSH sessions,
// files move over SFTP, and database connections are tunnelled through the
// same SSH connection.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
)

// ErrNoAuth is returned when neither a key file nor a password is configured.
var ErrNoAuth = errors.New("no SSH authentication method configured")

// Config describes how to reach the target host.
type Config struct {
	Host     string
	Port     int
	User     string
	KeyFile  string
	Password string
	// KnownHostsFile verifies the host key. Required unless InsecureSkipHostKey is set.
	KnownHostsFile      string
	InsecureSkipHostKey bool
	DialTimeout         time.Duration
}

// Address returns host:port.
func (c Config) Address() string {
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c Config) clientConfig() (*ssh.ClientConfig, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("ssh host cannot be empty")
	}
	if c.User == "" {
		return nil, fmt.Errorf("ssh user cannot be empty")
	}

	var auth []ssh.AuthMethod
	if c.KeyFile != "" {
		key, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if c.Password != "" {
		auth = append(auth, ssh.Password(c.Password))
	}
	if len(auth) == 0 {
		return nil, ErrNoAuth
	}

	hostKey, err := c.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	timeout := c.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}, nil
}

func (c Config) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.KnownHostsFile != "" {
		cb, err := knownhosts.New(c.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		return cb, nil
	}
	if c.InsecureSkipHostKey {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicitly requested with --insecure-host-key
	}
	return nil, fmt.Errorf("ssh: a known_hosts file is required to verify %s", c.Host)
}

// Client is an open SSH connection with an SFTP session on top of it.
type Client struct {
	host string
	ssh  *ssh.Client
	sftp *sftp.Client
}

// Dial connects to the host and opens the SFTP subsystem.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	clientCfg, err := cfg.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := cfg.Address()
	d := net.Dialer{Timeout: clientCfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(c, chans, reqs)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("open sftp session on %s: %w", cfg.Host, err)
	}

	return &Client{host: cfg.Host, ssh: sshClient, sftp: sftpClient}, nil
}

// Runner returns a command runner executing on the remote host.
func (c *Client) Runner() *Runner {
	return &Runner{sessions: c.ssh, host: c.host}
}

// FileSystem returns the remote file system.
func (c *Client) FileSystem() *FileSystem {
	return &FileSystem{client: c.sftp}
}

// DialContext opens a TCP connection from the remote host, so a database
// listening only on the host's loopback interface is reachable.
func (c *Client) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := c.ssh.Dial(network, addr)
		done <- result{conn, err}
	}()

	select {
	case r := <-done:
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Close closes the SFTP session and the SSH connection.
func (c *Client) Close() error {
	sftpErr := c.sftp.Close()
	sshErr := c.ssh.Close()
	return errors.Join(sftpErr, sshErr)
}
