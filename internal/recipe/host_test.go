package recipe_test

import (
	"path"
	"strings"
	"sync"

	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/recipe"
	"github.com/felixgeelhaar/stashprov/internal/testutil/mocks"
)

// fakeHost answers the recipe's commands from an in-memory host model, so a
// second run observes what the first one changed.
type fakeHost struct {
	fs      *mocks.FileSystem
	runner  *mocks.CommandRunner
	fetcher *mocks.Fetcher
	db      *mocks.DatabaseServer

	mu        sync.Mutex
	installed map[string]bool
	users     map[string]bool
	owners    map[string]string
	enabled   bool
	restarts  int
}

func newFakeHost() *fakeHost {
	h := &fakeHost{
		fs:        mocks.NewFileSystem(),
		runner:    mocks.NewCommandRunner(),
		fetcher:   mocks.NewFetcher(),
		db:        mocks.NewDatabaseServer(),
		installed: make(map[string]bool),
		users:     make(map[string]bool),
		owners:    make(map[string]string),
	}

	h.fs.AddDir("/etc/rc2.d")

	// sha256 of the empty payload is the builder's default checksum.
	h.fetcher.Serve("http://www.atlassian.com/software/stash/downloads/binary/atlassian-stash-2.0.3.tar.gz", []byte{})
	h.fetcher.Serve("http://cdn.mysql.com/Downloads/Connector-J/mysql-connector-java-5.1.22.tar.gz", []byte("connector"))

	h.runner.AddHandler("dpkg-query", h.dpkgQuery)
	h.runner.AddHandler("env", h.aptGet)
	h.runner.AddHandler("mysqladmin", ok)
	h.runner.AddHandler("getent", h.getent)
	h.runner.AddHandler("useradd", h.useradd)
	h.runner.AddHandler("/usr/lib/jvm/default-java/bin/keytool", h.keytool)
	h.runner.AddHandler("chown", h.chown)
	h.runner.AddHandler("stat", h.stat)
	h.runner.AddHandler("tar", ok)
	h.runner.AddHandler("mv", h.mv)
	h.runner.AddHandler("find", h.find)
	h.runner.AddHandler("update-rc.d", h.enable)
	h.runner.AddHandler("/etc/init.d/stash", h.service)
	return h
}

func (h *fakeHost) ports() recipe.Host {
	return recipe.Host{Runner: h.runner, FS: h.fs, Fetcher: h.fetcher, Database: h.db}
}

func (h *fakeHost) Restarts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.restarts
}

func ok([]string) (ports.CommandResult, error) {
	return ports.CommandResult{}, nil
}

func (h *fakeHost) dpkgQuery(args []string) (ports.CommandResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.installed[args[len(args)-1]] {
		return ports.CommandResult{Stdout: "installed"}, nil
	}
	return ports.CommandResult{ExitCode: 1, Stderr: "dpkg-query: no packages found"}, nil
}

func (h *fakeHost) aptGet(args []string) (ports.CommandResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.installed[args[len(args)-1]] = true
	return ports.CommandResult{}, nil
}

func (h *fakeHost) getent(args []string) (ports.CommandResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[args[1]] {
		return ports.CommandResult{Stdout: args[1] + ":x:999:999::/home:/bin/bash"}, nil
	}
	return ports.CommandResult{ExitCode: 2}, nil
}

func (h *fakeHost) useradd(args []string) (ports.CommandResult, error) {
	h.mu.Lock()
	h.users[args[len(args)-1]] = true
	h.mu.Unlock()
	for i, a := range args {
		if a == "--home-dir" {
			h.fs.AddDir(args[i+1])
		}
	}
	return ports.CommandResult{}, nil
}

func (h *fakeHost) keytool(args []string) (ports.CommandResult, error) {
	h.fs.AddFile(args[len(args)-1], "keystore")
	return ports.CommandResult{}, nil
}

func (h *fakeHost) chown(args []string) (ports.CommandResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	owner, _, _ := strings.Cut(args[len(args)-2], ":")
	h.owners[args[len(args)-1]] = owner
	return ports.CommandResult{}, nil
}

func (h *fakeHost) stat(args []string) (ports.CommandResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	owner, found := h.owners[args[len(args)-1]]
	if !found {
		owner = "root"
	}
	return ports.CommandResult{Stdout: owner + "\n"}, nil
}

func (h *fakeHost) mv(args []string) (ports.CommandResult, error) {
	src, dest := args[0], args[1]
	if h.fs.IsDir(dest) {
		h.fs.AddFile(path.Join(dest, path.Base(src)), "jar")
		return ports.CommandResult{}, nil
	}
	h.fs.AddDir(dest)
	h.fs.AddFile(path.Join(dest, "atlassian-stash.war"), "war")
	return ports.CommandResult{}, nil
}

func (h *fakeHost) find([]string) (ports.CommandResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.enabled {
		return ports.CommandResult{Stdout: "/etc/rc2.d/S20stash\n"}, nil
	}
	return ports.CommandResult{}, nil
}

func (h *fakeHost) enable([]string) (ports.CommandResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = true
	return ports.CommandResult{}, nil
}

func (h *fakeHost) service(args []string) (ports.CommandResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if args[0] == "restart" {
		h.restarts++
	}
	return ports.CommandResult{}, nil
}
