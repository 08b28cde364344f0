package mocks

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// FileSystem is a thread-safe in-memory test double for ports.FileSystem.
type FileSystem struct {
	mu     sync.RWMutex
	files  map[string][]byte
	modes  map[string]os.FileMode
	dirs   map[string]bool
	failOn map[string]error
	writes []string
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files:  make(map[string][]byte),
		modes:  make(map[string]os.FileMode),
		dirs:   make(map[string]bool),
		failOn: make(map[string]error),
	}
}

// AddFile adds a file to the mock filesystem.
func (fs *FileSystem) AddFile(path string, content string) {
	fs.SetFileContent(path, []byte(content))
}

// SetFileContent sets file content directly as bytes.
func (fs *FileSystem) SetFileContent(path string, content []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[path] = content
	fs.modes[path] = 0o644
}

// AddDir adds a directory to the mock filesystem.
func (fs *FileSystem) AddDir(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[path] = true
}

// FailWrites makes every write to path return err.
func (fs *FileSystem) FailWrites(path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failOn[path] = err
}

// Mode returns the recorded permissions of path.
func (fs *FileSystem) Mode(path string) os.FileMode {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.modes[path]
}

// Writes returns the paths written, in order.
func (fs *FileSystem) Writes() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]string, len(fs.writes))
	copy(out, fs.writes)
	return out
}

// Files returns all file paths, sorted.
func (fs *FileSystem) Files() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]string, 0, len(fs.files))
	for p := range fs.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ReadFile reads a file from the mock filesystem.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if content, ok := fs.files[path]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
}

// WriteFile writes a file to the mock filesystem.
func (fs *FileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.store(path, data, perm)
}

func (fs *FileSystem) store(p string, data []byte, perm os.FileMode) error {
	if err, ok := fs.failOn[p]; ok {
		return err
	}
	fs.files[p] = append([]byte(nil), data...)
	fs.modes[p] = perm
	fs.writes = append(fs.writes, p)
	return nil
}

// Create returns a writer whose content is committed on Close.
func (fs *FileSystem) Create(path string, perm os.FileMode) (io.WriteCloser, error) {
	fs.mu.RLock()
	err := fs.failOn[path]
	fs.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return &pendingFile{fs: fs, path: path, perm: perm}, nil
}

type pendingFile struct {
	fs   *FileSystem
	path string
	perm os.FileMode
	buf  bytes.Buffer
}

func (f *pendingFile) Write(p []byte) (int, error) {
	return f.buf.Write(p)
}

func (f *pendingFile) Close() error {
	return f.fs.WriteFile(f.path, f.buf.Bytes(), f.perm)
}

// Exists checks if a file or directory exists in the mock filesystem.
func (fs *FileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, fileExists := fs.files[path]
	return fileExists || fs.dirs[path]
}

// IsDir checks if a path is a directory in the mock filesystem.
func (fs *FileSystem) IsDir(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.dirs[path]
}

// MkdirAll creates a directory and its parents in the mock filesystem.
func (fs *FileSystem) MkdirAll(p string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for dir := path.Clean(p); dir != "/" && dir != "."; dir = path.Dir(dir) {
		if _, isFile := fs.files[dir]; isFile {
			return fmt.Errorf("mkdir %s: not a directory", dir)
		}
		if !fs.dirs[dir] {
			fs.dirs[dir] = true
			fs.modes[dir] = perm | os.ModeDir
		}
	}
	return nil
}

// Remove removes a file or an empty directory.
func (fs *FileSystem) Remove(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.files[p]; ok {
		delete(fs.files, p)
		delete(fs.modes, p)
		return nil
	}
	if fs.dirs[p] {
		prefix := strings.TrimSuffix(p, "/") + "/"
		for f := range fs.files {
			if strings.HasPrefix(f, prefix) {
				return fmt.Errorf("remove %s: directory not empty", p)
			}
		}
		delete(fs.dirs, p)
		delete(fs.modes, p)
		return nil
	}
	return &os.PathError{Op: "remove", Path: p, Err: os.ErrNotExist}
}

// Rename renames a file in the mock filesystem.
func (fs *FileSystem) Rename(oldPath, newPath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	content, ok := fs.files[oldPath]
	if !ok {
		return &os.PathError{Op: "rename", Path: oldPath, Err: os.ErrNotExist}
	}
	fs.files[newPath] = content
	fs.modes[newPath] = fs.modes[oldPath]
	delete(fs.files, oldPath)
	delete(fs.modes, oldPath)
	return nil
}

// Chmod changes the recorded mode of path.
func (fs *FileSystem) Chmod(path string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.files[path]; !ok && !fs.dirs[path] {
		return &os.PathError{Op: "chmod", Path: path, Err: os.ErrNotExist}
	}
	fs.modes[path] = perm
	return nil
}

// FileHash returns the hex SHA-256 of a file in the mock filesystem.
func (fs *FileSystem) FileHash(path string) (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	content, ok := fs.files[path]
	if !ok {
		return "", &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:]), nil
}

// GetFileInfo returns metadata about a path in the mock filesystem.
func (fs *FileSystem) GetFileInfo(path string) (ports.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if content, ok := fs.files[path]; ok {
		return ports.FileInfo{
			Size:    int64(len(content)),
			Mode:    fs.modes[path],
			ModTime: time.Now(),
		}, nil
	}

	if fs.dirs[path] {
		return ports.FileInfo{
			Mode:    fs.modes[path],
			ModTime: time.Now(),
			IsDir:   true,
		}, nil
	}

	return ports.FileInfo{}, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
}

// Reset clears all files and directories.
func (fs *FileSystem) Reset() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files = make(map[string][]byte)
	fs.modes = make(map[string]os.FileMode)
	fs.dirs = make(map[string]bool)
	fs.failOn = make(map[string]error)
	fs.writes = nil
}

var _ ports.FileSystem = (*FileSystem)(nil)
