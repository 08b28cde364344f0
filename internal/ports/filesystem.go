package ports

import (
	"io"
	"os"
	"time"
)

// FileInfo contains file metadata.
type FileInfo struct {
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
	IsDir   bool
}

// FileSystem provides file operations on the target host.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	// Create opens path for writing, truncating any existing content.
	Create(path string, perm os.FileMode) (io.WriteCloser, error)
	Exists(path string) bool
	IsDir(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	Chmod(path string, perm os.FileMode) error
	FileHash(path string) (string, error)
	GetFileInfo(path string) (FileInfo, error)
}
