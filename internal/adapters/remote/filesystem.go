package remote

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/sftp"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// FileSystem implements ports.FileSystem over SFTP.
type FileSystem struct {
	client *sftp.Client
}

// ReadFile reads a remote file.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	f, err := fs.client.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// WriteFile writes a remote file and applies perm.
func (fs *FileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := fs.client.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return fs.client.Chmod(path, perm)
}

// Create opens a remote file for writing. perm is applied on Close.
func (fs *FileSystem) Create(path string, perm os.FileMode) (io.WriteCloser, error) {
	f, err := fs.client.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		return nil, err
	}
	return &remoteFile{File: f, client: fs.client, path: path, perm: perm}, nil
}

type remoteFile struct {
	*sftp.File
	client *sftp.Client
	path   string
	perm   os.FileMode
}

func (f *remoteFile) Close() error {
	if err := f.File.Close(); err != nil {
		return err
	}
	return f.client.Chmod(f.path, f.perm)
}

// Exists checks if a remote path exists.
func (fs *FileSystem) Exists(path string) bool {
	_, err := fs.client.Lstat(path)
	return err == nil
}

// IsDir checks if a remote path is a directory.
func (fs *FileSystem) IsDir(path string) bool {
	info, err := fs.client.Stat(path)
	return err == nil && info.IsDir()
}

// MkdirAll creates a remote directory tree. perm is applied to the leaf only
// when this call created it; existing directories keep their mode.
func (fs *FileSystem) MkdirAll(path string, perm os.FileMode) error {
	if fs.IsDir(path) {
		return nil
	}
	if err := fs.client.MkdirAll(path); err != nil {
		return err
	}
	return fs.client.Chmod(path, perm)
}

// Remove removes a remote file or empty directory.
func (fs *FileSystem) Remove(path string) error {
	return fs.client.Remove(path)
}

// Rename moves a remote file, replacing the target when the server supports it.
func (fs *FileSystem) Rename(oldPath, newPath string) error {
	if err := fs.client.PosixRename(oldPath, newPath); err == nil {
		return nil
	}
	return fs.client.Rename(oldPath, newPath)
}

// Chmod changes the mode of a remote path.
func (fs *FileSystem) Chmod(path string, perm os.FileMode) error {
	return fs.client.Chmod(path, perm)
}

// FileHash streams a remote file through SHA-256.
func (fs *FileSystem) FileHash(path string) (string, error) {
	f, err := fs.client.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// GetFileInfo returns metadata about a remote path.
func (fs *FileSystem) GetFileInfo(path string) (ports.FileInfo, error) {
	info, err := fs.client.Stat(path)
	if err != nil {
		return ports.FileInfo{}, err
	}
	return ports.FileInfo{
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

var _ ports.FileSystem = (*FileSystem)(nil)
