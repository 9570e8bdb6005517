package cache

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Backend reads and writes the single blob holding a persisted store.
//
// Contract:
// - Read returns an error matching fs.ErrNotExist when no blob exists yet.
// - Write replaces the whole blob.
// - Context: methods should honor cancellation before doing I/O.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// DefaultFilePerm is the permission used for new cache files.
const DefaultFilePerm fs.FileMode = 0o600

// FileBackend stores the blob in one file on disk.
//
// Writes are a plain overwrite unless Atomic is set, in which case the blob
// is written to a temporary file in the same directory and renamed over
// Path.
type FileBackend struct {
	Path   string
	Atomic bool
	Perm   fs.FileMode
}

// NewFileBackend returns a non-atomic FileBackend for path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path, Perm: DefaultFilePerm}
}

// Read returns the file contents.
func (b *FileBackend) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(b.Path)
}

// Write replaces the file contents with data, creating parent directories
// as needed.
func (b *FileBackend) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.Path == "" {
		return fmt.Errorf("cache: file backend has no path")
	}
	perm := b.Perm
	if perm == 0 {
		perm = DefaultFilePerm
	}
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if !b.Atomic {
		return os.WriteFile(b.Path, data, perm)
	}
	return writeAtomic(dir, b.Path, data, perm)
}

func writeAtomic(dir, path string, data []byte, perm fs.FileMode) (err error) {
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// String returns the file path.
func (b *FileBackend) String() string { return b.Path }

var _ Backend = (*FileBackend)(nil)
