package cache

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"sync"
)

// MemoryBackend keeps the blob in memory. It is meant for tests and for
// callers that want memoization without touching disk.
type MemoryBackend struct {
	mu       sync.Mutex
	data     []byte
	exists   bool
	writes   int
	readErr  error
	writeErr error
}

// NewMemoryBackend creates an empty backend with no blob.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Read returns a copy of the stored blob.
func (b *MemoryBackend) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.readErr != nil {
		return nil, b.readErr
	}
	if !b.exists {
		return nil, fmt.Errorf("cache: memory backend: %w", fs.ErrNotExist)
	}
	return slices.Clone(b.data), nil
}

// Write replaces the stored blob.
func (b *MemoryBackend) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.writeErr != nil {
		return b.writeErr
	}
	b.data = slices.Clone(data)
	b.exists = true
	b.writes++
	return nil
}

// SetData stores data as if it had been written, without counting a write.
func (b *MemoryBackend) SetData(data []byte) {
	b.mu.Lock()
	b.data = slices.Clone(data)
	b.exists = true
	b.mu.Unlock()
}

// Data returns a copy of the blob and whether one exists.
func (b *MemoryBackend) Data() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.data), b.exists
}

// Writes returns how many successful writes the backend has seen.
func (b *MemoryBackend) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// FailReads makes every subsequent Read return err. A nil err clears it.
func (b *MemoryBackend) FailReads(err error) {
	b.mu.Lock()
	b.readErr = err
	b.mu.Unlock()
}

// FailWrites makes every subsequent Write return err. A nil err clears it.
func (b *MemoryBackend) FailWrites(err error) {
	b.mu.Lock()
	b.writeErr = err
	b.mu.Unlock()
}

// String returns "memory".
func (b *MemoryBackend) String() string { return "memory" }

var _ Backend = (*MemoryBackend)(nil)
