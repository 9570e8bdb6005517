package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sync"

	"github.com/jonwraymond/memostore/observe"
)

// Store is a bounded key to value mapping persisted as one blob.
//
// Contract:
// - Capacity: Len never exceeds Capacity. A full store evicts one entry,
// chosen by its EvictionPolicy, before inserting a new key.
// - Ranks: a new key gets the highest rank so far plus one; overwrites and
// reads never change a rank.
// - Concurrency: methods are safe for concurrent use within one process.
// Nothing coordinates separate processes sharing a backend.
type Store struct {
	mu       sync.Mutex
	entries  map[Key]Entry
	backend  Backend
	capacity int
	policy   EvictionPolicy
	logger   observe.Logger
	metrics  observe.Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCapacity sets the maximum number of resident entries.
func WithCapacity(n int) StoreOption {
	return func(s *Store) { s.capacity = n }
}

// WithPolicy sets the eviction policy. The default is FIFO.
func WithPolicy(p EvictionPolicy) StoreOption {
	return func(s *Store) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithStoreLogger sets the logger used for load and eviction events.
func WithStoreLogger(l observe.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStoreMetrics sets the instruments used for evictions and persists.
func WithStoreMetrics(m observe.Metrics) StoreOption {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewStore creates an empty store over backend without reading it.
func NewStore(backend Backend, opts ...StoreOption) (*Store, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	s := &Store{
		entries:  make(map[Key]Entry),
		backend:  backend,
		capacity: DefaultCapacity,
		policy:   FIFO{},
		logger:   observe.NopLogger(),
		metrics:  observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.capacity < 1 {
		return nil, fmt.Errorf("%w, got: %d", ErrInvalidCapacity, s.capacity)
	}
	return s, nil
}

// Open creates a store over backend and loads its persisted contents.
func Open(ctx context.Context, backend Backend, opts ...StoreOption) (*Store, error) {
	s, err := NewStore(backend, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the store contents with the persisted blob.
//
// A missing or empty blob loads as an empty store. An unreadable or corrupt
// blob is discarded with a warning and also loads as an empty store. If the
// blob holds more entries than Capacity, the lowest-rank entries are dropped.
// Load only fails when ctx is done.
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := s.read(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn(ctx, "discarding unreadable cache store",
			observe.F("backend", backendName(s.backend)),
			observe.F("error", err),
		)
		entries = nil
	}

	dropped := 0
	if excess := len(entries) - s.capacity; excess > 0 {
		dropped = excess
		entries = entries[excess:]
	}

	s.mu.Lock()
	s.entries = make(map[Key]Entry, len(entries))
	for _, e := range entries {
		s.entries[e.Key] = e
	}
	s.mu.Unlock()

	if dropped > 0 {
		s.metrics.RecordEviction(ctx, dropped)
		s.logger.Info(ctx, "trimmed cache store to capacity",
			observe.F("dropped", dropped),
			observe.F("capacity", s.capacity),
		)
	}
	s.logger.Debug(ctx, "loaded cache store",
		observe.F("backend", backendName(s.backend)),
		observe.F("entries", len(entries)),
	)
	return nil
}

// read returns the persisted entries in rank order.
func (s *Store) read(ctx context.Context) ([]Entry, error) {
	data, err := s.backend.Read(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read store: %w", err)
	}
	return decodeBlob(data)
}

// Verify decodes the blob held by backend without loading it and returns
// the number of entries it contains. An absent blob counts as empty.
func Verify(ctx context.Context, backend Backend) (int, error) {
	if backend == nil {
		return 0, ErrNilBackend
	}
	data, err := backend.Read(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: read store: %w", err)
	}
	entries, err := decodeBlob(data)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key Key) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(e.Value), true
}

// Insert stores value under key.
//
// An existing key is overwritten in place and keeps its rank. A new key in a
// full store first evicts exactly one entry chosen by the policy; if the
// policy frees no slot, Insert fails with ErrNoVictim and stores nothing.
func (s *Store) Insert(ctx context.Context, key Key, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	value = slices.Clone(value)
	if value == nil {
		value = []byte{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.Value = value
		s.entries[key] = e
		return nil
	}

	if len(s.entries) >= s.capacity {
		victim, err := s.evictOneLocked()
		if err != nil {
			return err
		}
		s.metrics.RecordEviction(ctx, 1)
		s.logger.Debug(ctx, "evicted cache entry",
			observe.F("key", victim.String()),
			observe.F("capacity", s.capacity),
		)
	}

	s.entries[key] = Entry{Key: key, Value: value, Rank: s.maxRankLocked() + 1}
	return nil
}

func (s *Store) evictOneLocked() (Key, error) {
	for _, k := range s.policy.SelectVictims(s.snapshotLocked(), 1) {
		if _, ok := s.entries[k]; ok {
			delete(s.entries, k)
			return k, nil
		}
	}
	return "", ErrNoVictim
}

func (s *Store) maxRankLocked() uint64 {
	var maxRank uint64
	for _, e := range s.entries {
		maxRank = max(maxRank, e.Rank)
	}
	return maxRank
}

// snapshotLocked returns copies of all entries in rank order.
func (s *Store) snapshotLocked() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		e.Value = slices.Clone(e.Value)
		out = append(out, e)
	}
	sortByRank(out)
	return out
}

// Persist overwrites the backing blob with the whole store. Failures are
// returned as *PersistError.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	entries := s.snapshotLocked()
	s.mu.Unlock()

	data, err := encodeBlob(entries)
	if err == nil {
		err = s.backend.Write(ctx, data)
	}
	s.metrics.RecordPersist(ctx, err)
	if err != nil {
		return &PersistError{Backend: backendName(s.backend), Err: err}
	}

	s.logger.Debug(ctx, "persisted cache store",
		observe.F("backend", backendName(s.backend)),
		observe.F("entries", len(entries)),
		observe.F("bytes", len(data)),
	)
	return nil
}

// Len returns the number of resident entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Capacity returns the maximum number of resident entries.
func (s *Store) Capacity() int { return s.capacity }

// Entries returns copies of all entries in rank order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Backend returns the store's backend.
func (s *Store) Backend() Backend { return s.backend }

func backendName(b Backend) string {
	if str, ok := b.(fmt.Stringer); ok {
		return str.String()
	}
	return fmt.Sprintf("%T", b)
}
