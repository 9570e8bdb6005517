package cache

import (
	"errors"
	"fmt"
)

// KeyLength is the length of a derived key: a hex-encoded SHA-256 digest.
const KeyLength = 64

// DefaultCapacity is the number of entries a Store keeps when no capacity
// is configured.
const DefaultCapacity = 6

// Key is a content digest identifying one memoized call.
type Key string

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }

// Short returns the first 12 characters of the key, for display.
func (k Key) Short() string {
	if len(k) <= 12 {
		return string(k)
	}
	return string(k[:12])
}

// Sentinel errors for cache operations.
var (
	ErrNilStore           = errors.New("cache: store is nil")
	ErrNilBackend         = errors.New("cache: backend is nil")
	ErrNilCompute         = errors.New("cache: compute function is nil")
	ErrInvalidKey         = errors.New("cache: key is invalid")
	ErrInvalidOperation   = errors.New("cache: operation name is empty")
	ErrInvalidCapacity    = errors.New("cache: capacity must be at least 1")
	ErrUnhashableArgument = errors.New("cache: argument is not hashable")
	ErrCorruptStore       = errors.New("cache: persisted store is corrupt")
	ErrNoVictim           = errors.New("cache: eviction policy freed no slot")
	ErrPersist            = errors.New("cache: persist failed")
	ErrValueDecode        = errors.New("cache: cached value could not be decoded")
)

// PersistError reports a failed write-back of the whole store.
// It matches both ErrPersist and the underlying I/O error with errors.Is.
type PersistError struct {
	Backend string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("cache: persist to %s: %v", e.Backend, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersist, e.Err}
}

// ValidateKey checks that key looks like a derived key: 64 lowercase hex
// characters.
func ValidateKey(key Key) error {
	if len(key) != KeyLength {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidKey, len(key), KeyLength)
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: non-hex character at %d", ErrInvalidKey, i)
		}
	}
	return nil
}
