package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// blob is the persisted form of a store. There is no version field; a blob
// that does not match this shape exactly is corrupt.
type blob struct {
	Entries *[]blobEntry `json:"entries"`
}

type blobEntry struct {
	Key   Key     `json:"key"`
	Value *[]byte `json:"value"`
	Rank  uint64  `json:"rank"`
}

// encodeBlob serializes entries in rank order.
func encodeBlob(entries []Entry) ([]byte, error) {
	out := make([]blobEntry, 0, len(entries))
	for _, e := range entries {
		v := e.Value
		if v == nil {
			v = []byte{}
		}
		out = append(out, blobEntry{Key: e.Key, Value: &v, Rank: e.Rank})
	}
	data, err := json.Marshal(blob{Entries: &out})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// decodeBlob parses a persisted store. Empty input decodes to no entries.
// Every other failure wraps ErrCorruptStore.
func decodeBlob(data []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var b blob
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after blob", ErrCorruptStore)
	}
	if b.Entries == nil {
		return nil, fmt.Errorf("%w: missing entries", ErrCorruptStore)
	}

	entries := make([]Entry, 0, len(*b.Entries))
	keys := make(map[Key]struct{}, len(*b.Entries))
	ranks := make(map[uint64]struct{}, len(*b.Entries))
	for i, be := range *b.Entries {
		if err := ValidateKey(be.Key); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrCorruptStore, i, err)
		}
		if be.Value == nil {
			return nil, fmt.Errorf("%w: entry %d: missing value", ErrCorruptStore, i)
		}
		if be.Rank == 0 {
			return nil, fmt.Errorf("%w: entry %d: rank must be positive", ErrCorruptStore, i)
		}
		if _, dup := keys[be.Key]; dup {
			return nil, fmt.Errorf("%w: entry %d: duplicate key", ErrCorruptStore, i)
		}
		if _, dup := ranks[be.Rank]; dup {
			return nil, fmt.Errorf("%w: entry %d: duplicate rank %d", ErrCorruptStore, i, be.Rank)
		}
		keys[be.Key] = struct{}{}
		ranks[be.Rank] = struct{}{}
		entries = append(entries, Entry{Key: be.Key, Value: *be.Value, Rank: be.Rank})
	}
	sortByRank(entries)
	return entries, nil
}
