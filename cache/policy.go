package cache

import "slices"

// Entry is one resident cache entry. Rank orders entries by insertion and is
// never changed by reads or overwrites.
type Entry struct {
	Key   Key
	Value []byte
	Rank  uint64
}

// EvictionPolicy chooses which entries to drop when a Store is full.
//
// Contract:
// - Concurrency: called with the store's lock held; must not call back into
// the store.
// - Determinism: the same entries and needed count yield the same victims.
type EvictionPolicy interface {
	// SelectVictims returns up to needed keys to remove from entries.
	SelectVictims(entries []Entry, needed int) []Key
}

// FIFO evicts the entries inserted earliest, irrespective of reads.
type FIFO struct{}

// SelectVictims returns the needed lowest-rank keys.
func (FIFO) SelectVictims(entries []Entry, needed int) []Key {
	if needed <= 0 || len(entries) == 0 {
		return nil
	}
	sorted := slices.Clone(entries)
	sortByRank(sorted)

	needed = min(needed, len(sorted))
	victims := make([]Key, 0, needed)
	for _, e := range sorted[:needed] {
		victims = append(victims, e.Key)
	}
	return victims
}

func sortByRank(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		switch {
		case a.Rank < b.Rank:
			return -1
		case a.Rank > b.Rank:
			return 1
		default:
			return 0
		}
	})
}

var _ EvictionPolicy = FIFO{}
