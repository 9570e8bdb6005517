// Package cache provides a persistent memoization cache.
//
// A Keyer derives a deterministic SHA-256 key from an operation name and its
// arguments. A Store keeps a bounded key to value mapping that is loaded from
// and persisted to a single blob through a Backend, evicting entries with an
// EvictionPolicy when it is full. An Invoker ties them together: it returns a
// cached result or runs the computation, stores the result and persists the
// store.
//
// The cache assumes one sequential caller. Two processes sharing a backing
// file race on load and persist; the later persist wins.
package cache
