package github

import (
	"context"

	"github.com/jonwraymond/memostore/cache"
)

// OperationEvents names the memoized events fetch in cache keys.
const OperationEvents = "github.events"

// EventSource returns the raw events payload for a user.
type EventSource interface {
	FetchEvents(ctx context.Context, user string) ([]byte, error)
}

// MemoizedSource serves FetchEvents from a cache.Invoker. Only successful
// payloads are stored, so a missing user is looked up again next time.
type MemoizedSource struct {
	inv *cache.Invoker
	src EventSource
}

// NewMemoizedSource wraps src with inv.
func NewMemoizedSource(inv *cache.Invoker, src EventSource) *MemoizedSource {
	return &MemoizedSource{inv: inv, src: src}
}

// FetchEvents returns the cached payload for user or fetches and stores it.
func (m *MemoizedSource) FetchEvents(ctx context.Context, user string) ([]byte, error) {
	return m.inv.GetOrCompute(ctx, OperationEvents, []any{user}, nil, func(ctx context.Context) ([]byte, error) {
		return m.src.FetchEvents(ctx, user)
	})
}

var (
	_ EventSource = (*Client)(nil)
	_ EventSource = (*MemoizedSource)(nil)
)
