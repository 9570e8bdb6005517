package cache_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/memostore/cache"
)

func ExampleInvoker_GetOrCompute() {
	ctx := context.Background()
	store, _ := cache.Open(ctx, cache.NewMemoryBackend())
	inv, _ := cache.NewInvoker(store)

	calls := 0
	fetch := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`[{"type":"WatchEvent"}]`), nil
	}

	v1, _ := inv.GetOrCompute(ctx, "github.events", []any{"octocat"}, nil, fetch)
	v2, _ := inv.GetOrCompute(ctx, "github.events", []any{"octocat"}, nil, fetch)

	fmt.Println(string(v1))
	fmt.Println(string(v2))
	fmt.Println("calls:", calls)
	// Output:
	// [{"type":"WatchEvent"}]
	// [{"type":"WatchEvent"}]
	// calls: 1
}

func ExampleDefaultKeyer_Derive() {
	keyer := cache.NewDefaultKeyer()

	k1, _ := keyer.Derive("search", []any{"go"}, map[string]any{"page": 1, "sort": "stars"})
	k2, _ := keyer.Derive("search", []any{"go"}, map[string]any{"sort": "stars", "page": 1.0})

	fmt.Println(len(k1))
	fmt.Println(k1 == k2)

	_, err := keyer.Derive("search", []any{make(chan int)}, nil)
	fmt.Println(errors.Is(err, cache.ErrUnhashableArgument))
	// Output:
	// 64
	// true
	// true
}

func ExampleStore_Insert() {
	ctx := context.Background()
	store, _ := cache.Open(ctx, cache.NewMemoryBackend(), cache.WithCapacity(3))
	keyer := cache.NewDefaultKeyer()

	for _, user := range []string{"k1", "k2", "k3", "k4"} {
		key, _ := keyer.Derive("op", []any{user}, nil)
		_ = store.Insert(ctx, key, []byte(user))
	}

	for _, e := range store.Entries() {
		fmt.Println(e.Rank, string(e.Value))
	}
	// Output:
	// 2 k2
	// 3 k3
	// 4 k4
}

func ExampleGetOrComputeJSON() {
	ctx := context.Background()
	store, _ := cache.Open(ctx, cache.NewMemoryBackend())
	inv, _ := cache.NewInvoker(store)

	type counts map[string]int
	got, err := cache.GetOrComputeJSON(ctx, inv, "counts", []any{"octocat"}, nil,
		func(context.Context) (counts, error) {
			return counts{"PushEvent": 2}, nil
		})

	fmt.Println(got["PushEvent"], err)
	// Output:
	// 2 <nil>
}
