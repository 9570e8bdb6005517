package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetOrComputeJSON memoizes a typed computation. Results are stored as JSON
// and decoded on hits.
func GetOrComputeJSON[T any](
	ctx context.Context,
	inv *Invoker,
	op string,
	args []any,
	kwargs map[string]any,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	if inv == nil {
		return zero, ErrNilStore
	}
	if compute == nil {
		return zero, ErrNilCompute
	}

	var (
		fresh    T
		computed bool
	)
	raw, err := inv.GetOrCompute(ctx, op, args, kwargs, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("cache: encode result: %w", err)
		}
		fresh, computed = v, true
		return data, nil
	})
	if err != nil {
		return zero, err
	}
	if computed {
		return fresh, nil
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrValueDecode, err)
	}
	return out, nil
}
