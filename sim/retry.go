package sim

import (
	"context"
	"errors"

	"github.com/rustyeddy/papertrader/market"
)

// retryOnce calls fn again after a storage failure. Only reads go through
// here; a mutation is never repeated.
func retryOnce[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err == nil || !errors.Is(err, market.ErrStorage) || ctx.Err() != nil {
		return v, err
	}
	return fn()
}
