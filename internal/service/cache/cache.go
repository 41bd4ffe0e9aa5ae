package cache

import (
	"context"
	"time"
)

// BytesCache stores serialized backtest reports keyed by symbol, series shape
// and params hash. Implementations must treat a miss and an expired entry the
// same way: ok=false, no error.
type BytesCache interface {
	Get(ctx context.Context, key string) (b []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
