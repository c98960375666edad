package cache

import (
	"context"
	"time"
)

// BytesCache stores rendered API responses with a TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Purge(ctx context.Context) error
}
