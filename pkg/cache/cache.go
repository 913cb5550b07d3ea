// Package cache stores construction results and rendered artifacts so that
// rebuilding an unchanged recipe is a lookup.
//
// Four backends implement [Cache]: [FileCache] for the CLI, [BadgerCache]
// for an embedded store shared by a long-running server, [RedisCache] for
// several servers, and [NullCache] when caching is disabled. Keys come from
// a [Keyer] so that every backend sees the same key for the same inputs.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. A miss is reported as
// (nil, false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache never stores anything.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
