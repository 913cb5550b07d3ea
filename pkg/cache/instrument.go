package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/molforge/pkg/observability"
)

// Instrumented reports hits, misses and writes of c to the registered
// [observability.CacheHooks]. The key type is the key prefix before the
// first colon, after any scope prefix.
func Instrumented(c Cache) Cache {
	return &instrumented{inner: c}
}

type instrumented struct {
	inner Cache
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, keyType(key))
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType(key))
	}
	return data, ok, nil
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.inner.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

func (c *instrumented) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

func (c *instrumented) Close() error { return c.inner.Close() }

func keyType(key string) string {
	for _, p := range []string{PrefixConstruct, PrefixArtifact, PrefixRender} {
		if strings.Contains(key, p+":") {
			return p
		}
	}
	return "other"
}
