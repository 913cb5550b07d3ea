package cli

import (
	"context"
	"testing"

	"github.com/matzehuels/molforge/pkg/cache"
	"github.com/matzehuels/molforge/pkg/config"
	"github.com/matzehuels/molforge/pkg/store"
)

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.CacheConfig
		noCache bool
		check   func(cache.Cache) bool
	}{
		{
			name:  "file",
			cfg:   config.CacheConfig{Backend: config.CacheFile, Dir: dir},
			check: func(c cache.Cache) bool { fc, ok := c.(*cache.FileCache); return ok && fc.Dir() == dir },
		},
		{
			name:  "none",
			cfg:   config.CacheConfig{Backend: config.CacheNone},
			check: func(c cache.Cache) bool { _, ok := c.(cache.NullCache); return ok },
		},
		{
			name:    "no-cache flag wins",
			cfg:     config.CacheConfig{Backend: config.CacheFile, Dir: dir},
			noCache: true,
			check:   func(c cache.Cache) bool { _, ok := c.(cache.NullCache); return ok },
		},
		{
			name:  "badger",
			cfg:   config.CacheConfig{Backend: config.CacheBadger, BadgerDir: t.TempDir()},
			check: func(c cache.Cache) bool { _, ok := c.(*cache.BadgerCache); return ok },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newCache(ctx, tt.cfg, tt.noCache)
			if err != nil {
				t.Fatalf("newCache() error: %v", err)
			}
			defer c.Close()
			if !tt.check(c) {
				t.Errorf("newCache() = %T, unexpected backend", c)
			}
		})
	}
}

func TestNewStoreDefaultsToMemory(t *testing.T) {
	st, err := newStore(context.Background(), config.StoreConfig{Backend: config.StoreMemory})
	if err != nil {
		t.Fatalf("newStore() error: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Errorf("newStore() = %T", st)
	}
}
