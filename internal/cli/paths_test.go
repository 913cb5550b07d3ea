package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/molforge/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := filepath.Join(t.TempDir(), "custom-cache")
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestFileCacheDir(t *testing.T) {
	custom := t.TempDir()
	dir, err := fileCacheDir(config.CacheConfig{Dir: custom})
	if err != nil {
		t.Fatalf("fileCacheDir() error: %v", err)
	}
	if dir != custom {
		t.Errorf("fileCacheDir() = %q, want %q", dir, custom)
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	dir, err = fileCacheDir(config.CacheConfig{})
	if err != nil {
		t.Fatalf("fileCacheDir() error: %v", err)
	}
	if want := filepath.Join(xdg, appName); dir != want {
		t.Errorf("fileCacheDir() = %q, want %q", dir, want)
	}
}
