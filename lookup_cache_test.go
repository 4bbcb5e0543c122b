package accountlink

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-accountlink/core"
)

func TestNewLookupCache(t *testing.T) {
	t.Run("uses config values", func(t *testing.T) {
		lookupCache, janitor, err := NewLookupCache(CacheConfig{
			MaxSize:              3,
			InvalidationInterval: time.Hour,
		})
		if err != nil {
			t.Fatalf("NewLookupCache() error = %v", err)
		}
		defer janitor.Stop()

		if lookupCache.MaxSize() != 3 {
			t.Fatalf("max size = %d, want 3", lookupCache.MaxSize())
		}
	})

	t.Run("zero config falls back to defaults", func(t *testing.T) {
		lookupCache, janitor, err := NewLookupCache(CacheConfig{})
		if err != nil {
			t.Fatalf("NewLookupCache() error = %v", err)
		}
		defer janitor.Stop()

		if lookupCache.MaxSize() != core.DefaultCacheMaxSize {
			t.Fatalf("max size = %d, want %d", lookupCache.MaxSize(), core.DefaultCacheMaxSize)
		}
	})

	t.Run("serves the service lookup path", func(t *testing.T) {
		lookupCache, janitor, err := NewLookupCache(CacheConfig{MaxSize: 2, InvalidationInterval: time.Hour})
		if err != nil {
			t.Fatalf("NewLookupCache() error = %v", err)
		}
		janitor.Start(context.Background())
		defer janitor.Stop()

		var store core.AccountCache = lookupCache
		store.Set("ext_1", core.AccountView{ExternalID: "ext_1"})
		view, ok := store.Get("ext_1")
		if !ok || view.ExternalID != "ext_1" {
			t.Fatalf("cached view not readable: ok=%v view=%+v", ok, view)
		}
	})
}
