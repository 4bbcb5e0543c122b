package accountlink

import (
	"github.com/goliatone/go-accountlink/cache"
	"github.com/goliatone/go-accountlink/core"
)

// LookupCache is the bounded FIFO cache specialized to sanitized account
// views, the shape the service reads and writes.
type LookupCache = cache.Cache[core.AccountView]

// Janitor re-exported for bootstrap code that owns the cache lifetime.
type Janitor = cache.Janitor

var _ core.AccountCache = (*LookupCache)(nil)

// NewLookupCache builds the lookup cache and its invalidation janitor from
// the cache section of the service config. The janitor is returned stopped;
// the caller starts it and owns both lifetimes:
//
//	lookupCache, janitor, err := accountlink.NewLookupCache(cfg.Cache)
//	janitor.Start(ctx)
//	defer janitor.Stop()
//	svc, err := accountlink.NewService(cfg, accountlink.WithAccountCache(lookupCache))
func NewLookupCache(cfg CacheConfig, opts ...cache.JanitorOption) (*LookupCache, *Janitor, error) {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = core.DefaultCacheMaxSize
	}
	interval := cfg.InvalidationInterval
	if interval <= 0 {
		interval = core.DefaultCacheInvalidationInterval
	}

	lookupCache, err := cache.New[core.AccountView](maxSize)
	if err != nil {
		return nil, nil, err
	}
	janitor, err := cache.NewJanitor(lookupCache, interval, opts...)
	if err != nil {
		return nil, nil, err
	}
	return lookupCache, janitor, nil
}
