package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/goliatone/go-accountlink/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const flagCacheKeyPrefix = "go-accountlink::distribution_flag::v1"

// CachedFlagStore serves flag reads through a TTL cache in front of the
// durable store. Writes go straight through and invalidate the touched keys,
// so a read after a write observes the new value.
type CachedFlagStore struct {
	base  core.FlagStore
	cache repositorycache.CacheService

	mu   sync.Mutex
	keys map[string]struct{}
}

func NewCachedFlagStore(base core.FlagStore, cacheService repositorycache.CacheService) (*CachedFlagStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base flag store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: flag cache service is required")
	}
	return &CachedFlagStore{
		base:  base,
		cache: cacheService,
		keys:  make(map[string]struct{}),
	}, nil
}

// FlagCacheKey returns the deterministic cache key contract for flag reads:
// go-accountlink::distribution_flag::v1::<kind>::<id> with each segment
// URL-path escaped.
func FlagCacheKey(kind core.AccountKeyKind, id string) (string, error) {
	if err := kind.Validate(); err != nil {
		return "", err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("sqlstore: flag identifier is required")
	}
	segments := []string{flagCacheKeyPrefix, url.PathEscape(string(kind)), url.PathEscape(id)}
	return strings.Join(segments, "::"), nil
}

func (s *CachedFlagStore) Get(ctx context.Context, kind core.AccountKeyKind, id string) (core.DistributionFlag, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.DistributionFlag{}, fmt.Errorf("sqlstore: cached flag store is not configured")
	}
	cacheKey, err := FlagCacheKey(kind, id)
	if err != nil {
		return core.DistributionFlag{}, err
	}
	s.rememberKey(cacheKey)

	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.DistributionFlag, error) {
		return s.base.Get(ctx, kind, id)
	})
}

func (s *CachedFlagStore) Set(ctx context.Context, flag core.DistributionFlag) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached flag store is not configured")
	}
	if err := s.base.Set(ctx, flag); err != nil {
		return err
	}
	return s.invalidateFlag(ctx, flag)
}

func (s *CachedFlagStore) ResetAll(ctx context.Context) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached flag store is not configured")
	}
	if err := s.base.ResetAll(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	keys := make([]string, 0, len(s.keys))
	for key := range s.keys {
		keys = append(keys, key)
	}
	s.keys = make(map[string]struct{})
	s.mu.Unlock()

	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *CachedFlagStore) Delete(ctx context.Context, kind core.AccountKeyKind, id string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached flag store is not configured")
	}
	if err := s.base.Delete(ctx, kind, id); err != nil {
		return err
	}
	cacheKey, err := FlagCacheKey(kind, id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func (s *CachedFlagStore) invalidateFlag(ctx context.Context, flag core.DistributionFlag) error {
	targets := []struct {
		kind core.AccountKeyKind
		id   string
	}{
		{core.KeyProviderAccount, flag.ProviderAccountID},
		{core.KeyExternal, flag.ExternalID},
	}
	for _, target := range targets {
		if strings.TrimSpace(target.id) == "" {
			continue
		}
		cacheKey, err := FlagCacheKey(target.kind, target.id)
		if err != nil {
			return err
		}
		if err := s.cache.Delete(ctx, cacheKey); err != nil {
			return err
		}
	}
	return nil
}

func (s *CachedFlagStore) rememberKey(key string) {
	s.mu.Lock()
	s.keys[key] = struct{}{}
	s.mu.Unlock()
}
