package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type memoryAccountStore struct {
	mu       sync.Mutex
	accounts map[string]LinkedAccount
	flags    *memoryFlagStore
	nextID   int
}

func newMemoryAccountStore(flags *memoryFlagStore) *memoryAccountStore {
	return &memoryAccountStore{
		accounts: make(map[string]LinkedAccount),
		flags:    flags,
	}
}

func (s *memoryAccountStore) Create(_ context.Context, account LinkedAccount, flag *DistributionFlag) (LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.ExternalID == account.ExternalID || existing.ProviderAccountID == account.ProviderAccountID {
			return LinkedAccount{}, fmt.Errorf("%w: %s", ErrLinkConflict, account.ExternalID)
		}
	}

	s.nextID++
	account.ID = fmt.Sprintf("acct_%d", s.nextID)
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.accounts[account.ID] = account

	if flag != nil && s.flags != nil {
		stored := *flag
		stored.UpdatedAt = now
		s.flags.put(stored)
	}
	return account, nil
}

func (s *memoryAccountStore) GetByExternalID(_ context.Context, externalID string) (LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.ExternalID == externalID {
			return account, nil
		}
	}
	return LinkedAccount{}, fmt.Errorf("%w: external id %q", ErrAccountNotFound, externalID)
}

func (s *memoryAccountStore) GetByProviderAccountID(_ context.Context, providerAccountID string) (LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.ProviderAccountID == providerAccountID {
			return account, nil
		}
	}
	return LinkedAccount{}, fmt.Errorf("%w: provider account id %q", ErrAccountNotFound, providerAccountID)
}

func (s *memoryAccountStore) GetAll(_ context.Context) ([]LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LinkedAccount, 0, len(s.accounts))
	for _, account := range s.accounts {
		out = append(out, account)
	}
	return out, nil
}

func (s *memoryAccountStore) UpdateTokens(_ context.Context, id string, pair TokenPair, refreshedAt time.Time) (LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return LinkedAccount{}, fmt.Errorf("%w: id %q", ErrAccountNotFound, id)
	}
	if refreshedAt.Before(account.LastRefreshedAt) {
		return LinkedAccount{}, fmt.Errorf("core: refresh timestamp regression for account %q", id)
	}
	account.AccessToken = pair.AccessToken
	account.RefreshToken = pair.RefreshToken
	account.LastRefreshedAt = refreshedAt.UTC()
	account.UpdatedAt = time.Now().UTC()
	s.accounts[id] = account
	return account, nil
}

func (s *memoryAccountStore) Delete(_ context.Context, kind AccountKeyKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, account := range s.accounts {
		if (kind == KeyExternal && account.ExternalID == id) ||
			(kind == KeyProviderAccount && account.ProviderAccountID == id) {
			delete(s.accounts, key)
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q", ErrAccountNotFound, string(kind), id)
}

type memoryFlagStore struct {
	mu    sync.Mutex
	flags map[string]DistributionFlag
}

func newMemoryFlagStore() *memoryFlagStore {
	return &memoryFlagStore{flags: make(map[string]DistributionFlag)}
}

func (s *memoryFlagStore) put(flag DistributionFlag) {
	s.mu.Lock()
	s.flags[flag.ProviderAccountID] = flag
	s.mu.Unlock()
}

func (s *memoryFlagStore) Set(_ context.Context, flag DistributionFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	flag.UpdatedAt = time.Now().UTC()
	s.flags[flag.ProviderAccountID] = flag
	return nil
}

func (s *memoryFlagStore) Get(_ context.Context, kind AccountKeyKind, id string) (DistributionFlag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, flag := range s.flags {
		if (kind == KeyProviderAccount && flag.ProviderAccountID == id) ||
			(kind == KeyExternal && flag.ExternalID == id) {
			return flag, nil
		}
	}
	return DistributionFlag{}, fmt.Errorf("%w: %s %q", ErrFlagNotFound, string(kind), id)
}

func (s *memoryFlagStore) ResetAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, flag := range s.flags {
		flag.Granted = false
		s.flags[key] = flag
	}
	return nil
}

func (s *memoryFlagStore) Delete(_ context.Context, kind AccountKeyKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, flag := range s.flags {
		if (kind == KeyProviderAccount && flag.ProviderAccountID == id) ||
			(kind == KeyExternal && flag.ExternalID == id) {
			delete(s.flags, key)
			return nil
		}
	}
	return nil
}

type stubIdentityProvider struct {
	authorizationURLFn func(state string) string
	exchangeCodeFn     func(ctx context.Context, code string) (TokenPair, error)
	refreshFn          func(ctx context.Context, refreshToken string) (TokenPair, error)
	fetchIdentityFn    func(ctx context.Context, accessToken string) (Identity, error)
	fetchMembershipFn  func(ctx context.Context, accessToken string, groupID string) ([]string, error)

	refreshCalls atomic.Int64
}

func (p *stubIdentityProvider) AuthorizationURL(state string) string {
	if p.authorizationURLFn == nil {
		return "https://id.example.com/authorize?state=" + state
	}
	return p.authorizationURLFn(state)
}

func (p *stubIdentityProvider) ExchangeCode(ctx context.Context, code string) (TokenPair, error) {
	if p.exchangeCodeFn == nil {
		return TokenPair{AccessToken: "at_" + code, RefreshToken: "rt_" + code}, nil
	}
	return p.exchangeCodeFn(ctx, code)
}

func (p *stubIdentityProvider) RefreshTokenPair(ctx context.Context, refreshToken string) (TokenPair, error) {
	p.refreshCalls.Add(1)
	if p.refreshFn == nil {
		return TokenPair{AccessToken: "at_rotated", RefreshToken: "rt_rotated"}, nil
	}
	return p.refreshFn(ctx, refreshToken)
}

func (p *stubIdentityProvider) FetchIdentity(ctx context.Context, accessToken string) (Identity, error) {
	if p.fetchIdentityFn == nil {
		return Identity{ProviderAccountID: "prov_1", Username: "captain"}, nil
	}
	return p.fetchIdentityFn(ctx, accessToken)
}

func (p *stubIdentityProvider) FetchGroupMembership(ctx context.Context, accessToken string, groupID string) ([]string, error) {
	if p.fetchMembershipFn == nil {
		return []string{"role_a"}, nil
	}
	return p.fetchMembershipFn(ctx, accessToken, groupID)
}

type recordingCache struct {
	mu      sync.Mutex
	entries map[string]AccountView
	sets    int
	hits    int
	misses  int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]AccountView)}
}

func (c *recordingCache) Get(key string) (AccountView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	view, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return view, ok
}

func (c *recordingCache) Set(key string, value AccountView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
}

func (c *recordingCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *recordingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]AccountView)
}

type serviceFixture struct {
	service  *Service
	accounts *memoryAccountStore
	flags    *memoryFlagStore
	provider *stubIdentityProvider
	cache    *recordingCache
}

func newServiceFixture(t *testing.T, cfg Config, options ...Option) *serviceFixture {
	t.Helper()

	flags := newMemoryFlagStore()
	accounts := newMemoryAccountStore(flags)
	provider := &stubIdentityProvider{}
	cache := newRecordingCache()

	base := []Option{
		WithAccountStore(accounts),
		WithFlagStore(flags),
		WithIdentityProvider(provider),
		WithAccountCache(cache),
	}
	service, err := NewService(cfg, append(base, options...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &serviceFixture{
		service:  service,
		accounts: accounts,
		flags:    flags,
		provider: provider,
		cache:    cache,
	}
}

func (f *serviceFixture) seedAccount(t *testing.T, externalID string, lastRefreshedAt time.Time) LinkedAccount {
	t.Helper()
	account, err := f.accounts.Create(context.Background(), LinkedAccount{
		ExternalID:        externalID,
		ProviderAccountID: "prov_" + externalID,
		ProviderUsername:  "user_" + externalID,
		RefreshToken:      "rt_" + externalID,
		AccessToken:       "at_" + externalID,
		LastRefreshedAt:   lastRefreshedAt.UTC(),
	}, nil)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}
