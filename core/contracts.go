package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// AccountStore is the durable mapping from linked-account identifiers to
// token pairs and metadata. The store owns uniqueness enforcement: Create
// must fail with a Conflict-categorized error when ExternalID or
// ProviderAccountID already exists, and that failure is the authoritative
// duplicate-link signal.
type AccountStore interface {
	// Create inserts the account and, when flag is non-nil, the distribution
	// flag row in the same transaction. Conflict leaves zero rows written.
	Create(ctx context.Context, account LinkedAccount, flag *DistributionFlag) (LinkedAccount, error)
	GetByExternalID(ctx context.Context, externalID string) (LinkedAccount, error)
	GetByProviderAccountID(ctx context.Context, providerAccountID string) (LinkedAccount, error)
	GetAll(ctx context.Context) ([]LinkedAccount, error)
	// UpdateTokens overwrites the token pair and LastRefreshedAt. It must
	// refuse to move LastRefreshedAt backwards so a late-arriving refresh
	// result cannot clobber a newer one.
	UpdateTokens(ctx context.Context, id string, pair TokenPair, refreshedAt time.Time) (LinkedAccount, error)
	Delete(ctx context.Context, kind AccountKeyKind, id string) error
}

// FlagStore persists distribution flags keyed by provider account id.
type FlagStore interface {
	Set(ctx context.Context, flag DistributionFlag) error
	Get(ctx context.Context, kind AccountKeyKind, id string) (DistributionFlag, error)
	// ResetAll clears every flag to false.
	ResetAll(ctx context.Context) error
	Delete(ctx context.Context, kind AccountKeyKind, id string) error
}

// IdentityProvider is the OAuth2 identity provider consumed by the core.
// Every call may fail with a transport error or a provider-reported error;
// the provider's message is preserved in the returned error.
type IdentityProvider interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (TokenPair, error)
	RefreshTokenPair(ctx context.Context, refreshToken string) (TokenPair, error)
	FetchIdentity(ctx context.Context, accessToken string) (Identity, error)
	FetchGroupMembership(ctx context.Context, accessToken string, groupID string) ([]string, error)
}

// AccountCache is the bounded lookup cache consumed by the read path. It is a
// soft, revocable accelerator and is never authoritative.
type AccountCache interface {
	Get(key string) (AccountView, bool)
	Set(key string, value AccountView)
	Delete(key string)
	Clear()
}

// LockHandle releases a held per-account lock.
type LockHandle interface {
	Unlock(ctx context.Context) error
}

// AccountLocker serializes refresh attempts per account key so concurrent
// EnsureFresh calls collapse into one provider round-trip.
type AccountLocker interface {
	Acquire(ctx context.Context, accountKey string, ttl time.Duration) (LockHandle, error)
}

// LinkStateStore holds single-use authorization states issued by BeginLink.
type LinkStateStore interface {
	Save(ctx context.Context, record LinkStateRecord) error
	Consume(ctx context.Context, state string) (LinkStateRecord, error)
}

// StoreProvider exposes built stores to the service constructor.
type StoreProvider interface {
	AccountStore() AccountStore
	FlagStore() FlagStore
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
