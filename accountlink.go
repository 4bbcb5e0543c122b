// Package accountlink links external-system accounts to OAuth2
// identity-provider accounts: it owns the linking workflow, the stored token
// pairs with transparent refresh, a bounded lookup cache, and the optional
// distribution-flag subsystem.
package accountlink

import "github.com/goliatone/go-accountlink/core"

type Config = core.Config

type CacheConfig = core.CacheConfig
type FeatureConfig = core.FeatureConfig
type ProviderConfig = core.ProviderConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type AccountStore = core.AccountStore
type FlagStore = core.FlagStore
type IdentityProvider = core.IdentityProvider
type AccountCache = core.AccountCache
type AccountLocker = core.AccountLocker
type LinkStateStore = core.LinkStateStore

type LinkedAccount = core.LinkedAccount
type AccountView = core.AccountView
type TokenPair = core.TokenPair
type Identity = core.Identity
type DistributionFlag = core.DistributionFlag
type AccountKeyKind = core.AccountKeyKind

type BeginLinkResult = core.BeginLinkResult
type CompleteLinkRequest = core.CompleteLinkRequest
type CompleteLinkResult = core.CompleteLinkResult
type EnsureFreshRequest = core.EnsureFreshRequest
type EnsureFreshResult = core.EnsureFreshResult

const (
	KeyExternal        = core.KeyExternal
	KeyProviderAccount = core.KeyProviderAccount
)

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithLinkStateStore    = core.WithLinkStateStore
	WithAccountLocker     = core.WithAccountLocker
	WithAccountStore      = core.WithAccountStore
	WithFlagStore         = core.WithFlagStore
	WithIdentityProvider  = core.WithIdentityProvider
	WithAccountCache      = core.WithAccountCache
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewService builds the core service. See core.NewService for the resolution
// order of stores, provider, and cache.
func NewService(cfg Config, options ...Option) (*Service, error) {
	return core.NewService(cfg, options...)
}
