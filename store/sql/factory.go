package sqlstore

import (
	"fmt"
	"time"

	"github.com/goliatone/go-accountlink/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

const defaultFlagCacheTTL = 30 * time.Second

type RepositoryFactory struct {
	db *bun.DB

	accountStore *AccountStore
	flagStore    core.FlagStore
	flagCacheTTL time.Duration
}

type FactoryOption func(*RepositoryFactory)

// WithFlagCacheTTL enables the read-through flag cache with the given TTL.
// Zero leaves flag reads uncached.
func WithFlagCacheTTL(ttl time.Duration) FactoryOption {
	return func(f *RepositoryFactory) {
		f.flagCacheTTL = ttl
	}
}

// WithFlagCache enables the read-through flag cache with the default TTL.
func WithFlagCache() FactoryOption {
	return WithFlagCacheTTL(defaultFlagCacheTTL)
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(factory)
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.accountStore != nil && f.flagStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) AccountStore() core.AccountStore {
	if f == nil || f.accountStore == nil {
		return nil
	}
	return f.accountStore
}

func (f *RepositoryFactory) FlagStore() core.FlagStore {
	if f == nil {
		return nil
	}
	return f.flagStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	accountRepo := repository.NewRepository[*linkedAccountRecord](f.db, linkedAccountHandlers())
	if validator, ok := accountRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid linked account repository wiring: %w", err)
		}
	}

	flagRepo := repository.NewRepository[*distributionFlagRecord](f.db, distributionFlagHandlers())
	if validator, ok := flagRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid distribution flag repository wiring: %w", err)
		}
	}

	f.accountStore = &AccountStore{
		db:       f.db,
		repo:     accountRepo,
		flagRepo: flagRepo,
	}

	baseFlagStore := &FlagStore{
		db:   f.db,
		repo: flagRepo,
	}
	f.flagStore = baseFlagStore

	if f.flagCacheTTL > 0 {
		cacheConfig := repositorycache.DefaultConfig()
		cacheConfig.TTL = f.flagCacheTTL
		cacheService, err := repositorycache.NewCacheService(cacheConfig)
		if err != nil {
			return fmt.Errorf("sqlstore: build flag cache service: %w", err)
		}
		cachedFlagStore, err := NewCachedFlagStore(baseFlagStore, cacheService)
		if err != nil {
			return err
		}
		f.flagStore = cachedFlagStore
	}

	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
