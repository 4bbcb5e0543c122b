package core

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service is the credential lifecycle manager and linking workflow. It owns
// no ambient state: the cache, stores, provider, and locker are injected and
// their lifetimes belong to the process bootstrap.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	linkStateStore    LinkStateStore
	accountLocker     AccountLocker
	accountStore      AccountStore
	flagStore         FlagStore
	provider          IdentityProvider
	cache             AccountCache
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	LinkStateStore    LinkStateStore
	AccountLocker     AccountLocker
	AccountStore      AccountStore
	FlagStore         FlagStore
	Provider          IdentityProvider
	Cache             AccountCache
}

// RepositoryStoreFactory builds stores from a persistence client when only a
// factory was supplied.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("accountlink", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("accountlink"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.linkStateStore == nil {
		builder.linkStateStore = NewMemoryLinkStateStore(defaultLinkStateTTL)
	}
	if builder.accountLocker == nil {
		builder.accountLocker = NewMemoryAccountLocker()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if (builder.accountStore == nil || builder.flagStore == nil) && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				if builder.accountStore == nil {
					builder.accountStore = storeProvider.AccountStore()
				}
				if builder.flagStore == nil {
					builder.flagStore = storeProvider.FlagStore()
				}
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			if builder.accountStore == nil {
				builder.accountStore = storeProvider.AccountStore()
			}
			if builder.flagStore == nil {
				builder.flagStore = storeProvider.FlagStore()
			}
		}
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		linkStateStore:    builder.linkStateStore,
		accountLocker:     builder.accountLocker,
		accountStore:      builder.accountStore,
		flagStore:         builder.flagStore,
		provider:          builder.provider,
		cache:             builder.cache,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		LinkStateStore:    s.linkStateStore,
		AccountLocker:     s.accountLocker,
		AccountStore:      s.accountStore,
		FlagStore:         s.flagStore,
		Provider:          s.provider,
		Cache:             s.cache,
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
