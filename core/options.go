package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig     Config
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

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithLinkStateStore(store LinkStateStore) Option {
	return func(b *serviceBuilder) {
		b.linkStateStore = store
	}
}

func WithAccountLocker(locker AccountLocker) Option {
	return func(b *serviceBuilder) {
		b.accountLocker = locker
	}
}

func WithAccountStore(store AccountStore) Option {
	return func(b *serviceBuilder) {
		b.accountStore = store
	}
}

func WithFlagStore(store FlagStore) Option {
	return func(b *serviceBuilder) {
		b.flagStore = store
	}
}

func WithIdentityProvider(provider IdentityProvider) Option {
	return func(b *serviceBuilder) {
		b.provider = provider
	}
}

func WithAccountCache(cache AccountCache) Option {
	return func(b *serviceBuilder) {
		b.cache = cache
	}
}

func defaultServiceBuilder(cfg Config) serviceBuilder {
	return serviceBuilder{
		runtimeConfig:   cfg,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     defaultErrorMapper,
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	return serviceErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || cfg.StalenessThreshold > 0 {
		layer["staleness_threshold"] = cfg.StalenessThreshold
	}

	cacheLayer := map[string]any{}
	if includeZero || cfg.Cache.MaxSize > 0 {
		cacheLayer["max_size"] = cfg.Cache.MaxSize
	}
	if includeZero || cfg.Cache.InvalidationInterval > 0 {
		cacheLayer["invalidation_interval"] = cfg.Cache.InvalidationInterval
	}
	if len(cacheLayer) > 0 {
		layer["cache"] = cacheLayer
	}

	if includeZero || cfg.Features.DistributionFlags || cfg.Features.Deletion {
		layer["features"] = map[string]any{
			"distribution_flags": cfg.Features.DistributionFlags,
			"deletion":           cfg.Features.Deletion,
		}
	}

	providerLayer := map[string]any{}
	for key, value := range map[string]string{
		"auth_url":      cfg.Provider.AuthURL,
		"token_url":     cfg.Provider.TokenURL,
		"identity_url":  cfg.Provider.IdentityURL,
		"member_url":    cfg.Provider.MemberURL,
		"client_id":     cfg.Provider.ClientID,
		"client_secret": cfg.Provider.ClientSecret,
		"redirect_uri":  cfg.Provider.RedirectURI,
	} {
		if includeZero || strings.TrimSpace(value) != "" {
			providerLayer[key] = value
		}
	}
	if includeZero || len(cfg.Provider.Scopes) > 0 {
		providerLayer["scopes"] = append([]string(nil), cfg.Provider.Scopes...)
	}
	if len(providerLayer) > 0 {
		layer["provider"] = providerLayer
	}

	return layer
}
