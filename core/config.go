package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultStalenessThreshold        = 7 * 24 * time.Hour
	DefaultCacheMaxSize              = 100
	DefaultCacheInvalidationInterval = time.Hour
)

type CacheConfig struct {
	MaxSize              int           `koanf:"max_size" mapstructure:"max_size"`
	InvalidationInterval time.Duration `koanf:"invalidation_interval" mapstructure:"invalidation_interval"`
}

type FeatureConfig struct {
	DistributionFlags bool `koanf:"distribution_flags" mapstructure:"distribution_flags"`
	Deletion          bool `koanf:"deletion" mapstructure:"deletion"`
}

type ProviderConfig struct {
	AuthURL      string   `koanf:"auth_url" mapstructure:"auth_url"`
	TokenURL     string   `koanf:"token_url" mapstructure:"token_url"`
	IdentityURL  string   `koanf:"identity_url" mapstructure:"identity_url"`
	MemberURL    string   `koanf:"member_url" mapstructure:"member_url"`
	ClientID     string   `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret string   `koanf:"client_secret" mapstructure:"client_secret"`
	RedirectURI  string   `koanf:"redirect_uri" mapstructure:"redirect_uri"`
	Scopes       []string `koanf:"scopes" mapstructure:"scopes"`
}

type Config struct {
	ServiceName        string         `koanf:"service_name" mapstructure:"service_name"`
	StalenessThreshold time.Duration  `koanf:"staleness_threshold" mapstructure:"staleness_threshold"`
	Cache              CacheConfig    `koanf:"cache" mapstructure:"cache"`
	Features           FeatureConfig  `koanf:"features" mapstructure:"features"`
	Provider           ProviderConfig `koanf:"provider" mapstructure:"provider"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:        "accountlink",
		StalenessThreshold: DefaultStalenessThreshold,
		Cache: CacheConfig{
			MaxSize:              DefaultCacheMaxSize,
			InvalidationInterval: DefaultCacheInvalidationInterval,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.StalenessThreshold < 0 {
		return fmt.Errorf("core: staleness_threshold must not be negative")
	}
	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("core: cache.max_size must not be negative")
	}
	if c.Cache.InvalidationInterval < 0 {
		return fmt.Errorf("core: cache.invalidation_interval must not be negative")
	}
	return nil
}

func (c Config) stalenessThreshold() time.Duration {
	if c.StalenessThreshold <= 0 {
		return DefaultStalenessThreshold
	}
	return c.StalenessThreshold
}
