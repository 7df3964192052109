package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	App      AppConfig
	Log      LogConfig
	AWS      AWSConfig
	Tables   TablesConfig
	Queue    QueueConfig
	Redis    RedisConfig
	Tracking TrackingConfig
}

// AppConfig holds process level settings.
type AppConfig struct {
	Name     string
	Env      string
	Port     string
	RunLocal bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AWSConfig holds SDK settings. EndpointOverride points the SDK at
// localstack or similar.
type AWSConfig struct {
	Region           string
	EndpointOverride string
}

// TablesConfig names the DynamoDB tables. An empty name disables the store
// backed by it.
type TablesConfig struct {
	ShopConfig  string
	Categories  string
	Idempotency string
}

// QueueConfig holds the order-tracked SQS queue.
type QueueConfig struct {
	OrdersURL string
}

// RedisConfig holds the category cache connection. Empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// TrackingConfig holds plugin defaults.
type TrackingConfig struct {
	MerchantSiteID   string // used when no shop config table is set
	DefaultShopID    string
	DedupeTTL        time.Duration
	DedupeLease      time.Duration // how long a worker owns an in-progress order
	MetricsNamespace string
}

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables with TRACKING_ prefix (e.g., TRACKING_TABLES_CATEGORIES)
// 2. config.yaml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/divvit-tracking")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("TRACKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "divvit-tracking")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.run_local", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.endpoint_override", "")
	v.SetDefault("tables.shop_config", "")
	v.SetDefault("tables.categories", "")
	v.SetDefault("tables.idempotency", "")
	v.SetDefault("queue.orders_url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 15*time.Minute)
	v.SetDefault("tracking.merchant_site_id", "")
	v.SetDefault("tracking.default_shop_id", "1")
	v.SetDefault("tracking.dedupe_ttl", 48*time.Hour)
	v.SetDefault("tracking.dedupe_lease", 5*time.Minute)
	v.SetDefault("tracking.metrics_namespace", "DivvitTracking")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Port:     v.GetString("app.port"),
			RunLocal: v.GetBool("app.run_local"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		AWS: AWSConfig{
			Region:           v.GetString("aws.region"),
			EndpointOverride: v.GetString("aws.endpoint_override"),
		},
		Tables: TablesConfig{
			ShopConfig:  v.GetString("tables.shop_config"),
			Categories:  v.GetString("tables.categories"),
			Idempotency: v.GetString("tables.idempotency"),
		},
		Queue: QueueConfig{
			OrdersURL: v.GetString("queue.orders_url"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		Tracking: TrackingConfig{
			MerchantSiteID:   v.GetString("tracking.merchant_site_id"),
			DefaultShopID:    v.GetString("tracking.default_shop_id"),
			DedupeTTL:        v.GetDuration("tracking.dedupe_ttl"),
			DedupeLease:      v.GetDuration("tracking.dedupe_lease"),
			MetricsNamespace: v.GetString("tracking.metrics_namespace"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("app.port must not be empty")
	}
	if c.Redis.TTL <= 0 {
		return fmt.Errorf("redis.ttl must be positive, got %s", c.Redis.TTL)
	}
	if c.Tracking.DedupeTTL <= 0 {
		return fmt.Errorf("tracking.dedupe_ttl must be positive, got %s", c.Tracking.DedupeTTL)
	}
	if c.Tracking.DedupeLease <= 0 {
		return fmt.Errorf("tracking.dedupe_lease must be positive, got %s", c.Tracking.DedupeLease)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
