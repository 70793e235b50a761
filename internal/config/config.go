// Package config loads the collector's configuration from a TOML file
// (default config/default.toml) with MDCOLLECTOR_* environment variable
// overrides, mirroring the viper/mapstructure pattern used across the
// example pack's market-making bots.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sawpanic/mdcollector/internal/errs"
	"github.com/sawpanic/mdcollector/internal/venue/factory"
)

// Config is the top-level configuration, mapping directly onto the TOML
// file structure described in spec §6.
type Config struct {
	Kafka       KafkaConfig                `mapstructure:"kafka"`
	Redis       RedisConfig                `mapstructure:"redis"`
	Clickhouse  ClickhouseConfig           `mapstructure:"clickhouse"`
	Logging     LoggingConfig              `mapstructure:"logging"`
	HealthCheck HealthCheckConfig          `mapstructure:"health_check"`
	Shutdown    ShutdownConfig             `mapstructure:"shutdown"`
	Exchanges   map[string]ExchangeConfig  `mapstructure:"exchanges"`
}

type KafkaConfig struct {
	BootstrapServers string               `mapstructure:"bootstrap_servers"`
	OrderbookTopic   string               `mapstructure:"orderbook_topic"`
	TradeTopic       string               `mapstructure:"trade_topic"`
	TickerTopic      string               `mapstructure:"ticker_topic"`
	Producer         KafkaProducerConfig  `mapstructure:"producer"`
	Consumer         KafkaConsumerConfig  `mapstructure:"consumer"`
}

type KafkaProducerConfig struct {
	TimeoutMs           int `mapstructure:"timeout_ms"`
	MaxReconnectAttempts int `mapstructure:"max_reconnect_attempts"`
	InitialBackoffMs    int `mapstructure:"initial_backoff_ms"`
	SendTimeoutMs       int `mapstructure:"send_timeout_ms"`
}

type KafkaConsumerConfig struct {
	GroupID string `mapstructure:"group_id"`
}

type RedisConfig struct {
	URL                  string `mapstructure:"url"`
	MaxReconnectAttempts int    `mapstructure:"max_reconnect_attempts"`
	InitialBackoffMs     int    `mapstructure:"initial_backoff_ms"`
}

// ClickhouseConfig is reserved for the long-term store; the core collector
// pipeline does not consume it.
type ClickhouseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HealthCheckConfig struct {
	Port     int    `mapstructure:"port"`
	Endpoint string `mapstructure:"endpoint"`
}

type ShutdownConfig struct {
	TotalTimeoutMs              int `mapstructure:"total_timeout_ms"`
	TaskJoinTimeoutMs           int `mapstructure:"task_join_timeout_ms"`
	KafkaFlushTimeoutMs         int `mapstructure:"kafka_flush_timeout_ms"`
	RedisDrainTimeoutMs         int `mapstructure:"redis_drain_timeout_ms"`
	ExchangeUnsubscribeTimeoutMs int `mapstructure:"exchange_unsubscribe_timeout_ms"`
}

type ExchangeConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Symbols []string `mapstructure:"symbols"`
}

// Load reads config from a TOML file with MDCOLLECTOR_ environment
// variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MDCOLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errs.Wrap(errs.ErrConfig, fmt.Errorf("read config %s: %w", path, err))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrConfig, fmt.Errorf("unmarshal config: %w", err))
	}

	// viper's Unmarshal does not resolve AutomaticEnv overrides for nested
	// keys on its own, so the handful of operationally-overridden fields
	// are re-applied explicitly from the environment.
	if v := os.Getenv("MDCOLLECTOR_KAFKA_BOOTSTRAP_SERVERS"); v != "" {
		cfg.Kafka.BootstrapServers = v
	}
	if v := os.Getenv("MDCOLLECTOR_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, errs.Wrap(errs.ErrConfig, err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("kafka.producer.timeout_ms", 5000)
	v.SetDefault("kafka.producer.max_reconnect_attempts", 3)
	v.SetDefault("kafka.producer.initial_backoff_ms", 1000)
	v.SetDefault("kafka.producer.send_timeout_ms", 100)
	v.SetDefault("kafka.consumer.group_id", "market-data-collectors")

	v.SetDefault("redis.max_reconnect_attempts", 3)
	v.SetDefault("redis.initial_backoff_ms", 1000)

	v.SetDefault("health_check.port", 8080)
	v.SetDefault("health_check.endpoint", "/health")

	v.SetDefault("shutdown.total_timeout_ms", 5000)
	v.SetDefault("shutdown.task_join_timeout_ms", 2500)
	v.SetDefault("shutdown.kafka_flush_timeout_ms", 2000)
	v.SetDefault("shutdown.redis_drain_timeout_ms", 300)
	v.SetDefault("shutdown.exchange_unsubscribe_timeout_ms", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate checks required fields and the exchanges table, returning an
// error describing the first failure. Load classifies that error as
// errs.ErrConfig.
func (c *Config) Validate() error {
	if c.Kafka.BootstrapServers == "" {
		return fmt.Errorf("kafka.bootstrap_servers is required")
	}
	if c.Kafka.OrderbookTopic == "" || c.Kafka.TradeTopic == "" || c.Kafka.TickerTopic == "" {
		return fmt.Errorf("kafka.orderbook_topic, trade_topic, and ticker_topic are all required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required")
	}

	haveEnabled := false
	for name, ex := range c.Exchanges {
		if !ex.Enabled {
			continue
		}
		if !factory.IsSupported(name) {
			return fmt.Errorf("exchanges.%s is enabled but %q is not a supported venue", name, name)
		}
		if len(ex.Symbols) == 0 {
			return fmt.Errorf("exchanges.%s is enabled but has no symbols", name)
		}
		haveEnabled = true
	}
	if !haveEnabled {
		return fmt.Errorf("at least one exchange must be enabled with a non-empty symbol list")
	}

	return nil
}

// Duration helpers translate the *_ms integer fields into time.Duration at
// the call sites that need it, keeping the config struct itself a plain
// mapstructure target.

func (k KafkaProducerConfig) Timeout() time.Duration {
	return time.Duration(k.TimeoutMs) * time.Millisecond
}

func (k KafkaProducerConfig) InitialBackoff() time.Duration {
	return time.Duration(k.InitialBackoffMs) * time.Millisecond
}

func (k KafkaProducerConfig) SendTimeout() time.Duration {
	return time.Duration(k.SendTimeoutMs) * time.Millisecond
}

func (r RedisConfig) InitialBackoff() time.Duration {
	return time.Duration(r.InitialBackoffMs) * time.Millisecond
}

func (s ShutdownConfig) TotalTimeout() time.Duration {
	return time.Duration(s.TotalTimeoutMs) * time.Millisecond
}

func (s ShutdownConfig) TaskJoinTimeout() time.Duration {
	return time.Duration(s.TaskJoinTimeoutMs) * time.Millisecond
}

func (s ShutdownConfig) KafkaFlushTimeout() time.Duration {
	return time.Duration(s.KafkaFlushTimeoutMs) * time.Millisecond
}

func (s ShutdownConfig) RedisDrainTimeout() time.Duration {
	return time.Duration(s.RedisDrainTimeoutMs) * time.Millisecond
}
