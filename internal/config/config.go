package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/medilens/medilens-api/pkg/messaging/redis"
	"github.com/medilens/medilens-api/pkg/worker"
)

// EnvPrefix prefixes environment overrides, e.g. MEDILENS_DATABASE_HOST.
const EnvPrefix = "medilens"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" split_words:"true"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	History   HistoryConfig   `mapstructure:"history"`
	Security  SecurityConfig  `mapstructure:"security"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" split_words:"true"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" split_words:"true"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" split_words:"true"`
}

type DatabaseConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" split_words:"true"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" split_words:"true"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" split_words:"true"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns int           `mapstructure:"min_idle_conns" split_words:"true"`
	KeyPrefix    string        `mapstructure:"key_prefix" split_words:"true"`
}

func (c RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:           c.URL,
		MaxRetries:    c.MaxRetries,
		RetryBackoff:  c.RetryBackoff,
		PoolSize:      c.PoolSize,
		MinIdleConns:  c.MinIdleConns,
		ChannelPrefix: c.KeyPrefix,
	}
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type CorpusConfig struct {
	Path         string `mapstructure:"path"`
	FallbackPath string `mapstructure:"fallback_path" split_words:"true"`
}

type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int     `mapstructure:"burst"`
}

type OutboxConfig struct {
	BatchSize       int           `mapstructure:"batch_size" split_words:"true"`
	PollInterval    time.Duration `mapstructure:"poll_interval" split_words:"true"`
	RetryAttempts   int           `mapstructure:"retry_attempts" split_words:"true"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" split_words:"true"`
	MaxDeliveries   int           `mapstructure:"max_deliveries" split_words:"true"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" split_words:"true"`
	HealthPort      int           `mapstructure:"health_port" split_words:"true"`
}

func (c OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:       c.BatchSize,
		PollInterval:    c.PollInterval,
		RetryAttempts:   c.RetryAttempts,
		RetryDelay:      c.RetryDelay,
		MaxDeliveries:   c.MaxDeliveries,
		Retention:       c.Retention,
		CleanupInterval: c.CleanupInterval,
	}
}

// HistoryConfig controls how long soft-deleted analyses are kept.
type HistoryConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	PurgeInterval time.Duration `mapstructure:"purge_interval" split_words:"true"`
}

type SecurityConfig struct {
	// EncryptionKey is a 16, 24 or 32 byte AES key for stored prescription text.
	EncryptionKey  string   `mapstructure:"encryption_key" split_words:"true"`
	AllowedOrigins []string `mapstructure:"allowed_origins" split_words:"true"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 20*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "medilens")
	v.SetDefault("database.name", "medilens")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.key_prefix", "medilens:")

	v.SetDefault("jwt.issuer", "medilens")

	v.SetDefault("corpus.path", "training_data.json")
	v.SetDefault("corpus.fallback_path", "../training_data.json")

	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 5.0)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", time.Second)
	v.SetDefault("outbox.max_deliveries", 5)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.cleanup_interval", time.Hour)
	v.SetDefault("outbox.health_port", 8081)

	v.SetDefault("history.retention", 30*24*time.Hour)
	v.SetDefault("history.purge_interval", 6*time.Hour)

	v.SetDefault("security.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
}

// Load reads configuration from path, or from config.yml in the usual
// locations when path is empty, then applies MEDILENS_* environment
// overrides. A missing config.yml is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.Enabled && c.Security.EncryptionKey == "" {
		return errors.New("security.encryption_key is required when the database is enabled")
	}
	switch n := len(c.Security.EncryptionKey); n {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("security.encryption_key must be 16, 24 or 32 bytes, got %d", n)
	}
	if c.Outbox.BatchSize <= 0 || c.Outbox.PollInterval <= 0 || c.Outbox.RetryAttempts <= 0 || c.Outbox.RetryDelay <= 0 {
		return errors.New("outbox batch_size, poll_interval, retry_attempts and retry_delay must be positive")
	}
	return nil
}

// CorpusPaths lists the corpus locations in lookup order.
func (c *Config) CorpusPaths() []string {
	return []string{c.Corpus.Path, c.Corpus.FallbackPath}
}
