package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for runbridge
type Config struct {
	Sensor     SensorConfig     `mapstructure:"sensor"`
	Airflow    AirflowConfig    `mapstructure:"airflow"`
	Downstream DownstreamConfig `mapstructure:"downstream"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cursor     CursorConfig     `mapstructure:"cursor"`
	Redis      RedisConfig      `mapstructure:"redis"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	NATS       NATSConfig       `mapstructure:"nats"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SensorConfig controls polling and time boxing
type SensorConfig struct {
	Name               string        `mapstructure:"name"`
	MinimumInterval    time.Duration `mapstructure:"minimum_interval"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Lookback           time.Duration `mapstructure:"lookback"`
	PageSize           int           `mapstructure:"page_size"`
	DownstreamRunLimit int           `mapstructure:"downstream_run_limit"`
	DefinitionsPath    string        `mapstructure:"definitions_path"`
}

// AirflowConfig holds the upstream REST API settings
type AirflowConfig struct {
	URL      string        `mapstructure:"url"`
	WebURL   string        `mapstructure:"web_url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Insecure bool          `mapstructure:"insecure"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DownstreamConfig selects the downstream run store
type DownstreamConfig struct {
	Backend string `mapstructure:"backend"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnectionString returns a postgres:// URL usable by pgx and golang-migrate.
func (p PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// CursorConfig selects where the sensor cursor is persisted
type CursorConfig struct {
	Backend string `mapstructure:"backend"`
	Key     string `mapstructure:"key"`
}

// RedisConfig holds Redis configuration for the cursor store
type RedisConfig struct {
	URL        string `mapstructure:"url"`
	MaxRetries int    `mapstructure:"max_retries"`
	PoolSize   int    `mapstructure:"pool_size"`
}

// SQLiteConfig holds the SQLite cursor store path
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// NATSConfig holds message bus configuration
type NATSConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// OpenSearchConfig holds the event index configuration
type OpenSearchConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Insecure bool   `mapstructure:"insecure"`
	Index    string `mapstructure:"index"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("sensor.name", "airflow")
	v.SetDefault("sensor.minimum_interval", "1s")
	v.SetDefault("sensor.timeout", "40s")
	v.SetDefault("sensor.lookback", "60s")
	v.SetDefault("sensor.page_size", 100)
	v.SetDefault("sensor.downstream_run_limit", 1000)
	v.SetDefault("sensor.definitions_path", "assets.yaml")

	v.SetDefault("airflow.url", "http://localhost:8080")
	v.SetDefault("airflow.web_url", "")
	v.SetDefault("airflow.username", "admin")
	v.SetDefault("airflow.password", "")
	v.SetDefault("airflow.insecure", false)
	v.SetDefault("airflow.timeout", "30s")

	v.SetDefault("downstream.backend", "memory")

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "runbridge")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "runbridge")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("cursor.backend", "memory")
	v.SetDefault("cursor.key", "")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("sqlite.path", "runbridge.db")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", "2s")

	v.SetDefault("opensearch.enabled", false)
	v.SetDefault("opensearch.url", "https://localhost:9200")
	v.SetDefault("opensearch.username", "admin")
	v.SetDefault("opensearch.password", "")
	v.SetDefault("opensearch.insecure", true)
	v.SetDefault("opensearch.index", "runbridge-events")

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override file config
	v.SetEnvPrefix("RUNBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Downstream.Backend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("invalid downstream.backend %q: must be memory or postgres", c.Downstream.Backend)
	}
	switch c.Cursor.Backend {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("invalid cursor.backend %q: must be memory, redis or sqlite", c.Cursor.Backend)
	}
	if c.Sensor.Name == "" {
		return fmt.Errorf("sensor.name must not be empty")
	}
	if c.Sensor.PageSize <= 0 {
		return fmt.Errorf("sensor.page_size must be positive, got %d", c.Sensor.PageSize)
	}
	return nil
}

// CursorKey returns the store key for the sensor cursor.
func (c *Config) CursorKey() string {
	if c.Cursor.Key != "" {
		return c.Cursor.Key
	}
	return c.Sensor.Name
}
