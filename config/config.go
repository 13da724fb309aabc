// Package config loads the server configuration from an optional YAML
// file with PLANGEN_-prefixed environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	GenAI   GenAIConfig   `mapstructure:"genai"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Sweeper SweeperConfig `mapstructure:"sweeper"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the persistence backend: memory, mongo, or redis.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GenAIConfig configures the external generation service client.
type GenAIConfig struct {
	Endpoint           string  `mapstructure:"endpoint"`
	APIKey             string  `mapstructure:"api_key"`
	Model              string  `mapstructure:"model"`
	MaxTokens          int     `mapstructure:"max_tokens"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst"`
}

// WorkerConfig configures the dispatch trigger and executor.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	Budget         time.Duration `mapstructure:"budget"`
	DispatchBuffer int           `mapstructure:"dispatch_buffer"`
}

// SweeperConfig configures the liveness sweeper.
type SweeperConfig struct {
	Schedule   string        `mapstructure:"schedule"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration. An empty path loads defaults and
// environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PLANGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("store.backend", "memory")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "plangen")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("genai.endpoint", "")
	v.SetDefault("genai.api_key", "")
	v.SetDefault("genai.model", "gemini-1.5-flash")
	v.SetDefault("genai.max_tokens", 4096)
	v.SetDefault("genai.rate_limit_per_second", 1.0)
	v.SetDefault("genai.rate_limit_burst", 1)

	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.budget", 9*time.Minute)
	v.SetDefault("worker.dispatch_buffer", 64)

	v.SetDefault("sweeper.schedule", "@every 1m")
	v.SetDefault("sweeper.stale_after", 15*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
