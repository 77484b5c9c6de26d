package common

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is resolved once at startup
// and passed by value; nothing reads the environment after LoadConfig returns.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Storage  StorageConfig
	Events   EventsConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "postgres" or "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// StorageConfig holds where uploaded images are written and how long store lookups are cached.
type StorageConfig struct {
	UploadDir     string
	StoreCacheTTL time.Duration
}

// EventsConfig holds the Redis connection used for pipeline events. Empty URL disables publishing.
type EventsConfig struct {
	RedisURL string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// LoadOptions points LoadConfig at optional files.
type LoadOptions struct {
	ConfigFile string // yaml/json/toml; optional
	SecretFile string // {"openai_api_key": "..."}; defaults to secret.json
}

const DefaultSecretFile = "secret.json"

var envBindings = map[string]string{
	"database.driver":             "DB_DRIVER",
	"database.dsn":                "DB_URL",
	"database.max_conns":          "DB_MAX_CONNS",
	"database.min_conns":          "DB_MIN_CONNS",
	"database.max_conn_lifetime":  "DB_MAX_CONN_LIFETIME",
	"database.max_conn_idle_time": "DB_MAX_CONN_IDLE_TIME",
	"database.dial_timeout":       "DB_DIAL_TIMEOUT",
	"database.statement_timeout":  "DB_STATEMENT_TIMEOUT",
	"database.auto_migrate":       "DB_AUTO_MIGRATE",
	"server.grpc_addr":            "GRPC_ADDR",
	"server.metrics_addr":         "METRICS_ADDR",
	"llm.model":                   "OPENAI_MODEL",
	"llm.api_key":                 "OPENAI_API_KEY",
	"llm.base_url":                "OPENAI_BASE_URL",
	"llm.temperature":             "OPENAI_TEMPERATURE",
	"llm.timeout":                 "OPENAI_TIMEOUT",
	"storage.upload_dir":          "UPLOAD_DIR",
	"storage.store_cache_ttl":     "STORE_CACHE_TTL",
	"events.redis_url":            "REDIS_URL",
	"log.level":                   "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("database.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("database.dial_timeout", 3*time.Second)
	v.SetDefault("database.statement_timeout", time.Duration(0))
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.timeout", 45*time.Second)
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.store_cache_ttl", 5*time.Minute)
	v.SetDefault("log.level", "info")
}

// LoadConfig resolves configuration from defaults, an optional config file,
// environment variables and finally the secret file for the API key.
func LoadConfig(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, NewAppError("CONFIG_ERROR", "read config file "+opts.ConfigFile, err)
		}
	}

	cfg := Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(v.GetString("database.driver")),
			DSN:              v.GetString("database.dsn"),
			MaxConns:         v.GetInt32("database.max_conns"),
			MinConns:         v.GetInt32("database.min_conns"),
			MaxConnLifetime:  v.GetDuration("database.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("database.max_conn_idle_time"),
			DialTimeout:      v.GetDuration("database.dial_timeout"),
			StatementTimeout: v.GetDuration("database.statement_timeout"),
			AutoMigrate:      v.GetBool("database.auto_migrate"),
		},
		Server: ServerConfig{
			GRPCAddr:    v.GetString("server.grpc_addr"),
			MetricsAddr: v.GetString("server.metrics_addr"),
		},
		LLM: LLMConfig{
			Model:       v.GetString("llm.model"),
			APIKey:      strings.TrimSpace(v.GetString("llm.api_key")),
			BaseURL:     v.GetString("llm.base_url"),
			Temperature: float32(v.GetFloat64("llm.temperature")),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Storage: StorageConfig{
			UploadDir:     v.GetString("storage.upload_dir"),
			StoreCacheTTL: v.GetDuration("storage.store_cache_ttl"),
		},
		Events: EventsConfig{
			RedisURL: v.GetString("events.redis_url"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}

	if cfg.LLM.APIKey == "" {
		path := opts.SecretFile
		if path == "" {
			path = DefaultSecretFile
		}
		key, err := readSecretKey(path)
		if err != nil {
			return Config{}, err
		}
		cfg.LLM.APIKey = key
	}

	return cfg, nil
}

// readSecretKey returns the openai_api_key from a JSON secret file.
// A missing file is not an error.
func readSecretKey(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", NewAppError("CONFIG_ERROR", "stat secret file", err)
	}
	sv := viper.New()
	sv.SetConfigFile(path)
	sv.SetConfigType("json")
	if err := sv.ReadInConfig(); err != nil {
		return "", NewAppError("CONFIG_ERROR", "read secret file "+path, err)
	}
	return strings.TrimSpace(sv.GetString("openai_api_key")), nil
}

// Validate checks settings that would make the process unusable. A missing
// API key is not fatal; extraction then yields empty results.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported DB_DRIVER %q", c.Database.Driver), ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return NewAppError("CONFIG_ERROR", "OPENAI_TEMPERATURE must be within [0,2]", ErrInvalidInput)
	}
	return nil
}
