package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "SCIENCE"

// Load configuration from environment variables and optionally config files.
// A .env file in the working directory is applied first; real environment
// variables win over it. Environment variables take precedence over values
// from config.yaml. Returns a populated Config struct or an error if
// loading/validation fails.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return load(v)
}

// LoadFile reads configuration from an explicit YAML file plus the
// environment, bypassing the config.yaml lookup.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Every key needs a default so AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.dsn", "science.db")
	v.SetDefault("storage.namespace", "science")
	v.SetDefault("storage.quota_bytes", 5*1024*1024)

	v.SetDefault("curriculum.path", "curriculum.json")

	v.SetDefault("content.source", SourceFile)
	v.SetDefault("content.dir", "content")
	v.SetDefault("content.cache_size", 32)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.prompt_template_path", "")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("session.advance_delay", 1500*time.Millisecond)

	v.SetDefault("tasks.worker_count", 2)
	v.SetDefault("tasks.queue_size", 16)
	v.SetDefault("tasks.prefetch_next", true)
}

// Validate checks cfg against its struct tags. LLM settings are only
// checked when the content source needs them.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.StructExcept(cfg, "LLM"); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Content.Source == SourceGemini {
		if err := validate.Struct(cfg.LLM); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}
