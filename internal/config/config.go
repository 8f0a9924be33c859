package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage" validate:"required"`
	Curriculum CurriculumConfig `mapstructure:"curriculum" validate:"required"`
	Content    ContentConfig    `mapstructure:"content" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Session    SessionConfig    `mapstructure:"session" validate:"required"`
	Tasks      TasksConfig      `mapstructure:"tasks" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	Driver    string `mapstructure:"driver" validate:"required,oneof=memory sqlite postgres redis"`
	DSN       string `mapstructure:"dsn" validate:"required_unless=Driver memory"`
	Namespace string `mapstructure:"namespace" validate:"required,excludesall=:"`
	// QuotaBytes caps the memory backend. Zero means unlimited.
	QuotaBytes int `mapstructure:"quota_bytes" validate:"gte=0"`
}

// CurriculumConfig points at the static curriculum document.
type CurriculumConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// Content sources.
const (
	SourceFile   = "file"
	SourceGemini = "gemini"
)

// ContentConfig selects where lesson content comes from.
type ContentConfig struct {
	Source    string `mapstructure:"source" validate:"required,oneof=file gemini"`
	Dir       string `mapstructure:"dir" validate:"required_if=Source file"`
	CacheSize int    `mapstructure:"cache_size" validate:"gte=0"`
}

// LLMConfig contains all LLM integration related settings.
// It is only validated when lessons are generated with Gemini.
type LLMConfig struct {
	GeminiAPIKey       string  `mapstructure:"gemini_api_key" validate:"required"`
	ModelName          string  `mapstructure:"model_name" validate:"required"`
	Temperature        float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	PromptTemplatePath string  `mapstructure:"prompt_template_path"`
	MaxRetries         int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds  int     `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=60"`
}

// SessionConfig tunes the lesson session controller.
type SessionConfig struct {
	AdvanceDelay time.Duration `mapstructure:"advance_delay" validate:"gt=0"`
}

// TasksConfig sizes the background worker pool used for lesson prefetch.
type TasksConfig struct {
	WorkerCount  int  `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize    int  `mapstructure:"queue_size" validate:"gte=1"`
	PrefetchNext bool `mapstructure:"prefetch_next"`
}
