package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Poller   PollerConfig   `mapstructure:"poller"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Client   ClientConfig   `mapstructure:"client"`
}

// ServerConfig contains the HTTP server and logging settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// LogFile, when set, receives a copy of every log record as JSON.
	LogFile string `mapstructure:"log_file"`
}

// DatabaseConfig selects the job registry backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	URL    string `mapstructure:"url"    validate:"required"`
}

// StorageConfig locates uploaded documents and result artifacts.
type StorageConfig struct {
	UploadDir   string `mapstructure:"upload_dir"    validate:"required"`
	OutputDir   string `mapstructure:"output_dir"    validate:"required"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" validate:"gt=0"`
}

// PollerConfig controls the background loop that processes pending jobs.
type PollerConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	// JobConcurrency is how many jobs are processed at once. 1 processes
	// jobs strictly one after another.
	JobConcurrency int `mapstructure:"job_concurrency" validate:"gte=1"`
	// FanoutLimit caps concurrent slide requests within a job. 0 means one
	// request per slide, all at once.
	FanoutLimit int `mapstructure:"fanout_limit" validate:"gte=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	Provider          string        `mapstructure:"provider"            validate:"required,oneof=openai gemini anthropic"`
	APIKey            string        `mapstructure:"api_key"             validate:"required"`
	Model             string        `mapstructure:"model"               validate:"required"`
	MaxTokens         int           `mapstructure:"max_tokens"          validate:"gt=0"`
	Temperature       float64       `mapstructure:"temperature"         validate:"gte=0,lte=2"`
	BaseURL           string        `mapstructure:"base_url"            validate:"omitempty,url"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int           `mapstructure:"burst"               validate:"gte=0"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"         validate:"gte=0"`
}

// ClientConfig is used by the CLI commands that talk to a running server.
type ClientConfig struct {
	BaseURL      string        `mapstructure:"base_url"      validate:"required,url"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
}
