package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. EXPLAINER_LLM_API_KEY.
const EnvPrefix = "EXPLAINER"

// ErrInvalidConfig is returned when configuration cannot be read or fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Section names a part of Config that can be validated on its own.
type Section string

// Config sections
const (
	SectionServer   Section = "server"
	SectionDatabase Section = "database"
	SectionStorage  Section = "storage"
	SectionPoller   Section = "poller"
	SectionLLM      Section = "llm"
	SectionClient   Section = "client"
)

// AllSections lists every section of Config.
var AllSections = []Section{
	SectionServer, SectionDatabase, SectionStorage, SectionPoller, SectionLLM, SectionClient,
}

var defaults = map[string]any{
	"server.port":      8080,
	"server.log_level": "info",
	"server.log_file":  "",

	"database.driver": "sqlite",
	"database.url":    "file:explainer.db",

	"storage.upload_dir":    "uploads",
	"storage.output_dir":    "outputs",
	"storage.max_upload_mb": 50,

	"poller.interval":        "10s",
	"poller.job_concurrency": 1,
	"poller.fanout_limit":    0,

	"llm.provider":            "openai",
	"llm.api_key":             "",
	"llm.model":               "gpt-3.5-turbo",
	"llm.max_tokens":          100,
	"llm.temperature":         0.7,
	"llm.base_url":            "",
	"llm.requests_per_second": 0,
	"llm.burst":               1,
	"llm.max_retries":         2,
	"llm.retry_delay":         "1s",

	"client.base_url":      "http://localhost:8080",
	"client.poll_interval": "2s",
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory and EXPLAINER_ environment variables, then validates
// every section. Environment variables take precedence over the file.
func Load() (*Config, error) {
	return LoadFile("", AllSections...)
}

// LoadFile is like Load but reads the config file at path when it is not
// empty, and validates only the given sections (all of them when none are given).
func LoadFile(path string, sections ...Section) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrInvalidConfig, path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: failed to read config file: %v", ErrInvalidConfig, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode configuration: %v", ErrInvalidConfig, err)
	}

	if len(sections) == 0 {
		sections = AllSections
	}
	if err := cfg.Validate(sections...); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the given sections against their validation tags.
func (c *Config) Validate(sections ...Section) error {
	validate := validator.New()

	for _, section := range sections {
		var target any
		switch section {
		case SectionServer:
			target = c.Server
		case SectionDatabase:
			target = c.Database
		case SectionStorage:
			target = c.Storage
		case SectionPoller:
			target = c.Poller
		case SectionLLM:
			target = c.LLM
		case SectionClient:
			target = c.Client
		default:
			return fmt.Errorf("%w: unknown section %q", ErrInvalidConfig, section)
		}

		if err := validate.Struct(target); err != nil {
			return fmt.Errorf("%w: %s validation failed: %v", ErrInvalidConfig, section, err)
		}
	}

	return nil
}
