package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/fetchchain/internal/chain"
	"github.com/oshokin/fetchchain/internal/constants"
	"github.com/oshokin/fetchchain/internal/logger"
	"github.com/oshokin/fetchchain/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// BaseURL is prepended to relative URLs given on the command line.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Headers are sent with every request unless a request sets them itself.
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
	// ErrorType selects how error bodies are decoded: "text" or "json".
	ErrorType string `mapstructure:"error_type" yaml:"error_type"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// Timeout bounds each request (e.g., "30s", "2m").
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
	// UserAgent is sent when a request has no User-Agent header.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	// MaxLogLength caps each request/response dump at debug level (e.g., "64KB").
	MaxLogLength string `mapstructure:"max_log_length" yaml:"max_log_length"`
	// MaxConcurrentRequests is the maximum number of URLs fetched simultaneously.
	MaxConcurrentRequests int64 `mapstructure:"max_concurrent_requests" yaml:"max_concurrent_requests"`
	// NoColor disables coloured status lines.
	NoColor bool `mapstructure:"no_color" yaml:"no_color"`
	// ParsedErrorMode is the parsed error decoding mode.
	ParsedErrorMode chain.ErrorMode `yaml:"-"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level `yaml:"-"`
	// ParsedTimeout is the parsed request timeout.
	ParsedTimeout time.Duration `yaml:"-"`
	// ParsedMaxLogLength is the parsed dump size limit in bytes.
	ParsedMaxLogLength uint64 `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".fetchchain.yaml"

	// DefaultErrorType is the error decoding mode used when none is configured.
	DefaultErrorType = "text"

	// DefaultLogLevel is the log level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultTimeout is the request timeout used when none is configured.
	DefaultTimeout = "60s"

	// DefaultMaxLogLength is the dump size limit used when none is configured.
	DefaultMaxLogLength = "64KB"

	// DefaultMaxConcurrentRequests is the fan-out used when none is configured.
	DefaultMaxConcurrentRequests = 4

	// envPrefix prefixes environment variables that override config keys.
	envPrefix = "FETCHCHAIN"
)

// Static error definitions for better error handling.
var (
	// ErrInvalidBaseURL indicates that base_url is not an absolute URL.
	ErrInvalidBaseURL = errors.New("base_url must be an absolute URL")
	// ErrEmptyHeaderName indicates that a configured header has an empty name.
	ErrEmptyHeaderName = errors.New("header name cannot be empty")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidTimeout indicates that the timeout is not positive.
	ErrInvalidTimeout = errors.New("timeout must be positive")
	// ErrInvalidConcurrentRequests indicates that the concurrent requests count is invalid.
	ErrInvalidConcurrentRequests = errors.New("max concurrent requests must be a positive integer")
	// ErrConfigExists indicates that SaveConfig would overwrite an existing file.
	ErrConfigExists = errors.New("config file already exists")
)

// Default returns a Config filled with default values.
func Default() *Config {
	return &Config{
		Headers:               map[string]string{},
		ErrorType:             DefaultErrorType,
		LogLevel:              DefaultLogLevel,
		Timeout:               DefaultTimeout,
		MaxLogLength:          DefaultMaxLogLength,
		MaxConcurrentRequests: DefaultMaxConcurrentRequests,
	}
}

// LoadConfig loads configuration settings from a YAML file.
// An empty filename means DefaultConfigFilename, which may be absent:
// in that case the defaults are returned. An explicit filename must exist.
// Every key can be overridden by a FETCHCHAIN_<KEY> environment variable.
func LoadConfig(configFilename string) (*Config, error) {
	allowMissing := configFilename == ""
	if allowMissing {
		configFilename = DefaultConfigFilename
	}

	v := newViper()
	v.SetConfigFile(configFilename)

	if err := v.ReadInConfig(); err != nil {
		if !allowMissing || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	defaults := Default()

	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("headers", defaults.Headers)
	v.SetDefault("error_type", defaults.ErrorType)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("max_log_length", defaults.MaxLogLength)
	v.SetDefault("max_concurrent_requests", defaults.MaxConcurrentRequests)
	v.SetDefault("no_color", defaults.NoColor)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return v
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:cyclop // Validation functions naturally have high complexity due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var err error

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL != "" {
		parsed, parseErr := url.Parse(cfg.BaseURL)
		if parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%w: '%s'", ErrInvalidBaseURL, cfg.BaseURL)
		}
	}

	for name := range cfg.Headers {
		if strings.TrimSpace(name) == "" {
			return ErrEmptyHeaderName
		}
	}

	cfg.ParsedErrorMode, err = chain.ParseErrorMode(cfg.ErrorType)
	if err != nil {
		return err
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	timeout := strings.TrimSpace(cfg.Timeout)
	if timeout == "" {
		timeout = DefaultTimeout
	}

	cfg.ParsedTimeout, err = time.ParseDuration(timeout)
	if err != nil {
		return fmt.Errorf("failed to parse timeout: %w", err)
	}

	if cfg.ParsedTimeout <= 0 {
		return ErrInvalidTimeout
	}

	maxLogLength := strings.TrimSpace(cfg.MaxLogLength)
	if maxLogLength != "" && maxLogLength != "0" {
		cfg.ParsedMaxLogLength, err = humanize.ParseBytes(maxLogLength)
		if err != nil {
			return fmt.Errorf("failed to parse max log length: %w", err)
		}
	}

	if cfg.MaxConcurrentRequests <= 0 {
		return ErrInvalidConcurrentRequests
	}

	return nil
}

// SaveConfig writes cfg as YAML to configFilename. It refuses to overwrite an existing file.
func SaveConfig(cfg *Config, configFilename string) error {
	if configFilename == "" {
		configFilename = DefaultConfigFilename
	}

	exists, err := utils.IsFileExist(configFilename)
	if err != nil {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if exists {
		return fmt.Errorf("%w: %s", ErrConfigExists, configFilename)
	}

	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(configFilename, content, constants.PrivateFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
