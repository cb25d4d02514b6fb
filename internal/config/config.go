package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/mediasub/autosub/pkg/log"
)

// Config holds all service configuration.
//
// Values come from an optional YAML file first, then environment variables
// (a .env file is honored via godotenv), so env always wins.
//
// Environment Variables:
// - LISTEN_ADDR: HTTP listen address (default :8080)
// - JOBS_DIR: root directory for per-job namespaces (default jobs)
// - WHISPER_MODEL: path to the whisper model file (default models/ggml-large-v3.bin)
// - FFMPEG_BIN: ffmpeg binary name or path (default ffmpeg)
// - WHISPER_BIN: whisper binary name or path (default whisper-cli)
// - MAX_CONCURRENT_JOBS: cap on simultaneously running pipelines, 0 = unbounded (default 0)
// - LOG_LEVEL: debug|info|warn|error|fatal (default info)
// - LOG_FILE: log file path, empty logs to stdout (default empty)
// - AUTOSUB_CONFIG: YAML config file path (default config.yaml, skipped if absent)

type Config struct {
	ListenAddr        string `yaml:"listen_addr"`
	JobsDir           string `yaml:"jobs_dir"`
	ModelPath         string `yaml:"model_path"`
	FFmpegBin         string `yaml:"ffmpeg_bin"`
	WhisperBin        string `yaml:"whisper_bin"`
	MaxConcurrentJobs int    `yaml:"max_concurrent_jobs"`
	LogLevel          string `yaml:"log_level"`
	LogFile           string `yaml:"log_file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// New builds the configuration from file and environment.
func New(opts ...Option) (*Config, error) {
	// Missing .env is fine; env vars may come from the real environment.
	_ = godotenv.Load()

	config := &Config{
		ListenAddr:        ":8080",
		JobsDir:           "jobs",
		ModelPath:         "models/ggml-large-v3.bin",
		FFmpegBin:         "ffmpeg",
		WhisperBin:        "whisper-cli",
		MaxConcurrentJobs: 0,
		LogLevel:          "info",
	}

	if err := config.loadFile(getEnvString("AUTOSUB_CONFIG", "config.yaml")); err != nil {
		return nil, err
	}

	config.ListenAddr = getEnvString("LISTEN_ADDR", config.ListenAddr)
	config.JobsDir = getEnvString("JOBS_DIR", config.JobsDir)
	config.ModelPath = getEnvString("WHISPER_MODEL", config.ModelPath)
	config.FFmpegBin = getEnvString("FFMPEG_BIN", config.FFmpegBin)
	config.WhisperBin = getEnvString("WHISPER_BIN", config.WhisperBin)
	config.MaxConcurrentJobs = getEnvInt("MAX_CONCURRENT_JOBS", config.MaxConcurrentJobs)
	config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	config.LogFile = getEnvString("LOG_FILE", config.LogFile)

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", config)
	return config, nil
}

// loadFile merges values from a YAML config file when it exists.
func (c *Config) loadFile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open config file %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("WHISPER_MODEL is required")
	}
	if c.JobsDir == "" {
		return fmt.Errorf("JOBS_DIR is required")
	}
	if c.MaxConcurrentJobs < 0 {
		return fmt.Errorf("MAX_CONCURRENT_JOBS must be >= 0")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
