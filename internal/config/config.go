package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	ModelRoot          string        `yaml:"model_root"`
	OutputDir          string        `yaml:"output_dir"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`

	// Optional Azure artifact upload; disabled when the account is empty.
	AzureAccount   string `yaml:"azure_account"`
	AzureKey       string `yaml:"azure_key"`
	AzureContainer string `yaml:"azure_container"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// ArtifactUploadEnabled reports whether stored outputs should also be
// uploaded to Azure blob storage.
func (c *Config) ArtifactUploadEnabled() bool {
	return c.AzureAccount != "" && c.AzureKey != "" && c.AzureContainer != ""
}

// LoadFromEnv builds the configuration from environment variables, with an
// optional YAML overlay read from the file named by CONFIG_FILE. Environment
// values win over file values; both win over defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               "0.0.0.0",
		Port:               "8080",
		ModelRoot:          "models",
		OutputDir:          "",
		FetchTimeout:       30 * time.Second,
		RequestTimeout:     60 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024, // 10MB
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	cfg.Host = getEnvOrDefault("HOST", cfg.Host)
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.ModelRoot = getEnvOrDefault("MODEL_ROOT", cfg.ModelRoot)
	cfg.OutputDir = getEnvOrDefault("OUTPUT_DIR", cfg.OutputDir)
	cfg.FetchTimeout = parseDurationOrDefault("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.MaxRequestBodySize = parseIntOrDefault("MAX_REQUEST_BODY_SIZE", cfg.MaxRequestBodySize)
	cfg.AzureAccount = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", cfg.AzureAccount)
	cfg.AzureKey = getEnvOrDefault("AZURE_STORAGE_KEY", cfg.AzureKey)
	cfg.AzureContainer = getEnvOrDefault("AZURE_ARTIFACT_CONTAINER", cfg.AzureContainer)

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.ModelRoot == "" {
		return nil, fmt.Errorf("MODEL_ROOT must not be empty")
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.FetchTimeout <= 0 || cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got fetch=%s, request=%s)",
			cfg.FetchTimeout, cfg.RequestTimeout)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
