// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for benchmark outputs (always absolute)
	LogLevel string
	Port     int
	DevMode  bool
	Archive  *ArchiveConfig
}

// ArchiveConfig holds the S3-compatible archive settings. Credentials come
// from the environment or the standard AWS credentials chain.
type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional custom endpoint (e.g. MinIO, R2)
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether the archive is configured.
func (a *ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory, resolve to absolute path, ensure it exists
	dataDir := getEnv("OPTIBENCH_DATA_DIR", "")
	if dataDir == "" {
		dataDir = filepath.Join(".", "data")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("OPTIBENCH_PORT", 8001),
		DevMode:  getEnvAsBool("OPTIBENCH_DEV_MODE", false),
		LogLevel: getEnv("OPTIBENCH_LOG_LEVEL", "info"),
		Archive: &ArchiveConfig{
			Bucket:          getEnv("OPTIBENCH_ARCHIVE_BUCKET", ""),
			Region:          getEnv("OPTIBENCH_ARCHIVE_REGION", "auto"),
			Endpoint:        getEnv("OPTIBENCH_ARCHIVE_ENDPOINT", ""),
			AccessKeyID:     getEnv("OPTIBENCH_ARCHIVE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("OPTIBENCH_ARCHIVE_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// HistoriesDir returns the directory holding performance history files.
func (c *Config) HistoriesDir() string {
	return filepath.Join(c.DataDir, "histories")
}

// ResultsPath returns the path of the results index file.
func (c *Config) ResultsPath() string {
	return filepath.Join(c.DataDir, "results.json")
}

// CatalogPath returns the path of the run catalog database.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// CachePath returns the path of the history cache file.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "histories.cache")
}

// ReportDir returns the directory the report is generated into.
func (c *Config) ReportDir() string {
	return filepath.Join(c.DataDir, "report")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
