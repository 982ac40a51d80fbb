package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultInputDir     = "images_originales"
	DefaultOutputDir    = "images_comprimidas"
	DefaultQuality      = 80
	DefaultMaxDimension = 1920
	DefaultWorkers      = 1
)

// Config represents the main configuration structure
type Config struct {
	InputDir         string        `mapstructure:"input_dir"`
	OutputDir        string        `mapstructure:"output_dir"`
	Quality          int           `mapstructure:"quality"`
	MaxDimension     int           `mapstructure:"-"` // 0 disables resizing
	Workers          int           `mapstructure:"workers"`
	ConvertTo        string        `mapstructure:"convert_to"`
	PreserveMetadata bool          `mapstructure:"preserve_metadata"`
	Logging          LoggingConfig `mapstructure:"logging"`
	Metrics          MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig contains metrics export settings
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		InputDir:     DefaultInputDir,
		OutputDir:    DefaultOutputDir,
		Quality:      DefaultQuality,
		MaxDimension: DefaultMaxDimension,
		Workers:      DefaultWorkers,
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	v := viper.New()

	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config file in current directory and home directory
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.image-compressor")
		v.AddConfigPath("/etc/image-compressor")
	}

	setDefaults(v, config)

	// Enable environment variable support
	v.SetEnvPrefix("IMAGE_COMPRESSOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// max_dimension accepts "none" as well as numbers, so it bypasses Unmarshal.
	config.MaxDimension = ParseMaxDimension(v.GetString("max_dimension"))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("input_dir", c.InputDir)
	v.SetDefault("output_dir", c.OutputDir)
	v.SetDefault("quality", c.Quality)
	v.SetDefault("max_dimension", strconv.Itoa(c.MaxDimension))
	v.SetDefault("workers", c.Workers)
	v.SetDefault("convert_to", c.ConvertTo)
	v.SetDefault("preserve_metadata", c.PreserveMetadata)
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)
	v.SetDefault("logging.file_path", c.Logging.FilePath)
	v.SetDefault("logging.max_size", c.Logging.MaxSize)
	v.SetDefault("logging.max_backups", c.Logging.MaxBackups)
	v.SetDefault("logging.max_age", c.Logging.MaxAge)
	v.SetDefault("logging.compress", c.Logging.Compress)
	v.SetDefault("metrics.textfile_path", c.Metrics.TextfilePath)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	c.InputDir = expandPath(c.InputDir)
	c.OutputDir = expandPath(c.OutputDir)

	if c.InputDir == "" {
		return fmt.Errorf("input_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	c.Quality = ClampQuality(c.Quality)

	if c.MaxDimension < 0 {
		return fmt.Errorf("invalid max_dimension: %d (use 0 or none to disable resizing)", c.MaxDimension)
	}

	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}

	c.ConvertTo = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.ConvertTo), "."))
	validFormats := map[string]bool{
		"":     true,
		"jpg":  true,
		"jpeg": true,
		"png":  true,
		"webp": true,
	}
	if !validFormats[c.ConvertTo] {
		return fmt.Errorf("invalid convert_to: %s (valid: jpg, jpeg, png, webp)", c.ConvertTo)
	}

	// Validate logging settings
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	return nil
}

// ClampQuality bounds q to the 0-100 range accepted by the encoders.
func ClampQuality(q int) int {
	return min(max(q, 0), 100)
}

// ParseQuality reads a user-supplied quality. Blank or non-numeric input
// yields DefaultQuality.
func ParseQuality(input string) int {
	q, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return DefaultQuality
	}
	return ClampQuality(q)
}

// ParseMaxDimension reads a user-supplied maximum dimension. Blank input
// yields DefaultMaxDimension, a plain number is used as is and any other
// token (such as "none") disables resizing by returning 0.
func ParseMaxDimension(input string) int {
	input = strings.TrimSpace(input)
	if input == "" {
		return DefaultMaxDimension
	}
	if !isDigits(input) {
		return 0
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		return 0
	}
	return n
}

// Helper functions

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	expandedPath := os.ExpandEnv(path)
	if strings.HasPrefix(expandedPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expandedPath
		}
		expandedPath = filepath.Join(home, expandedPath[1:])
	}
	return expandedPath
}
