package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Tracing  TracingConfig  `yaml:"tracing" envconfig:"TRACING"`
}

// DataConfig locates the raw inputs and the cleaned snapshot tree.
type DataConfig struct {
	// RawDir holds the per-partition raw CSV directories (data_1 .. data_7)
	// and the item metadata workbook.
	RawDir string `yaml:"raw_dir" envconfig:"RAW_DIR" validate:"required"`
	// CleanedDir receives the per-partition parquet snapshots.
	CleanedDir string `yaml:"cleaned_dir" envconfig:"CLEANED_DIR" validate:"required"`
	// OutputDir receives analyzer and feature CSV outputs.
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	// Partitions is the highest partition index to process, counting
	// from 1.
	Partitions int `yaml:"partitions" envconfig:"PARTITIONS" validate:"min=1,max=7"`
}

// AnalysisConfig parameterizes the distribution analyzer and the feature
// builder.
type AnalysisConfig struct {
	BinWidth float64 `yaml:"bin_width" envconfig:"BIN_WIDTH" validate:"gt=0,lte=1"`
	// Epoch anchors the calendar features (elapsed days, week index) of
	// the feature table, formatted as YYYY-MM-DD.
	Epoch string `yaml:"epoch" envconfig:"EPOCH" validate:"datetime=2006-01-02"`
}

// EpochTime parses the configured epoch. Call after validation.
func (a AnalysisConfig) EpochTime() time.Time {
	t, _ := time.Parse("2006-01-02", a.Epoch)
	return t
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

// TracingConfig controls span export.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			RawDir:     "data",
			CleanedDir: "cleaned",
			OutputDir:  "output",
			Partitions: 7,
		},
		Analysis: AnalysisConfig{
			BinWidth: 0.1,
			Epoch:    "2017-01-01",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{},
	}
}

// Load builds the configuration in three layers: built-in defaults, then
// the optional YAML file, then MSOM_* environment variables. The result
// is validated before it is returned.
func Load(configFile string) (*Config, error) {
	cfg := *Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", configFile, err)
			}
		}
	}

	// Environment variables take precedence over the file; fields without
	// a corresponding variable keep their current values.
	if err := envconfig.Process("MSOM", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration against the struct-tag constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}
