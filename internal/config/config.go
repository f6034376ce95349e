package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "kafkastats/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// OutputConfig contains artifact output configuration
type OutputConfig struct {
	Dir       string  `yaml:"dir" envconfig:"DIR"`
	LineWidth float64 `yaml:"line_width" envconfig:"LINE_WIDTH" validate:"gt=0"`
	// LegendValid appends valid-point counts to legend labels.
	LegendValid bool `yaml:"legend_valid" envconfig:"LEGEND_VALID"`
	// Annotate adds the small series/const counters to each chart.
	Annotate bool `yaml:"annotate" envconfig:"ANNOTATE"`
}

// PipelineConfig contains the knobs that reach core pipeline behavior
type PipelineConfig struct {
	// ShowEmpty includes series with fewer than two valid points in charts.
	ShowEmpty bool `yaml:"show_empty" envconfig:"SHOW_EMPTY"`
	// DebugData emits the raw dump plus per-chart CSV/summary artifacts.
	DebugData bool `yaml:"debug_data" envconfig:"DEBUG_DATA"`
}

// defaultConfig returns the built-in defaults. File and environment values
// layer on top of these, in that order.
func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/kstats.log",
		},
		Output: OutputConfig{
			Dir:         "kafka_graphs",
			LineWidth:   3.0,
			LegendValid: true,
			Annotate:    true,
		},
	}
}

// Load loads configuration starting from built-in defaults, overlaid by an
// optional YAML config file, overlaid by environment variables. YAML only
// touches keys present in the file and envconfig only touches variables that
// are set, so each layer overrides exactly what it names.
func Load(configFile string) (*Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, apperrors.NewConfigError("failed to load config from file", err)
			}
		}
	}

	if err := envconfig.Process("KSTATS", &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration against struct-level validation rules
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("config validation failed: %v", err), err)
	}
	return nil
}
