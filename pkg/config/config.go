// Package config provides configuration loading and management for depthrefine.
// It handles loading configuration from YAML files, environment overrides and
// provides default values.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"depthrefine/pkg/median"
	"depthrefine/pkg/raster"
)

// Filter modes
const (
	ModeBilateral = "bilateral"
	ModeMedian    = "median"
	ModeGaussian  = "gaussian"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Filter parameters
	Filter struct {
		// Mode selects the filter: bilateral, median or gaussian
		Mode string `yaml:"mode"`

		// Sigma is the spatial standard deviation in guide pixels
		Sigma float64 `yaml:"sigma"`

		// KernelSize is the half width of the filter window
		KernelSize int `yaml:"kernelSize"`

		// MedianWindow is the side length of the median window
		MedianWindow int `yaml:"medianWindow"`

		// Workers is the number of goroutines filtering rows in parallel
		Workers int `yaml:"workers"`
	} `yaml:"filter"`

	// Input parameters
	Input struct {
		// DepthScale converts stored integer depth units to depth values
		DepthScale float64 `yaml:"depthScale"`

		// GuideChannels forces 1 (luminance) or 3 (RGB) guide channels; 0 keeps the source layout
		GuideChannels int `yaml:"guideChannels"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// SaveIntermediaryResults determines whether to save preview images of each stage
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where stage previews are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// PreviewMaxSize bounds the longer side of preview images; 0 keeps full size
		PreviewMaxSize int `yaml:"previewMaxSize"`
	} `yaml:"output"`

	// Progress reporting for batch runs
	Progress struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"progress"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Filter.Mode = ModeBilateral
	cfg.Filter.Sigma = 1.0
	cfg.Filter.KernelSize = 2
	cfg.Filter.MedianWindow = 3
	cfg.Filter.Workers = runtime.NumCPU()

	cfg.Input.DepthScale = 1.0
	cfg.Input.GuideChannels = 0

	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Verbose = true
	cfg.Output.PreviewMaxSize = 512

	cfg.Progress.Enabled = true
	cfg.Progress.Interval = 2 * time.Second

	return cfg
}

// Validate checks that all values are within their documented domain
func (c *Config) Validate() error {
	switch c.Filter.Mode {
	case ModeBilateral, ModeMedian, ModeGaussian:
	default:
		return errors.Wrapf(raster.ErrInvalidArgument, "unknown filter mode %q", c.Filter.Mode)
	}
	if !(c.Filter.Sigma > 0) || math.IsInf(c.Filter.Sigma, 0) {
		return errors.Wrapf(raster.ErrInvalidArgument, "sigma must be positive, got %v", c.Filter.Sigma)
	}
	if c.Filter.KernelSize < 0 {
		return errors.Wrapf(raster.ErrInvalidArgument, "kernel size must be >= 0, got %d", c.Filter.KernelSize)
	}
	if c.Filter.MedianWindow < 1 || c.Filter.MedianWindow > median.MaxWindowSize {
		return errors.Wrapf(raster.ErrInvalidArgument,
			"median window must be in [1, %d], got %d", median.MaxWindowSize, c.Filter.MedianWindow)
	}
	if !(c.Input.DepthScale > 0) || math.IsInf(c.Input.DepthScale, 0) {
		return errors.Wrapf(raster.ErrInvalidArgument, "depth scale must be positive, got %v", c.Input.DepthScale)
	}
	switch c.Input.GuideChannels {
	case 0, 1, 3:
	default:
		return errors.Wrapf(raster.ErrInvalidArgument, "guide channels must be 0, 1 or 3, got %d", c.Input.GuideChannels)
	}
	if c.Output.PreviewMaxSize < 0 {
		return errors.Wrapf(raster.ErrInvalidArgument, "preview size must be >= 0, got %d", c.Output.PreviewMaxSize)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Environment variables read by ApplyEnv
const (
	EnvMode       = "DEPTHREFINE_MODE"
	EnvSigma      = "DEPTHREFINE_SIGMA"
	EnvKernelSize = "DEPTHREFINE_KERNEL_SIZE"
	EnvWorkers    = "DEPTHREFINE_WORKERS"
	EnvVerbose    = "DEPTHREFINE_VERBOSE"
)

// LoadEnv loads the optional dotenv file at envPath into the process
// environment (existing variables win) and applies the overrides to cfg.
// A missing file is not an error.
func LoadEnv(cfg *Config, envPath string) error {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading env file: %w", err)
			}
		}
	}
	return ApplyEnv(cfg, os.Getenv)
}

// ApplyEnv overrides cfg fields from the DEPTHREFINE_* variables returned
// by getenv. Empty variables are skipped.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvMode)); v != "" {
		cfg.Filter.Mode = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvSigma)); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "parse %s", EnvSigma)
		}
		cfg.Filter.Sigma = f
	}
	if v := strings.TrimSpace(getenv(EnvKernelSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parse %s", EnvKernelSize)
		}
		cfg.Filter.KernelSize = n
	}
	if v := strings.TrimSpace(getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parse %s", EnvWorkers)
		}
		cfg.Filter.Workers = n
	}
	if v := strings.TrimSpace(getenv(EnvVerbose)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "parse %s", EnvVerbose)
		}
		cfg.Output.Verbose = b
	}
	return nil
}
