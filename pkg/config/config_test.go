package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depthrefine/pkg/raster"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ModeBilateral, cfg.Filter.Mode)
	assert.Equal(t, 1.0, cfg.Filter.Sigma)
	assert.Equal(t, 2, cfg.Filter.KernelSize)
	assert.Equal(t, 3, cfg.Filter.MedianWindow)
	assert.Positive(t, cfg.Filter.Workers)
	assert.Equal(t, 2*time.Second, cfg.Progress.Interval)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Filter, cfg.Filter)
}

func TestSaveLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Filter.Mode = ModeMedian
	cfg.Filter.Sigma = 2.5
	cfg.Input.DepthScale = 0.001
	cfg.Progress.Interval = 500 * time.Millisecond
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ModeMedian, loaded.Filter.Mode)
	assert.Equal(t, 2.5, loaded.Filter.Sigma)
	assert.Equal(t, 0.001, loaded.Input.DepthScale)
	assert.Equal(t, 500*time.Millisecond, loaded.Progress.Interval)
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "filter:\n  kernelSize: 4\nprogress:\n  interval: 3s\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Filter.KernelSize)
	assert.Equal(t, 1.0, cfg.Filter.Sigma, "unset fields keep their defaults")
	assert.Equal(t, 3*time.Second, cfg.Progress.Interval)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filter: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"mode":          func(c *Config) { c.Filter.Mode = "sharpen" },
		"sigma":         func(c *Config) { c.Filter.Sigma = 0 },
		"kernel":        func(c *Config) { c.Filter.KernelSize = -1 },
		"median window": func(c *Config) { c.Filter.MedianWindow = 0 },
		"median huge":   func(c *Config) { c.Filter.MedianWindow = 1 << 20 },
		"depth scale":   func(c *Config) { c.Input.DepthScale = 0 },
		"channels":      func(c *Config) { c.Input.GuideChannels = 2 },
		"preview":       func(c *Config) { c.Output.PreviewMaxSize = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, raster.ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvMode:       "Gaussian",
		EnvSigma:      "3.5",
		EnvKernelSize: "6",
		EnvWorkers:    "2",
		EnvVerbose:    "false",
	}
	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg, func(k string) string { return env[k] }))
	assert.Equal(t, ModeGaussian, cfg.Filter.Mode)
	assert.Equal(t, 3.5, cfg.Filter.Sigma)
	assert.Equal(t, 6, cfg.Filter.KernelSize)
	assert.Equal(t, 2, cfg.Filter.Workers)
	assert.False(t, cfg.Output.Verbose)

	env = map[string]string{EnvSigma: "wide"}
	assert.Error(t, ApplyEnv(DefaultConfig(), func(k string) string { return env[k] }))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEPTHREFINE_KERNEL_SIZE=5\n"), 0644))
	t.Setenv(EnvKernelSize, "")
	os.Unsetenv(EnvKernelSize)

	cfg := DefaultConfig()
	require.NoError(t, LoadEnv(cfg, path))
	assert.Equal(t, 5, cfg.Filter.KernelSize)

	// A missing file leaves the config untouched
	cfg = DefaultConfig()
	os.Unsetenv(EnvKernelSize)
	require.NoError(t, LoadEnv(cfg, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, 2, cfg.Filter.KernelSize)
}
