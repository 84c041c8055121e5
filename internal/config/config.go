package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/epicycle/internal/api"
	"github.com/san-kum/epicycle/internal/epicycle"
	"github.com/san-kum/epicycle/internal/stroke"
)

const (
	DefaultPollInterval     = time.Second
	DefaultStabilityTimeout = 10 * time.Second
	DefaultPendingTimeout   = 2 * time.Minute
	DefaultRequestTimeout   = 10 * time.Second
	DefaultFPS              = 60
	DefaultTheme            = "cyberpunk"
	DefaultDataDir          = "drawings"
)

type Config struct {
	APIURL           string        `yaml:"api_url"`
	MaxVectors       int           `yaml:"max_vectors"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	StabilityTimeout time.Duration `yaml:"stability_timeout"`
	PendingTimeout   time.Duration `yaml:"pending_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	FPS              int           `yaml:"fps"`
	Theme            string        `yaml:"theme"`
	DataDir          string        `yaml:"data_dir"`
	Log              LogConfig     `yaml:"log"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Journal bool   `yaml:"journal"`
}

func DefaultConfig() *Config {
	return &Config{
		APIURL:           api.DefaultBaseURL,
		MaxVectors:       stroke.DefaultMaxVectors,
		PollInterval:     DefaultPollInterval,
		StabilityTimeout: DefaultStabilityTimeout,
		PendingTimeout:   DefaultPendingTimeout,
		RequestTimeout:   DefaultRequestTimeout,
		FPS:              DefaultFPS,
		Theme:            DefaultTheme,
		DataDir:          DefaultDataDir,
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(os.TempDir(), "epicycle.log"),
		},
	}
}

// Load reads a yaml file over the defaults. Fields absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.APIURL == "":
		return epicycle.Invalid("api_url is empty")
	case c.PollInterval <= 0:
		return epicycle.Invalid("poll_interval must be positive, got %v", c.PollInterval)
	case c.StabilityTimeout <= 0:
		return epicycle.Invalid("stability_timeout must be positive, got %v", c.StabilityTimeout)
	case c.PendingTimeout < 0:
		return epicycle.Invalid("pending_timeout must not be negative, got %v", c.PendingTimeout)
	case c.RequestTimeout < 0:
		return epicycle.Invalid("request_timeout must not be negative, got %v", c.RequestTimeout)
	case c.FPS < 1 || c.FPS > 240:
		return epicycle.Invalid("fps must be within [1, 240], got %d", c.FPS)
	}
	c.MaxVectors = stroke.ClampMaxVectors(c.MaxVectors)
	return nil
}

// FrameInterval is the delay between animation frames.
func (c *Config) FrameInterval() time.Duration {
	fps := c.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
