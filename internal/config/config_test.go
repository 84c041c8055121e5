package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/epicycle/internal/epicycle"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.MaxVectors != 100 {
		t.Errorf("expected 100 vectors, got %d", cfg.MaxVectors)
	}
	if cfg.StabilityTimeout != 10*time.Second {
		t.Errorf("expected 10s stability timeout, got %v", cfg.StabilityTimeout)
	}
	if cfg.FrameInterval() != time.Second/60 {
		t.Errorf("unexpected frame interval %v", cfg.FrameInterval())
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "epicycle.yaml")
	cfg := DefaultConfig()
	cfg.APIURL = "http://drawings.test:9000"
	cfg.MaxVectors = 300
	cfg.PollInterval = 500 * time.Millisecond
	cfg.Log.Journal = true

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epicycle.yaml")
	data := "api_url: http://example.test\npoll_interval: 2s\nmax_vectors: 9000\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("poll interval = %v", cfg.PollInterval)
	}
	if cfg.MaxVectors != 500 {
		t.Errorf("max vectors not clamped: %d", cfg.MaxVectors)
	}
	if cfg.FPS != DefaultFPS || cfg.Theme != DefaultTheme {
		t.Errorf("defaults lost: fps=%d theme=%q", cfg.FPS, cfg.Theme)
	}
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.APIURL = "" }},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }},
		{"zero stability", func(c *Config) { c.StabilityTimeout = 0 }},
		{"negative pending", func(c *Config) { c.PendingTimeout = -time.Second }},
		{"fps", func(c *Config) { c.FPS = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, epicycle.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	n, ok := GetPreset("detailed")
	if !ok || n != 300 {
		t.Errorf("detailed = %d, %v", n, ok)
	}
	if _, ok := GetPreset("nonexistent"); ok {
		t.Error("expected missing preset")
	}
}

func TestListPresets(t *testing.T) {
	want := []string{"draft", "standard", "detailed", "max"}
	if diff := cmp.Diff(want, ListPresets()); diff != "" {
		t.Errorf("presets mismatch (-want +got):\n%s", diff)
	}
}
