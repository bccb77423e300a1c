package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Render.Scale != nil || cfg.Serve.Addr != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[render]
scale = 1.5
unit = "mi"
svg = false

[serve]
addr = ":9000"
session-ttl = "10m"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Render.Scale == nil || *cfg.Render.Scale != 1.5 {
		t.Fatalf("expected scale 1.5, got %v", cfg.Render.Scale)
	}
	if cfg.Render.Unit == nil || *cfg.Render.Unit != "mi" {
		t.Fatalf("expected unit mi")
	}
	if cfg.Render.SVG == nil || *cfg.Render.SVG {
		t.Fatalf("expected svg=false")
	}
	if cfg.Render.PNG != nil {
		t.Fatalf("expected png unset")
	}
	if cfg.Serve.Addr == nil || *cfg.Serve.Addr != ":9000" {
		t.Fatalf("expected addr :9000")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("expected log level debug")
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[render]\ncolour = \"red\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "render.colour") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != "/cfg/sportsposter/config.toml" {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != "/data/sportsposter/sportsposter.db" {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultOutputDir(); got != "/data/sportsposter/posters" {
		t.Fatalf("unexpected output dir %s", got)
	}
}

type sampleOptions struct {
	OutDir string  `validate:"required"`
	Scale  float64 `validate:"gt=0,lte=4"`
	Format string  `validate:"oneof=text json"`
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(sampleOptions{OutDir: "out", Scale: 2, Format: "json"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := v.Validate(sampleOptions{Scale: 9, Format: "xml"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	want := "invalid options: --format must be one of: text json; --out-dir is required; --scale must be <= 4"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
