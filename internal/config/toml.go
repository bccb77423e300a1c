// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Render RenderConfig `toml:"render"`
	Serve  ServeConfig  `toml:"serve"`
	Log    LogConfig    `toml:"log"`
}

// RenderConfig maps poster output settings.
type RenderConfig struct {
	OutDir *string  `toml:"out-dir"`
	Scale  *float64 `toml:"scale"`
	Unit   *string  `toml:"unit"`
	Title  *string  `toml:"title"`
	Footer *string  `toml:"footer"`
	PNG    *bool    `toml:"png"`
	SVG    *bool    `toml:"svg"`
}

// ServeConfig maps HTTP shell settings.
type ServeConfig struct {
	Addr        *string  `toml:"addr"`
	MaxUploadMB *int     `toml:"max-upload-mb"`
	UploadRPS   *float64 `toml:"upload-rps"`
	UploadBurst *int     `toml:"upload-burst"`
	Sessions    *int     `toml:"sessions"`
	SessionTTL  *string  `toml:"session-ttl"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
	File   *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
