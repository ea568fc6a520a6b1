package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/mylar3d/mylar/pkg/stencil"
)

// Config is the on-disk TOML configuration for the server.
type Config struct {
	Listen      string        `toml:"listen"`
	StaticDir   string        `toml:"static_dir"`
	HistoryDB   string        `toml:"history_db"`
	MaxUploadMB int64         `toml:"max_upload_mb"`
	Potrace     string        `toml:"potrace"`
	Defaults    ParamDefaults `toml:"defaults"`
}

// ParamDefaults are the conversion parameters used when a request omits the
// corresponding form field.
type ParamDefaults struct {
	WidthMM       float64 `toml:"width_mm"`
	ThicknessMM   float64 `toml:"thickness_mm"`
	BorderMM      float64 `toml:"border_mm"`
	MaxResolution int     `toml:"max_resolution"`
}

// Params converts the defaults into pipeline parameters.
func (d ParamDefaults) Params() stencil.Params {
	return stencil.Params{
		WidthMM:       d.WidthMM,
		ThicknessMM:   d.ThicknessMM,
		BorderMM:      d.BorderMM,
		MaxResolution: d.MaxResolution,
	}
}

func defaultConfig() Config {
	return Config{
		Listen:      ":8080",
		StaticDir:   "static",
		HistoryDB:   "mylar.db",
		MaxUploadMB: 16,
		Defaults: ParamDefaults{
			WidthMM:     150,
			ThicknessMM: 0.8,
			BorderMM:    3,
		},
	}
}

// loadConfig reads a TOML config file over the built-in defaults. An empty
// path returns the defaults unchanged.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
