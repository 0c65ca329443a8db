package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConfiguration marks every configuration failure so callers can map it
// to a fatal stop with errors.Is.
var ErrConfiguration = errors.New("configuration error")

// BaseSettings are the recognized top-level knobs of main_config.json.
type BaseSettings struct {
	BaseDataPath               string `json:"base_data_path"`
	LogLevel                   string `json:"log_level"`
	OutputVideoResolution      string `json:"output_video_resolution"`
	DefaultScriptLengthSeconds int    `json:"default_script_length_seconds"`
	MaxRetries                 int    `json:"max_retries"`
	RetryDelaySeconds          int    `json:"retry_delay_seconds"`
	EnableQualityChecks        bool   `json:"enable_quality_checks"`
}

// Config is the merged run configuration. It is loaded once per run and
// never mutated afterwards; stages only ever see scoped Module views.
type Config struct {
	Base           BaseSettings                          `json:"base_settings"`
	Paths          map[string]string                     `json:"paths"`
	Defaults       map[string]json.RawMessage            `json:"defaults"`
	ModuleSpecific map[string]map[string]json.RawMessage `json:"module_specific"`
}

// Load reads and decodes main_config.json. Only the config file's shape is
// validated here; individual module keys are checked lazily when a stage
// asks for them.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfiguration, path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrConfiguration, path, err)
	}

	if cfg.Base.BaseDataPath == "" {
		return nil, fmt.Errorf("%w: base_settings.base_data_path is required", ErrConfiguration)
	}
	if cfg.Base.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: base_settings.max_retries must not be negative", ErrConfiguration)
	}
	if cfg.Paths == nil {
		cfg.Paths = map[string]string{}
	}
	if cfg.Defaults == nil {
		cfg.Defaults = map[string]json.RawMessage{}
	}
	if cfg.ModuleSpecific == nil {
		cfg.ModuleSpecific = map[string]map[string]json.RawMessage{}
	}
	return &cfg, nil
}

// Path resolves a named directory from the paths section against
// base_data_path. Absolute entries are kept as-is.
func (c *Config) Path(name string) (string, error) {
	dir, ok := c.Paths[name]
	if !ok {
		return "", fmt.Errorf("%w: paths.%s is not configured", ErrConfiguration, name)
	}
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	return filepath.Join(c.Base.BaseDataPath, dir), nil
}

// Module returns the scoped view for one pipeline module. The view holds a
// copy of the module's own overrides, so no module can observe another
// module's settings.
func (c *Config) Module(name string) *Module {
	overrides := make(map[string]json.RawMessage, len(c.ModuleSpecific[name]))
	for k, v := range c.ModuleSpecific[name] {
		overrides[k] = v
	}
	return &Module{
		name:      name,
		overrides: overrides,
		defaults:  c.Defaults,
		base:      c.Base,
	}
}
