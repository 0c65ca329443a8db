package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Module is the scoped configuration view handed to one stage adapter.
// Lookups fall back from module_specific.<module> to defaults; a missing
// key without a caller-supplied fallback is a configuration error.
type Module struct {
	name      string
	overrides map[string]json.RawMessage
	defaults  map[string]json.RawMessage
	base      BaseSettings
}

func (m *Module) Name() string { return m.name }

func (m *Module) Base() BaseSettings { return m.base }

func (m *Module) raw(key string) (json.RawMessage, bool) {
	if v, ok := m.overrides[key]; ok {
		return v, true
	}
	if v, ok := m.defaults[key]; ok {
		return v, true
	}
	return nil, false
}

func (m *Module) missing(key string) error {
	return fmt.Errorf("%w: module_specific.%s.%s is not configured", ErrConfiguration, m.name, key)
}

func (m *Module) decode(key string, v json.RawMessage, out any) error {
	if err := json.Unmarshal(v, out); err != nil {
		return fmt.Errorf("%w: module_specific.%s.%s: %v", ErrConfiguration, m.name, key, err)
	}
	return nil
}

func (m *Module) String(key string) (string, error) {
	v, ok := m.raw(key)
	if !ok {
		return "", m.missing(key)
	}
	var s string
	if err := m.decode(key, v, &s); err != nil {
		return "", err
	}
	return s, nil
}

func (m *Module) StringOr(key, fallback string) string {
	s, err := m.String(key)
	if err != nil {
		return fallback
	}
	return s
}

func (m *Module) Int(key string) (int, error) {
	v, ok := m.raw(key)
	if !ok {
		return 0, m.missing(key)
	}
	var i int
	if err := m.decode(key, v, &i); err != nil {
		return 0, err
	}
	return i, nil
}

func (m *Module) IntOr(key string, fallback int) int {
	i, err := m.Int(key)
	if err != nil {
		return fallback
	}
	return i
}

func (m *Module) Float(key string) (float64, error) {
	v, ok := m.raw(key)
	if !ok {
		return 0, m.missing(key)
	}
	var f float64
	if err := m.decode(key, v, &f); err != nil {
		return 0, err
	}
	return f, nil
}

func (m *Module) FloatOr(key string, fallback float64) float64 {
	f, err := m.Float(key)
	if err != nil {
		return fallback
	}
	return f
}

func (m *Module) Bool(key string) (bool, error) {
	v, ok := m.raw(key)
	if !ok {
		return false, m.missing(key)
	}
	var b bool
	if err := m.decode(key, v, &b); err != nil {
		return false, err
	}
	return b, nil
}

func (m *Module) BoolOr(key string, fallback bool) bool {
	b, err := m.Bool(key)
	if err != nil {
		return fallback
	}
	return b
}

// Timeout reads timeout_seconds for the module, falling back to the
// defaults section and finally to 30s.
func (m *Module) Timeout() time.Duration {
	return time.Duration(m.IntOr("timeout_seconds", 30)) * time.Second
}

// Decode unmarshals a structured key (nested objects such as voice
// profiles or platform settings) into out.
func (m *Module) Decode(key string, out any) error {
	v, ok := m.raw(key)
	if !ok {
		return m.missing(key)
	}
	return m.decode(key, v, out)
}
