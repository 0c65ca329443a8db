package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main_config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValid(t *testing.T) {
	path := writeConfig(t, `{
		"base_settings": {
			"base_data_path": "/tmp/autoed",
			"log_level": "debug",
			"max_retries": 2,
			"retry_delay_seconds": 1,
			"enable_quality_checks": true
		},
		"paths": {"script_output_dir": "scripts"},
		"defaults": {"timeout_seconds": 60},
		"module_specific": {
			"script_generator": {"llm_model": "gpt-4o-mini", "temperature": 0.7}
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/autoed", cfg.Base.BaseDataPath)
	assert.Equal(t, 2, cfg.Base.MaxRetries)
	assert.True(t, cfg.Base.EnableQualityChecks)
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, `{"base_settings": `)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadRequiresBaseDataPath(t *testing.T) {
	path := writeConfig(t, `{"base_settings": {"log_level": "info"}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadRejectsNegativeRetries(t *testing.T) {
	path := writeConfig(t, `{"base_settings": {"base_data_path": "/tmp/x", "max_retries": -1}}`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPathResolution(t *testing.T) {
	path := writeConfig(t, `{
		"base_settings": {"base_data_path": "/data/autoed"},
		"paths": {"script_output_dir": "scripts", "log_dir": "/var/log/autoed"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	dir, err := cfg.Path("script_output_dir")
	require.NoError(t, err)
	assert.Equal(t, "/data/autoed/scripts", dir)

	// Absolute entries are kept as-is.
	dir, err = cfg.Path("log_dir")
	require.NoError(t, err)
	assert.Equal(t, "/var/log/autoed", dir)

	_, err = cfg.Path("unknown_dir")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestModuleFallbackAndOverride(t *testing.T) {
	path := writeConfig(t, `{
		"base_settings": {"base_data_path": "/tmp/x"},
		"defaults": {"words_per_minute": 150, "timeout_seconds": 45},
		"module_specific": {
			"script_generator": {"words_per_minute": 120, "llm_model": "gpt-4o-mini"}
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	mod := cfg.Module("script_generator")
	assert.Equal(t, 120, mod.IntOr("words_per_minute", 0))
	assert.Equal(t, 45*time.Second, mod.Timeout())

	model, err := mod.String("llm_model")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", model)

	// Another module falls back to defaults and cannot see the
	// script generator's overrides.
	other := cfg.Module("voice_generator")
	assert.Equal(t, 150, other.IntOr("words_per_minute", 0))
	_, err = other.String("llm_model")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestModuleViewIsolation(t *testing.T) {
	path := writeConfig(t, `{
		"base_settings": {"base_data_path": "/tmp/x"},
		"module_specific": {"animator": {"fps": 30}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	first := cfg.Module("animator")
	first.overrides["fps"] = []byte("60")

	second := cfg.Module("animator")
	assert.Equal(t, 30, second.IntOr("fps", 0))
}

func TestModuleMissingKey(t *testing.T) {
	path := writeConfig(t, `{"base_settings": {"base_data_path": "/tmp/x"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	mod := cfg.Module("uploader")
	_, err = mod.Int("top_n_suggestions")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "uploader")
	assert.Contains(t, err.Error(), "top_n_suggestions")
}

func TestModuleDecodeStructured(t *testing.T) {
	path := writeConfig(t, `{
		"base_settings": {"base_data_path": "/tmp/x"},
		"module_specific": {
			"voice_generator": {
				"voice_profiles": {"calm": {"voice_id": "abc", "stability": 0.4}}
			}
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	var profiles map[string]struct {
		VoiceID   string  `json:"voice_id"`
		Stability float64 `json:"stability"`
	}
	mod := cfg.Module("voice_generator")
	require.NoError(t, mod.Decode("voice_profiles", &profiles))
	assert.Equal(t, "abc", profiles["calm"].VoiceID)
	assert.InDelta(t, 0.4, profiles["calm"].Stability, 1e-9)
}

func TestModuleTypeMismatch(t *testing.T) {
	path := writeConfig(t, `{
		"base_settings": {"base_data_path": "/tmp/x"},
		"module_specific": {"animator": {"fps": "fast"}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.Module("animator").Int("fps")
	assert.ErrorIs(t, err, ErrConfiguration)
}
