package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ELEVENLABS_API_KEY", "el-test")
	t.Setenv("YOUTUBE_API_KEY", "yt-test")
	t.Setenv("TIKTOK_API_KEY", "")
	t.Setenv("AUTOED_API_SECRET", "hunter2")

	keys, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", keys.OpenAI)
	assert.Equal(t, "el-test", keys.ElevenLabs)
	assert.Equal(t, "hunter2", keys.APISecret)
}

func TestLoadReportsAllMissingKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("YOUTUBE_API_KEY", "yt-test")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "ELEVENLABS_API_KEY")
	assert.NotContains(t, err.Error(), "YOUTUBE_API_KEY")
}

func TestLoadFromEnvFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("YOUTUBE_API_KEY", "")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"OPENAI_API_KEY=from-file\nELEVENLABS_API_KEY=el\nYOUTUBE_API_KEY=yt\n"), 0o600))

	keys, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-file", keys.OpenAI)
}

func TestPlatformLookup(t *testing.T) {
	keys := &Keys{YouTube: "a", TikTok: "b"}
	assert.Equal(t, "a", keys.Platform("youtube"))
	assert.Equal(t, "b", keys.Platform("tiktok"))
	assert.Empty(t, keys.Platform("instagram"))
	assert.Empty(t, keys.Platform("vimeo"))
}
