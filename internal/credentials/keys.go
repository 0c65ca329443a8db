package credentials

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Keys holds every secret the pipeline can use. Loaded once at process
// start from the environment (optionally seeded from a .env file) and
// held only in memory; nothing here is ever written to disk.
type Keys struct {
	OpenAI     string
	ElevenLabs string
	YouTube    string
	TikTok     string
	Instagram  string
	NATSURL    string
	APISecret  string
}

var mandatory = map[string]string{
	"OPENAI_API_KEY":     "API key for the script generation LLM",
	"ELEVENLABS_API_KEY": "API key for voice synthesis",
	"YOUTUBE_API_KEY":    "API key for YouTube uploads",
}

// Load reads credentials from a .env file (if present) and the process
// environment. Missing mandatory keys are reported together so the
// operator fixes them in one pass.
func Load(envPath string) (*Keys, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Overload(envPath); err != nil {
				return nil, fmt.Errorf("load %s: %w", envPath, err)
			}
		}
	} else {
		_ = godotenv.Load()
	}

	var missing []string
	for name, desc := range mandatory {
		if os.Getenv(name) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", name, desc))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing mandatory credentials: %s", strings.Join(missing, ", "))
	}

	return &Keys{
		OpenAI:     os.Getenv("OPENAI_API_KEY"),
		ElevenLabs: os.Getenv("ELEVENLABS_API_KEY"),
		YouTube:    os.Getenv("YOUTUBE_API_KEY"),
		TikTok:     os.Getenv("TIKTOK_API_KEY"),
		Instagram:  os.Getenv("INSTAGRAM_API_KEY"),
		NATSURL:    os.Getenv("NATS_URL"),
		APISecret:  os.Getenv("AUTOED_API_SECRET"),
	}, nil
}

// Platform returns the upload key for a platform name, empty when the
// platform is not configured.
func (k *Keys) Platform(name string) string {
	switch name {
	case "youtube":
		return k.YouTube
	case "tiktok":
		return k.TikTok
	case "instagram":
		return k.Instagram
	}
	return ""
}
