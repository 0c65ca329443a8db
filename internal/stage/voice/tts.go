package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/levi616boop/AI-content-gen/internal/common"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
)

const defaultTTSBaseURL = "https://api.elevenlabs.io/v1"

// Profile is one named voice preset from the module configuration.
type Profile struct {
	VoiceID         string  `json:"voice_id"`
	Model           string  `json:"model"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// TTSClient synthesizes narration through an ElevenLabs-style API,
// requesting raw PCM so the WAV is written locally.
type TTSClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *common.Limiter
}

func NewTTSClient(apiKey string, client *http.Client) *TTSClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &TTSClient{
		apiKey:  apiKey,
		baseURL: defaultTTSBaseURL,
		client:  client,
		limiter: common.NewLimiter(2),
	}
}

func (c *TTSClient) WithBaseURL(url string) *TTSClient {
	c.baseURL = url
	return c
}

type ttsRequest struct {
	Text          string      `json:"text"`
	ModelID       string      `json:"model_id"`
	VoiceSettings ttsSettings `json:"voice_settings"`
}

type ttsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize returns 16-bit little-endian mono PCM at the requested
// sample rate.
func (c *TTSClient) Synthesize(ctx context.Context, text string, profile Profile, sampleRate int) ([]byte, error) {
	payload := ttsRequest{
		Text:    text,
		ModelID: profile.Model,
		VoiceSettings: ttsSettings{
			Stability:       profile.Stability,
			SimilarityBoost: profile.SimilarityBoost,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tts request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=pcm_%d", c.baseURL, profile.VoiceID, sampleRate)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.limiter.Release()

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, pipeline.NewStageError("", pipeline.KindTransient, "tts request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, pipeline.NewStageError("", pipeline.KindTransient,
			fmt.Sprintf("tts service returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pipeline.NewStageError("", pipeline.KindPermanent,
			fmt.Sprintf("tts service returned %d", resp.StatusCode), nil)
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipeline.NewStageError("", pipeline.KindTransient, "read tts response", err)
	}
	if len(pcm) == 0 {
		return nil, pipeline.NewStageError("", pipeline.KindPermanent, "tts returned no audio", nil)
	}
	return pcm, nil
}
