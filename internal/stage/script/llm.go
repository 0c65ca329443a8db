package script

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

const defaultChatEndpoint = "https://api.openai.com/v1/chat/completions"

// LLMClient generates text through an OpenAI-style chat completion API.
// The shared limiter caps in-flight completions across concurrent jobs.
type LLMClient struct {
	apiKey   string
	endpoint string
	client   *http.Client
	limiter  *common.Limiter
}

func NewLLMClient(apiKey string, client *http.Client) *LLMClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &LLMClient{
		apiKey:   apiKey,
		endpoint: defaultChatEndpoint,
		client:   client,
		limiter:  common.NewLimiter(2),
	}
}

// WithEndpoint overrides the API endpoint, used by tests and self-hosted
// gateways.
func (c *LLMClient) WithEndpoint(url string) *LLMClient {
	c.endpoint = url
	return c
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends the rendered prompt and returns the raw script text.
// Network failures and 5xx/429 responses are transient; everything else
// is permanent.
func (c *LLMClient) Generate(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error) {
	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	defer c.limiter.Release()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", pipeline.NewStageError("", pipeline.KindTransient, "llm request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pipeline.NewStageError("", pipeline.KindTransient, "read llm response", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", pipeline.NewStageError("", pipeline.KindTransient,
			fmt.Sprintf("llm service returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", pipeline.NewStageError("", pipeline.KindPermanent,
			fmt.Sprintf("llm service returned %d: %s", resp.StatusCode, truncate(string(raw), 200)), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", pipeline.NewStageError("", pipeline.KindPermanent, "decode llm response", err)
	}
	if parsed.Error != nil {
		return "", pipeline.NewStageError("", pipeline.KindPermanent, parsed.Error.Message, nil)
	}
	if len(parsed.Choices) == 0 {
		return "", pipeline.NewStageError("", pipeline.KindPermanent, "llm returned no choices", nil)
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
