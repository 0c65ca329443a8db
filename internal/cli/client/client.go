// Package client is the small HTTP helper for CLI commands that talk to
// a running pipeline server.
package client

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var serverURL = "http://localhost:8080"

func init() {
	if env := os.Getenv("AUTOED_SERVER"); env != "" {
		serverURL = env
	}
}

func tokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".autoed_token"
	}
	return filepath.Join(home, ".autoed_token")
}

// SaveToken persists the login token for subsequent commands.
func SaveToken(t string) error {
	return os.WriteFile(tokenPath(), []byte(t), 0o600)
}

func loadToken() string {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func SendRequest(method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return nil, err
	}
	if token := loadToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return http.DefaultClient.Do(req)
}

func ReadResponseBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, fmt.Errorf("empty response")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	return body, nil
}
