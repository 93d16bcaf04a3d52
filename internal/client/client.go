// Package client provides an HTTP client for the Gepetto proxy API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/gepetto/internal/models"
)

// DefaultBaseURL is the proxy address used when none is configured.
const DefaultBaseURL = "http://localhost:3000"

// ErrGenerate wraps every non-2xx answer from /api/generate.
var ErrGenerate = errors.New("generate failed")

// Client talks to the proxy the same way the web client does.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a proxy client.
// If baseURL is empty, uses GEPETTO_PROXY_URL or DefaultBaseURL.
// A zero timeout leaves requests unbounded.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("GEPETTO_PROXY_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the proxy address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Generate sends a prompt through the proxy and returns the generated text.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	reqBody, err := json.Marshal(models.GenerateRequest{Model: model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}

	if status < 200 || status > 299 {
		var apiErr models.APIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrGenerate, apiErr.Error)
		}
		return "", fmt.Errorf("%w: Failed to generate response", ErrGenerate)
	}

	return parseGenerated(body)
}

// Models fetches the model selector entries and the default selection.
func (c *Client) Models(ctx context.Context) ([]models.ModelOption, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/models", nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	body, status, err := c.do(req)
	if err != nil {
		return nil, "", err
	}
	if status != http.StatusOK {
		return nil, "", fmt.Errorf("server error: %d - %s", status, string(body))
	}

	var out struct {
		Models  []models.ModelOption `json:"models"`
		Default string               `json:"default"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, "", fmt.Errorf("unmarshal models: %w", err)
	}
	return out.Models, out.Default, nil
}

// Health checks that the proxy is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	_, status, err := c.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check: status %d", status)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// parseGenerated extracts the reply from a relayed backend body: an object
// with "content" or "response", or a bare JSON string. A body without text
// yields an empty reply.
func parseGenerated(body []byte) (string, error) {
	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		return text, nil
	}

	var resp models.GenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrGenerate, resp.Error)
	}
	return resp.Text(), nil
}
