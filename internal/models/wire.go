package models

import "encoding/json"

// GenerateRequest is the body accepted by POST /api/generate and forwarded to the backend.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// GenerateResponse is the subset of the backend body the chat client reads.
// Backends answer with either "content" or the Ollama-style "response" field.
type GenerateResponse struct {
	Content  string `json:"content,omitempty"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Text returns the generated text, preferring "content" over "response".
func (r GenerateResponse) Text() string {
	if r.Content != "" {
		return r.Content
	}
	return r.Response
}

// APIError is the error body returned by the proxy.
type APIError struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}
