// Package proxy implements the inference proxy route: it accepts the chat
// client's {model, prompt} body, substitutes the fixed backend model and
// relays the backend's JSON answer.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/raphaelgruber/gepetto/internal/config"
	"github.com/raphaelgruber/gepetto/internal/metrics"
	"github.com/raphaelgruber/gepetto/internal/models"
)

// Error messages returned to the client.
const (
	MsgPromptRequired = "Prompt is required"
	MsgGenerateFailed = "Failed to generate response"
	MsgInternal       = "Internal server error"
)

// maxLoggedBody bounds how much of a backend error body ends up in the log.
const maxLoggedBody = 2048

var (
	// ErrPromptRequired indicates the request carried no prompt.
	ErrPromptRequired = errors.New("prompt is required")

	// ErrBackendStatus indicates the backend answered with a non-2xx status.
	ErrBackendStatus = errors.New("backend returned non-success status")
)

// Recorder receives operation timings.
type Recorder interface {
	RecordTiming(op string, d time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordTiming(string, time.Duration, error) {}

// Config configures a Handler.
type Config struct {
	Backend    config.BackendConfig
	FixedModel string

	// HTTPClient is used for backend calls. Nil means a client without timeout.
	HTTPClient *http.Client
}

// Handler serves POST /api/generate.
// It holds no per-request state and is safe for concurrent use.
type Handler struct {
	backendURL string
	fixedModel string
	httpClient *http.Client
	logger     *slog.Logger
	recorder   Recorder
}

// New creates a proxy handler. logger and recorder may be nil.
func New(cfg Config, logger *slog.Logger, recorder Recorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	fixed := cfg.FixedModel
	if fixed == "" {
		fixed = config.DefaultFixedModel
	}

	return &Handler{
		backendURL: cfg.Backend.URL(),
		fixedModel: fixed,
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
	}
}

// BackendURL returns the endpoint requests are forwarded to.
func (h *Handler) BackendURL() string {
	return h.backendURL
}

// ServeHTTP handles one generate request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status, err := h.serve(w, r)
	h.recorder.RecordTiming(metrics.OpProxyRequest, time.Since(start), err)

	if err != nil && status >= http.StatusInternalServerError {
		h.logger.Error("generate request failed", "status", status, "error", err)
	} else {
		h.logger.Debug("generate request completed", "status", status, "duration_ms", time.Since(start).Milliseconds())
	}
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) (int, error) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		err = fmt.Errorf("decode request: %w", err)
		writeError(w, http.StatusInternalServerError, errorMessage(err))
		return http.StatusInternalServerError, err
	}

	h.logger.Info("received generate request",
		"requested_model", req.Model,
		"prompt_len", len(req.Prompt),
	)

	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, MsgPromptRequired)
		return http.StatusBadRequest, ErrPromptRequired
	}

	// The backend call is not tied to the client connection: once
	// dispatched it runs to completion or failure.
	body, err := h.Forward(context.WithoutCancel(r.Context()), req.Prompt)
	if err != nil {
		msg := errorMessage(err)
		if errors.Is(err, ErrBackendStatus) {
			msg = MsgGenerateFailed
		}
		writeError(w, http.StatusInternalServerError, msg)
		return http.StatusInternalServerError, err
	}

	writeJSON(w, http.StatusOK, body)
	return http.StatusOK, nil
}

// Forward sends prompt to the backend under the fixed model and returns the
// backend's JSON body. Non-2xx answers are logged and wrapped in ErrBackendStatus.
func (h *Handler) Forward(ctx context.Context, prompt string) (json.RawMessage, error) {
	payload, err := json.Marshal(models.GenerateRequest{
		Model:  h.fixedModel,
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal backend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.backendURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	h.logger.Debug("forwarding to backend", "url", h.backendURL, "model", h.fixedModel)

	start := time.Now()
	body, err := h.do(req)
	h.recorder.RecordTiming(metrics.OpBackendCall, time.Since(start), err)
	return body, err
}

func (h *Handler) do(req *http.Request) (json.RawMessage, error) {
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Error("backend error response",
			"status", resp.StatusCode,
			"body", truncate(string(raw), maxLoggedBody),
		)
		return nil, fmt.Errorf("%w: %s", ErrBackendStatus, resp.Status)
	}

	var body json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("parse backend response: %w", err)
	}
	return body, nil
}

func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return MsgInternal
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	body, _ := json.Marshal(models.APIError{Error: msg})
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
