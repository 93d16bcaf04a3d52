// Package backend is a local stand-in for the remote inference service.
// It speaks the same {model, prompt} -> {model, response, created_at, done}
// contract and delegates generation to an LLM provider.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/raphaelgruber/gepetto/internal/llm"
	"github.com/raphaelgruber/gepetto/internal/metrics"
)

// Generator produces text for a prompt. llm.Model satisfies it.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Recorder receives operation timings.
type Recorder interface {
	RecordTiming(op string, d time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordTiming(string, time.Duration, error) {}

// Request is the body accepted by POST /generate.
type Request struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
}

// Response is returned on success.
type Response struct {
	Model     string    `json:"model"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
	Done      bool      `json:"done"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves POST /generate.
type Handler struct {
	gen      Generator
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// NewHandler creates a backend handler. logger and recorder may be nil.
func NewHandler(gen Generator, logger *slog.Logger, recorder Recorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Handler{gen: gen, logger: logger, recorder: recorder, now: time.Now}
}

// ServeHTTP handles one generate request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}

	h.logger.Info("generating", "model", req.Model, "prompt_len", len(req.Prompt))

	start := time.Now()
	text, err := h.gen.GenerateWithSystem(r.Context(), req.System, req.Prompt)
	h.recorder.RecordTiming(metrics.OpLLMGenerate, time.Since(start), err)
	if err != nil {
		// Fatal provider errors (credentials, quota, billing) will not clear
		// on retry and are reported as the backend being unavailable.
		if errors.Is(err, llm.ErrFatalAPI) {
			h.logger.Error("provider unavailable", "model", req.Model, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Warn("generation failed", "model", req.Model, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Model:     req.Model,
		Response:  text,
		CreatedAt: h.now().UTC(),
		Done:      true,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
