package backend_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raphaelgruber/gepetto/internal/backend"
	"github.com/raphaelgruber/gepetto/internal/llm"
	"github.com/raphaelgruber/gepetto/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubGenerator struct {
	reply  string
	err    error
	calls  int
	system string
	prompt string
}

func (s *stubGenerator) GenerateWithSystem(_ context.Context, system, prompt string) (string, error) {
	s.calls++
	s.system, s.prompt = system, prompt
	return s.reply, s.err
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerateSuccess(t *testing.T) {
	gen := &stubGenerator{reply: "Hello!"}
	recorder := metrics.NewRecorder()
	h := backend.NewHandler(gen, testLogger(), recorder)

	rec := post(t, h, `{"model":"nemotron","prompt":"hi","system":"be brief"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp backend.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "nemotron", resp.Model)
	assert.Equal(t, "Hello!", resp.Response)
	assert.True(t, resp.Done)
	assert.False(t, resp.CreatedAt.IsZero())

	assert.Equal(t, "hi", gen.prompt)
	assert.Equal(t, "be brief", gen.system)

	snap := recorder.Snapshot()
	require.Contains(t, snap.Operations, metrics.OpLLMGenerate)
	assert.Equal(t, int64(1), snap.Operations[metrics.OpLLMGenerate].Count)
}

func TestGenerateMissingPrompt(t *testing.T) {
	for _, body := range []string{``, `{}`, `{"model":"nemotron"}`, `{"prompt":""}`} {
		gen := &stubGenerator{reply: "never"}
		rec := post(t, backend.NewHandler(gen, testLogger(), nil), body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.JSONEq(t, `{"error":"prompt is required"}`, rec.Body.String())
		assert.Zero(t, gen.calls)
	}
}

func TestGenerateInvalidJSON(t *testing.T) {
	gen := &stubGenerator{}
	rec := post(t, backend.NewHandler(gen, testLogger(), nil), `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
	assert.Zero(t, gen.calls)
}

func TestGenerateProviderFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("generate: connection refused")}
	rec := post(t, backend.NewHandler(gen, testLogger(), nil), `{"model":"nemotron","prompt":"hi"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"generate: connection refused"}`, rec.Body.String())
}

func TestGenerateFatalProviderError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	gen := &stubGenerator{err: fmt.Errorf("%w: invalid api key", llm.ErrFatalAPI)}

	rec := post(t, backend.NewHandler(gen, logger, nil), `{"model":"nemotron","prompt":"hi"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid api key")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "provider unavailable")
}
