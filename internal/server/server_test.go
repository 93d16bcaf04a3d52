package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/raphaelgruber/gepetto/internal/metrics"
	"github.com/raphaelgruber/gepetto/internal/models"
	"github.com/raphaelgruber/gepetto/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger creates a logger that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, proxy http.Handler) (*httptest.Server, *metrics.Recorder) {
	t.Helper()
	rec := metrics.NewRecorder()
	srv := server.New(":0", server.Deps{
		Proxy:    proxy,
		Recorder: rec,
		Static: fstest.MapFS{
			"index.html": {Data: []byte("<html>gepetto</html>")},
			"app.js":     {Data: []byte("console.log('hi')")},
		},
		Logger: testLogger(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, rec
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestGenerateRouteDispatchesToProxy(t *testing.T) {
	proxy := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"response":"ok"}`)
	})
	ts, _ := newTestServer(t, proxy)

	resp, err := http.Post(ts.URL+"/api/generate", "application/json", strings.NewReader(`{"prompt":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"response":"ok"}`, string(body))

	// The middleware counted the request under its route template.
	_, metricsBody := get(t, ts.URL+"/metrics")
	assert.Contains(t, metricsBody, `gepetto_http_requests_total{method="POST",route="/api/generate",status="200"} 1`)
}

func TestGenerateRouteRejectsOtherMethods(t *testing.T) {
	ts, _ := newTestServer(t, http.NotFoundHandler())

	resp, body := get(t, ts.URL+"/api/generate")

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))
	assert.JSONEq(t, `{"error":"Method not allowed"}`, body)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, http.NotFoundHandler())

	resp, body := get(t, ts.URL+"/healthz")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestModelsEndpointDefaults(t *testing.T) {
	ts, _ := newTestServer(t, http.NotFoundHandler())

	_, body := get(t, ts.URL+"/api/models")

	var out struct {
		Models  []models.ModelOption `json:"models"`
		Default string               `json:"default"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, models.DefaultModels(), out.Models)
	assert.Equal(t, models.DefaultModelID, out.Default)
}

func TestStatsEndpoint(t *testing.T) {
	ts, rec := newTestServer(t, http.NotFoundHandler())
	rec.RecordTiming(metrics.OpProxyRequest, 10*time.Millisecond, nil)

	_, body := get(t, ts.URL+"/api/stats")

	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	require.Contains(t, snap.Operations, metrics.OpProxyRequest)
	assert.Equal(t, int64(1), snap.Operations[metrics.OpProxyRequest].Count)
}

func TestStaticFilesWithSPAFallback(t *testing.T) {
	ts, _ := newTestServer(t, http.NotFoundHandler())

	tests := []struct {
		path string
		want string
	}{
		{"/", "<html>gepetto</html>"},
		{"/app.js", "console.log('hi')"},
		{"/some/client/route", "<html>gepetto</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	srv := server.New("127.0.0.1:0", server.Deps{Proxy: http.NotFoundHandler(), Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop within timeout")
	}
}

func TestModelsEndpointCustomCatalog(t *testing.T) {
	srv := server.New(":0", server.Deps{
		Proxy:  http.NotFoundHandler(),
		Models: []models.ModelOption{{ID: "mistral", Name: "Mistral"}},
		Logger: testLogger(),
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, body := get(t, ts.URL+"/api/models")
	assert.JSONEq(t, `{"models":[{"id":"mistral","name":"Mistral"}],"default":"mistral"}`, body)
}
