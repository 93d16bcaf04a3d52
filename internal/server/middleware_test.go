package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

type countingRecorder struct {
	route  string
	method string
	status int
}

func (c *countingRecorder) RecordHTTP(route, method string, status int) {
	c.route, c.method, c.status = route, method, status
}

func TestLoggingMiddlewareLevels(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"success at debug", http.StatusOK, "level=DEBUG"},
		{"client error at debug", http.StatusBadRequest, "level=DEBUG"},
		{"server error at error", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			rec := &countingRecorder{}

			r := mux.NewRouter()
			r.Use(LoggingMiddleware(logger, rec))
			r.HandleFunc("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
			r.ServeHTTP(httptest.NewRecorder(), req)

			assert.Contains(t, buf.String(), tt.wantLevel)
			assert.Contains(t, buf.String(), "path=/items/42")
			assert.Equal(t, "/items/{id}", rec.route)
			assert.Equal(t, http.MethodGet, rec.method)
			assert.Equal(t, tt.status, rec.status)
		})
	}
}

func TestLoggingMiddlewareImplicitOK(t *testing.T) {
	rec := &countingRecorder{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger, rec))
	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.status)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
