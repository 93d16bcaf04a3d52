// Package server wires the proxy route, health, stats, metrics and the
// embedded web client into one HTTP server with graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/raphaelgruber/gepetto/internal/metrics"
	"github.com/raphaelgruber/gepetto/internal/models"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Deps are the components the server routes to.
type Deps struct {
	Proxy    http.Handler
	Recorder *metrics.Recorder
	Models   []models.ModelOption
	// Static is the web client file tree; nil disables it.
	Static fs.FS
	Logger *slog.Logger
}

// Server wraps the HTTP server with its router and lifecycle management.
type Server struct {
	http   *http.Server
	router *mux.Router
	logger *slog.Logger
}

// New builds the router and HTTP server listening on addr.
func New(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}

	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger, recorder))

	r.Handle("/api/generate", deps.Proxy).Methods(http.MethodPost)
	r.HandleFunc("/api/generate", methodNotAllowed)
	r.HandleFunc("/api/models", modelsHandler(deps.Models)).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", statsHandler(recorder)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.Handle("/metrics", recorder.Handler()).Methods(http.MethodGet)
	if deps.Static != nil {
		r.PathPrefix("/").Handler(spaHandler(deps.Static, logger)).Methods(http.MethodGet, http.MethodHead)
	}

	return &Server{
		http: &http.Server{
			Addr:    addr,
			Handler: r,
			// No WriteTimeout: generation time is bounded only by the backend.
			ReadTimeout: 5 * time.Second,
			IdleTimeout: 120 * time.Second,
		},
		router: r,
		logger: logger,
	}
}

// Handler returns the routed handler (for tests and embedding).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	writeJSON(w, http.StatusMethodNotAllowed, models.APIError{Error: "Method not allowed"})
}

func modelsHandler(options []models.ModelOption) http.HandlerFunc {
	if len(options) == 0 {
		options = models.DefaultModels()
	}
	def := models.DefaultModelID
	if _, ok := models.FindModel(options, def); !ok {
		def = options[0].ID
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"models":  options,
			"default": def,
		})
	}
}

func statsHandler(recorder *metrics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, recorder.Snapshot())
	}
}

// spaHandler serves files from static, falling back to index.html for unknown paths.
func spaHandler(static fs.FS, logger *slog.Logger) http.Handler {
	fileServer := http.FileServer(http.FS(static))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			f, err := static.Open(r.URL.Path[1:])
			if errors.Is(err, fs.ErrNotExist) {
				r.URL.Path = "/"
			} else if err != nil {
				logger.Warn("unexpected error opening embedded file", "path", r.URL.Path, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			} else {
				f.Close()
			}
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
