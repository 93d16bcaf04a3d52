package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/raphaelgruber/gepetto/internal/metrics"
)

// NewBackend builds the server for the reference inference backend:
// POST /generate plus health and metrics.
func NewBackend(addr string, generate http.Handler, recorder *metrics.Recorder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}

	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger, recorder))

	r.Handle("/generate", generate).Methods(http.MethodPost)
	r.HandleFunc("/generate", methodNotAllowed)
	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", statsHandler(recorder)).Methods(http.MethodGet)
	r.Handle("/metrics", recorder.Handler()).Methods(http.MethodGet)

	return &Server{
		http: &http.Server{
			Addr:        addr,
			Handler:     r,
			ReadTimeout: 5 * time.Second,
			IdleTimeout: 120 * time.Second,
		},
		router: r,
		logger: logger,
	}
}
