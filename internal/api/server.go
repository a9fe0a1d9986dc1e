// Package api exposes the injector over HTTP
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/alevsk/sass-inject/internal/injector"
	"github.com/alevsk/sass-inject/internal/logger"
	"github.com/gorilla/mux"
)

// Server represents the API server
type Server struct {
	router   *mux.Router
	injector *injector.Injector
}

// NewServer creates a new API server instance
func NewServer(inj *injector.Injector) *Server {
	if inj == nil {
		inj = injector.New("")
	}
	s := &Server{
		router:   mux.NewRouter(),
		injector: inj,
	}
	s.routes()
	return s
}

// routes sets up the API routes
func (s *Server) routes() {
	s.router.HandleFunc("/api/v1/health", s.healthCheck).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/declarations", s.declarations).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/inject", s.inject).Methods(http.MethodPost)
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server. A zero timeout disables read and write deadlines.
func (s *Server) Start(addr string, timeout time.Duration) error {
	logger.Info().Str("addr", addr).Msg("starting server")
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	return srv.ListenAndServe()
}

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		logger.Error().Err(err).Msg("failed to encode health check response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
}

// declarations returns the SASS declarations injected by this server
func (s *Server) declarations(w http.ResponseWriter, r *http.Request) {
	decl := s.injector.Declarations()
	if decl == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/x-scss; charset=utf-8")
	if _, err := io.WriteString(w, decl); err != nil {
		logger.Error().Err(err).Msg("failed to write declarations")
	}
}

// inject streams the request body back with the declarations prepended
func (s *Server) inject(w http.ResponseWriter, r *http.Request) {
	file := &injector.File{
		Path:     r.URL.Query().Get("path"),
		Contents: injector.NewStream(r.Body),
	}
	out := s.injector.Process(file)
	stream := out.Contents.(*injector.Stream)
	defer stream.Close()

	w.Header().Set("Content-Type", "text/x-scss; charset=utf-8")
	n, err := io.Copy(w, stream)
	if err != nil {
		logger.Error().Err(err).Str("path", file.Path).Msg("failed to stream injected content")
		return
	}
	logger.Debug().Str("path", file.Path).Int64("bytes", n).Msg("injected request body")
}
