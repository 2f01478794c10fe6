// Package server provides the HTTP server: the JSON API, the camera preview
// stream and the live frame feed.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
}

// Server is the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	frames *FramesHandler
}

// New creates a new Server with the given configuration. With an App set,
// the server subscribes to its frame outputs.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		generations := api.NewGenerationHandler(s.config.Store)
		s.mux.Handle("/api/generations", generations)
		s.mux.Handle("/api/generations/", generations)
	}

	if a := s.config.App; a != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/widgets", s.handleWidgets)
		s.mux.Handle("/api/controls/", api.NewControlsHandler(a.Controls()))
		s.mux.Handle("/api/brush", api.NewBrushHandler(a.Controls()))
		s.mux.Handle("/api/view", api.NewViewHandler(a.Controls()))
		s.mux.Handle("/api/export", api.NewExportHandler(a))
		s.mux.Handle("/api/stream", NewStreamHandler(a))

		s.frames = NewFramesHandler()
		a.OnFrame(s.frames.Publish)
		s.mux.Handle("/api/frames", s.frames)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["enabled"] = a.IsEnabled()
		response["mode"] = a.Controller().Mode()
	}
	writeJSON(w, response)
}

// handleState returns the most recent frame output.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.config.App.State())
}

// handleWidgets returns the toolbar hit regions for the current mode.
func (s *Server) handleWidgets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a := s.config.App
	m := a.Controller().Mode()
	writeJSON(w, map[string]any{
		"mode":    m,
		"visible": a.Toolbar().Visible(),
		"widgets": a.Toolbar().Widgets(m),
	})
}

// Close disconnects live frame clients.
func (s *Server) Close() {
	if s.frames != nil {
		s.frames.Close()
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
