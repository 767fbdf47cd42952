// Package dashboard serves the inflation dashboard over HTTP: the rendered
// page, CSV downloads, the upload form, a small JSON API and a websocket that
// streams narrative text with a typing effect.
package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"inflation-dashboard/internal/cfg"
	"inflation-dashboard/internal/metrics"
	"inflation-dashboard/internal/narrative"
	"inflation-dashboard/internal/pipeline"
	"inflation-dashboard/internal/storage"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// UploadLookup resolves stored upload predictions.
type UploadLookup interface {
	GetUpload(id string) (*storage.UploadRecord, error)
}

// Server is the dashboard HTTP server.
type Server struct {
	runner         *pipeline.Runner
	uploads        UploadLookup
	metricsWrapper *metrics.MetricsWrapper
	settings       cfg.Settings
	typer          narrative.Typer
	page           *template.Template
	upgrader       websocket.Upgrader
	handler        http.Handler
	server         *http.Server

	mu        sync.Mutex
	isRunning bool
}

// NewServer wires routes for the dashboard. uploads and metricsWrapper may be nil.
func NewServer(runner *pipeline.Runner, uploads UploadLookup, metricsWrapper *metrics.MetricsWrapper, settings cfg.Settings) *Server {
	s := &Server{
		runner:         runner,
		uploads:        uploads,
		metricsWrapper: metricsWrapper,
		settings:       settings,
		typer:          narrative.Typer{Delay: settings.TypingDelay},
		page:           template.Must(template.New("dashboard").Funcs(templateFuncs).Parse(pageTemplate)),
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(settings.AllowedOrigins),
		},
	}

	r := mux.NewRouter()
	r.Use(recoverMiddleware, logMiddleware)
	r.HandleFunc("/", s.handlePage).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/download/uploads/{id}", s.handleUploadDownload).Methods(http.MethodGet)
	r.HandleFunc("/download/{name}", s.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/ws/narrative", s.handleNarrative).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(cors.Handler(cors.Options{
		AllowedOrigins: settings.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	api.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet, http.MethodOptions)

	s.handler = r
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", settings.ListenPort),
		Handler:      r,
		ReadTimeout:  settings.ReadTimeout,
		WriteTimeout: settings.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("dashboard is already running")
	}

	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Msg("Starting dashboard server")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Dashboard server failed")
		}
	}()

	s.isRunning = true
	return nil
}

// Stop shuts the server down, waiting up to five seconds for requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("Dashboard stopped")
	return nil
}

// checkOrigin accepts same-host requests and the configured origins.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
