package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/kozaktomas/facerecognx/internal/metrics"
	"github.com/kozaktomas/facerecognx/internal/recognition"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
	"github.com/kozaktomas/facerecognx/internal/web/templates"
)

// Dependencies is everything the web server needs, built once at startup.
type Dependencies struct {
	Config     *config.Config
	Store      *database.Store
	Sessions   *middleware.SessionManager
	Enroller   *recognition.Enroller
	Recognizer *recognition.Recognizer
	// FaceHealth checks the face service, may be nil
	FaceHealth func(ctx context.Context) error
	// Metrics may be nil, /metrics is then not mounted
	Metrics *metrics.Metrics
}

// Server represents the web server
type Server struct {
	deps       Dependencies
	router     *chi.Mux
	httpServer *http.Server
	renderer   *templates.Renderer
}

// NewServer creates a new web server
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Config == nil || deps.Store == nil || deps.Sessions == nil || deps.Enroller == nil || deps.Recognizer == nil {
		return nil, errors.New("web server: missing dependencies")
	}

	renderer, err := templates.New()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	s := &Server{
		deps:     deps,
		router:   r,
		renderer: renderer,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS(deps.Config.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", deps.Config.Web.Host, deps.Config.Web.Port),
		Handler:      r,
		ReadTimeout:  2 * time.Minute, // enrollment bodies carry dozens of frames
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the session cleanup job and the HTTP server
func (s *Server) Start() error {
	if err := s.deps.Sessions.StartCleanup(constants.SessionCleanupMinutes * time.Minute); err != nil {
		return fmt.Errorf("failed to start session cleanup: %w", err)
	}

	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	s.deps.Sessions.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
