// Package api provides the local HTTP API server and handlers for VidShelf.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vidshelfapp/vidshelf-core/internal/http/response"
	"github.com/vidshelfapp/vidshelf-core/internal/sse"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      store.Store
	services   *Services
	env        Environment
	sseManager *sse.Manager
	sseHandler http.Handler
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger

	// Background work started by requests outlives them but not the server.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, env Environment, sseManager *sse.Manager, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		store:      st,
		services:   services,
		env:        env,
		sseManager: sseManager,
		router:     chi.NewRouter(),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("VidShelf API", Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	RegisterErrorHandler()
	s.api = humachi.New(s.router, humaConfig)

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background searches and waits for them to finish.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  allowLoopbackOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Last-Event-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerFolderRoutes()
	s.registerVideoRoutes()
	s.registerWatchRoutes()
	s.registerTagRoutes()
	s.registerStatsRoutes()
	s.registerSearchRoutes()
	s.registerBackupRoutes()
	s.registerSettingsRoutes()

	if s.sseHandler != nil {
		s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}
	s.router.Get("/api/v1/videos/{id}/thumbnail", s.handleThumbnail)
}

// allowLoopbackOrigin accepts browser origins served from this machine only.
func allowLoopbackOrigin(_ *http.Request, origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// requestLogger logs each request at debug level through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// writeError renders err for handlers registered on the router directly.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	response.HandleError(w, err, s.logger)
}
