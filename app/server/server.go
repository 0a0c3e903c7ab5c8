// Package server provides HTTP server for the threat dashboard.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/threatdash/app/enum"
	"github.com/umputun/threatdash/app/server/api"
	"github.com/umputun/threatdash/app/server/web"
	"github.com/umputun/threatdash/app/store"
	"github.com/umputun/threatdash/app/theme"
)

// Server represents the HTTP server.
type Server struct {
	cfg        Config
	version    string
	baseURL    string
	auth       *BasicAuth
	events     *theme.Bus
	apiHandler *api.Handler
	webHandler *web.Handler
	staticFS   fs.FS // embedded static files
}

// Store defines the storage used by the server.
// Defined here (consumer side) to allow different store implementations.
type Store interface {
	web.ThreatStore
	store.PrefStore
}

// Config holds server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Version         string
	BaseURL         string            // base URL path for reverse proxy (e.g., /dash)
	PasswordHash    string            // bcrypt hash for basic auth, empty disables auth
	PrefsBackend    enum.PrefsBackend // where the theme preference is persisted
	ThreatsLimit    int               // rows on threats page and in export

	// limits
	BodySizeLimit  int64 // max request body size in bytes
	RequestsPerSec int64 // max requests per second
}

// New creates a new Server instance.
func New(st Store, cfg Config) (*Server, error) {
	staticContent, err := web.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		version:  cfg.Version,
		baseURL:  cfg.BaseURL,
		auth:     NewBasicAuth(cfg.PasswordHash),
		events:   theme.NewBus(),
		staticFS: staticContent,
	}
	s.events.Subscribe(func(event string) { log.Printf("[DEBUG] broadcast %s", event) })

	webHandler, err := web.New(st, web.Config{
		BaseURL:      cfg.BaseURL,
		PrefsBackend: cfg.PrefsBackend,
		PrefStore:    st,
		ThreatsLimit: cfg.ThreatsLimit,
		Events:       s.events,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create web handler: %w", err)
	}
	s.webHandler = webHandler

	s.apiHandler = api.New(api.Config{
		CookiePath:   s.cookiePath(),
		PrefsBackend: cfg.PrefsBackend,
		PrefStore:    st,
		Events:       s.events,
	})

	return s, nil
}

// Events returns the bus receiving theme change notifications from all handlers.
// Listeners are called synchronously from the request goroutine.
func (s *Server) Events() *theme.Bus { return s.events }

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.handler(),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	// graceful shutdown
	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] shutdown error: %v", err)
		}
	}()

	log.Printf("[DEBUG] started server on %s", s.cfg.Address)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// handler returns the HTTP handler, wrapping routes with base URL support if configured.
func (s *Server) handler() http.Handler {
	routes := s.routes()
	if s.baseURL == "" {
		return routes
	}
	mux := http.NewServeMux()
	// redirect /base to /base/
	mux.HandleFunc(s.baseURL, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.baseURL+"/", http.StatusMovedPermanently)
	})
	// strip prefix for all routes under base URL
	mux.Handle(s.baseURL+"/", http.StripPrefix(s.baseURL, routes))
	return mux
}

// routes configures and returns the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	// global middleware (applies to all routes)
	router.Use(
		rest.Recoverer(log.Default()),
		rest.RealIP, // must be before Throttle to rate-limit by real client IP
		rest.Throttle(s.requestsPerSec()),
		rest.Trace,
		rest.SizeLimit(s.bodySizeLimit()),
		rest.AppInfo("threatdash", "umputun", s.version),
		rest.Ping,
	)

	// public routes
	router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(s.staticFS))))

	// web UI routes
	router.Group().Route(func(webRouter *routegroup.Bundle) {
		webRouter.Use(s.auth.Middleware)
		s.webHandler.Register(webRouter)
	})

	// json api routes
	router.Mount("/api/v1").Route(func(apiRouter *routegroup.Bundle) {
		apiRouter.Use(s.auth.Middleware)
		s.apiHandler.Register(apiRouter)
	})

	return router
}

// bodySizeLimit returns the configured body size limit, or default 64KB if not set.
func (s *Server) bodySizeLimit() int64 {
	if s.cfg.BodySizeLimit > 0 {
		return s.cfg.BodySizeLimit
	}
	return 64 * 1024
}

// requestsPerSec returns the configured requests per second limit, or default 1000 if not set.
func (s *Server) requestsPerSec() int64 {
	if s.cfg.RequestsPerSec > 0 {
		return s.cfg.RequestsPerSec
	}
	return 1000
}

// shutdownTimeout returns the configured shutdown timeout, or default 5s if not set.
func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return 5 * time.Second
}

// cookiePath returns the path for cookies (base URL with trailing slash or "/").
func (s *Server) cookiePath() string {
	if s.baseURL == "" {
		return "/"
	}
	return s.baseURL + "/"
}
