// Package webui is the local marketplace front-end. Protected pages are gated
// by the route guard and fetch their data through the authenticated client,
// so an expired token is refreshed before the page renders.
package webui

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/guard"
	"github.com/jrsteele09/homereno-client/internal/config"
	"github.com/jrsteele09/homereno-client/internal/metrics"
	"github.com/jrsteele09/homereno-client/internal/middleware"
	"github.com/jrsteele09/homereno-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env       string
	appName   string
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	client    *apiclient.Client
	guard     *guard.Guard
	templates *template.Template
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New builds the front-end around client. The guard shares the client's
// session store and refresher.
func New(cfg config.Config, client *apiclient.Client, options ...Option) (*Server, error) {
	templates, err := ParseTemplates()
	if err != nil {
		return nil, fmt.Errorf("[webui New] failed to parse templates: %w", err)
	}

	s := &Server{
		env:       cfg.GetEnv(),
		appName:   cfg.GetAppName(),
		mux:       http.NewServeMux(),
		config:    cfg,
		client:    client,
		templates: templates,
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	s.guard = guard.ForClient(client,
		guard.WithLogger(s.logger),
		guard.WithMetrics(s.metrics),
		guard.WithRoutes(cfg),
		guard.WithUnauthorizedHandler(s.UnauthorizedHandler()),
	)

	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Routes lists the registered patterns.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) HTMLMiddleware(mw ...middleware.Middleware) []middleware.Middleware {
	chainedMiddleWare := []middleware.Middleware{
		s.LoggingMiddleware,
		middleware.Recover(s.logger),
		middleware.FrameSecurity,
		middleware.NoStore,
	}
	return append(chainedMiddleWare, mw...)
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.env != "DEV" {
			next(w, r)
			return
		}
		s.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("Request")
		next(w, r)
	}
}

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteLogin, middleware.Chain(s.LoginPageHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, middleware.Chain(s.LoginSubmissionHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, middleware.Chain(s.LogoutHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteUnauthorized, middleware.Chain(s.UnauthorizedHandler(), s.HTMLMiddleware()...))

	// Protected pages
	s.RegisterRouteHandler("GET "+RouteProfile, middleware.Chain(s.ProfileHandler(), s.HTMLMiddleware(s.guard.Middleware())...))
	s.RegisterRouteHandler("GET "+RouteCustomerProjects, middleware.Chain(s.ProjectsHandler(), s.HTMLMiddleware(s.guard.Middleware(users.RoleCustomer))...))
	s.RegisterRouteHandler("GET "+RouteVendorBids, middleware.Chain(s.BidsHandler(), s.HTMLMiddleware(s.guard.Middleware(users.RoleVendor))...))
	s.RegisterRouteHandler("GET "+RouteAdminStatistics, middleware.Chain(s.StatisticsHandler(), s.HTMLMiddleware(s.guard.Middleware(users.RoleAdmin))...))

	s.RegisterRouteHandler("GET "+RouteHome+"{$}", middleware.Chain(s.HomeHandler(), s.HTMLMiddleware()...))
}
