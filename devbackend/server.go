// Package devbackend is an in-memory stand-in for the marketplace REST API.
// It issues short-lived access tokens and HttpOnly refresh cookies so the
// client's refresh and replay behaviour can be exercised end to end.
package devbackend

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/homereno-client/internal/config"
	"github.com/jrsteele09/homereno-client/token/jwt"
	"github.com/jrsteele09/homereno-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/homereno-client/token/refresh/repofake"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const issuer = "homereno-devbackend"

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	logger   zerolog.Logger
	validate *validator.Validate

	tokens   *jwt.Creator
	revoked  *jwt.InMemoryRevokedTokenCache
	refresh  *refresh.Manager
	accounts *accountDirectory
	catalog  *catalog
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAccounts replaces the seeded accounts.
func WithAccounts(accounts ...Account) Option {
	return func(s *Server) {
		s.accounts = newAccountDirectory(accounts)
	}
}

func New(cfg config.Config, options ...Option) *Server {
	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		logger:   log.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tokens:   jwt.NewCreator(jwt.NewHMACSigner(cfg.GetSigningSecret()), issuer, cfg.GetAccessTokenExpiry()),
		revoked:  jwt.NewInMemoryRevokedTokenCache(),
		refresh:  refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), cfg),
		accounts: newAccountDirectory(DefaultAccounts()),
		catalog:  newCatalog(),
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Tokens exposes the token creator, e.g. to mint tokens in tests.
func (s *Server) Tokens() *jwt.Creator {
	return s.tokens
}

// CleanupRevoked drops revoked token ids whose tokens have expired anyway.
func (s *Server) CleanupRevoked() {
	s.revoked.Cleanup()
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	s.logger.Info().Msgf("[%-19s] %s", color+paddedMethod+ResetColor, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
