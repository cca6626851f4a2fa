package guard

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/internal/config"
	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/internal/metrics"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Refresher runs the token refresh exchange. *apiclient.Refresher satisfies
// it; sharing the client's refresher means the guard follows the same
// coalescing and failure policy (clear session, signal login redirect).
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Guard resolves access to protected views against the shared session store.
type Guard struct {
	store        sessions.Store
	refresher    Refresher
	routes       config.RouteConfig
	unauthorized http.HandlerFunc
	now          func() time.Time
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// Option configures a Guard.
type Option func(*Guard)

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// WithRoutes sets the login and unauthorized routes used by Middleware.
func WithRoutes(routes config.RouteConfig) Option {
	return func(g *Guard) {
		g.routes = routes
	}
}

// WithUnauthorizedHandler replaces the default 403 response of Middleware.
// The handler is responsible for writing the status code.
func WithUnauthorizedHandler(h http.HandlerFunc) Option {
	return func(g *Guard) {
		g.unauthorized = h
	}
}

// WithClock overrides the time source used for the local expiry check.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// New creates a guard over store that refreshes expired tokens through refresher.
func New(store sessions.Store, refresher Refresher, options ...Option) *Guard {
	g := &Guard{
		store:     store,
		refresher: refresher,
		routes:    config.Routes{},
		now:       time.Now,
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(g)
	}
	if g.unauthorized == nil {
		g.unauthorized = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		}
	}
	return g
}

// ForClient creates a guard sharing the client's session store and refresher.
func ForClient(client *apiclient.Client, options ...Option) *Guard {
	return New(client.Store(), client.Refresher(), options...)
}

// Resolve reads the session and returns the final decision for a view that
// admits allowed. An expired token is refreshed at most once; a failed
// refresh yields DecisionRedirectLogin with the session already cleared.
// A valid token never causes a network call, and role denial never mutates
// the session.
func (g *Guard) Resolve(ctx context.Context, allowed []users.RoleType) Decision {
	d := g.resolve(ctx, allowed)
	g.metrics.GuardDecision(d.String())
	g.logger.Debug().Stringer("decision", d).Msg("Route guard resolved")
	return d
}

func (g *Guard) resolve(ctx context.Context, allowed []users.RoleType) Decision {
	session := g.current()

	d := Evaluate(session, allowed, g.now())
	switch d {
	case DecisionRedirectLogin:
		if session.Authenticated() {
			// The token is present but does not parse.
			g.discard(session)
		}
		return d
	case DecisionRefresh:
		if _, err := g.refresher.Refresh(ctx); err != nil {
			g.logger.Info().Err(err).Msg("Expired session could not be refreshed")
			return DecisionRedirectLogin
		}
		return authorize(session.Role, allowed)
	}
	return d
}

// current returns the stored session, or nil when there is none or it
// cannot be read.
func (g *Guard) current() *sessions.Session {
	session, err := g.store.Get()
	if err != nil {
		if !errors.Is(err, errors.ErrNoSession) {
			g.logger.Warn().Err(err).Msg("Session unreadable, treating as signed out")
		}
		return nil
	}
	return session
}

func (g *Guard) discard(session *sessions.Session) {
	g.logger.Warn().Str("email", session.Email).Msg("Malformed access token, clearing session")
	if err := g.store.Clear(); err != nil {
		g.logger.Err(err).Msg("Failed to clear session")
		return
	}
	g.metrics.SessionCleared("malformed_token")
}
