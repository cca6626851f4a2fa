package apiclient

import (
	"net/http"
	"time"

	"github.com/jrsteele09/homereno-client/internal/config"
	"github.com/jrsteele09/homereno-client/internal/metrics"
	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. The client's cookie jar carries the
// refresh cookie, so supply one if the refresh exchange must be credentialed.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-attempt transport timeout (default 15s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLoginRedirect sets the side effect fired when the session is found to be
// irrecoverable (refresh failed, or a replay was rejected again).
func WithLoginRedirect(fn func()) Option {
	return func(c *Client) {
		c.onLoginRedirect = fn
	}
}

// WithRefreshPath overrides the refresh endpoint (default /auth/refreshAccessToken).
func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// WithRequestIDs toggles the X-Request-ID header (default on).
func WithRequestIDs(enabled bool) Option {
	return func(c *Client) {
		c.requestIDs = enabled
	}
}

// WithConfig applies base URL independent settings from cfg.
func WithConfig(cfg config.ClientConfig) Option {
	return func(c *Client) {
		c.timeout = cfg.GetRequestTimeout()
		c.refreshPath = cfg.GetRefreshPath()
	}
}
