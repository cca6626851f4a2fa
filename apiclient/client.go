package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/homereno-client/internal/config"
	"github.com/jrsteele09/homereno-client/internal/metrics"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const headerRequestID = "X-Request-ID"

// Client is the authenticated HTTP client. Every request carries the current
// session's bearer token; a 401 triggers at most one refresh exchange and at
// most one replay of the original request.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	timeout         time.Duration
	store           sessions.Store
	tokens          oauth2.TokenSource
	refresher       *Refresher
	refreshPath     string
	requestIDs      bool
	onLoginRedirect func()
	logger          zerolog.Logger
	metrics         *metrics.Metrics
}

// New creates a client for the REST backend at baseURL backed by store.
func New(baseURL string, store sessions.Store, options ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		store:       store,
		tokens:      sessions.TokenSource(store),
		timeout:     15 * time.Second,
		refreshPath: config.DefaultRefreshPath,
		requestIDs:  true,
		logger:      log.Logger,
	}

	for _, opt := range options {
		opt(c)
	}

	if c.httpClient == nil {
		// The jar holds the backend's refresh cookie between calls.
		jar, _ := cookiejar.New(nil)
		c.httpClient = &http.Client{
			Timeout: c.timeout,
			Jar:     jar,
		}
	}

	c.refresher = newRefresher(c.resolve(c.refreshPath), c.httpClient, store, c.logger, c.metrics, c.loginRedirect)
	return c
}

// Store returns the session store the client reads and writes.
func (c *Client) Store() sessions.Store {
	return c.store
}

// Refresher exposes the shared refresh exchange so the route guard applies the
// same policy and coalescing as the client.
func (c *Client) Refresher() *Refresher {
	return c.refresher
}

// Do sends req and applies the expiry policy:
//   - 2xx is returned unchanged.
//   - 401 on the first attempt runs one refresh exchange, then replays req once
//     with the new token and returns the replay's outcome.
//   - any other status, or a 401 on the replay, is returned as *StatusError.
//   - transport errors are returned as-is without a refresh.
//
// If the refresh fails the session is cleared, the login redirect fires and the
// refresh error is returned instead of the original 401.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	pending := &pendingRequest{original: req.Clone()}
	logger := c.logger.With().Str("method", req.Method).Str("path", req.Path).Logger()

	// Sending
	c.authorize(pending.original)
	resp, err := c.send(ctx, pending.original)
	if err != nil {
		return nil, err
	}
	if resp.Success() {
		return resp, nil
	}
	if resp.StatusCode != http.StatusUnauthorized || pending.retried {
		return nil, c.statusError(pending.original, resp)
	}

	// AwaitingRefresh
	pending.retried = true
	logger.Debug().Msg("Access token rejected, refreshing")
	accessToken, err := c.refresher.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	// Replaying
	pending.original.Header.Set("Authorization", "Bearer "+accessToken)
	replay, err := c.send(ctx, pending.original)
	if err != nil {
		c.metrics.Replay(metrics.ResultFailure)
		return nil, err
	}
	if !replay.Success() {
		c.metrics.Replay(metrics.ResultFailure)
		if replay.StatusCode == http.StatusUnauthorized {
			// A freshly issued token was refused: nothing left to recover.
			logger.Warn().Msg("Replay rejected after refresh, clearing session")
			c.refresher.expire("replay_rejected")
		}
		return nil, c.statusError(pending.original, replay)
	}
	c.metrics.Replay(metrics.ResultSuccess)
	return replay, nil
}

// authorize is the pre-send hook. A session that cannot be read is treated as
// absent; the server's 401 then drives the normal recovery path.
func (c *Client) authorize(req *Request) {
	tok, err := c.tokens.Token()
	if err != nil {
		if !isNoSession(err) {
			c.logger.Debug().Err(err).Msg("Sending without token, session unreadable")
		}
		return
	}
	req.Header.Set("Authorization", tok.Type()+" "+tok.AccessToken)
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.resolve(req.Path), req.bodyReader())
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range req.Header {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	if c.requestIDs {
		httpReq.Header.Set(headerRequestID, uuid.New().String())
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("request_id", httpReq.Header.Get(headerRequestID)).
		Int("status", httpResp.StatusCode).
		Msg("Response received")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func (c *Client) statusError(req *Request, resp *Response) error {
	return &StatusError{Method: req.Method, Path: req.Path, Response: resp}
}

func (c *Client) loginRedirect() {
	if c.onLoginRedirect != nil {
		c.onLoginRedirect()
	}
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
