package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/internal/metrics"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey = "refresh"

	// Bounds an exchange when the HTTP client has no timeout of its own.
	defaultRefreshTimeout = 15 * time.Second
)

// refreshResponse is the body of a successful refresh exchange.
type refreshResponse struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// Refresher performs the token refresh exchange. Concurrent callers share one
// in-flight exchange: all of them get the same token, or the same error.
type Refresher struct {
	url        string
	httpClient *http.Client
	store      sessions.Store
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	onExpired  func()
	validate   *validator.Validate
	group      singleflight.Group
}

func newRefresher(url string, httpClient *http.Client, store sessions.Store, logger zerolog.Logger, m *metrics.Metrics, onExpired func()) *Refresher {
	return &Refresher{
		url:        url,
		httpClient: httpClient,
		store:      store,
		logger:     logger,
		metrics:    m,
		onExpired:  onExpired,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Refresh exchanges the refresh cookie for a new access token and stores it.
// On failure the session is cleared and the login redirect fires once for the
// shared exchange; the returned error wraps ErrRefreshFailed.
//
// The exchange outlives the caller that started it. A caller whose ctx ends
// stops waiting and gets ctx.Err(); the session is left alone.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	results := r.group.DoChan(refreshKey, func() (any, error) {
		exchangeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.exchangeTimeout())
		defer cancel()

		token, err := r.exchange(exchangeCtx)
		if err == nil {
			err = r.store.UpdateAccessToken(token)
		}
		if err != nil {
			r.metrics.Refresh(metrics.ResultFailure)
			r.logger.Warn().Err(err).Msg("Token refresh failed, clearing session")
			r.expire("refresh_failed")
			return "", errors.Wrapf(err, "Refresher.Refresh")
		}
		r.metrics.Refresh(metrics.ResultSuccess)
		r.logger.Info().Msg("Access token refreshed")
		return token, nil
	})

	select {
	case <-ctx.Done():
		r.logger.Debug().Err(ctx.Err()).Msg("Stopped waiting for token refresh")
		return "", fmt.Errorf("Refresher.Refresh: %w", ctx.Err())
	case res := <-results:
		if res.Shared {
			r.logger.Debug().Msg("Joined in-flight token refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (r *Refresher) exchangeTimeout() time.Duration {
	if r.httpClient.Timeout > 0 {
		return r.httpClient.Timeout
	}
	return defaultRefreshTimeout
}

// expire resets the session and signals navigation to the login view.
func (r *Refresher) expire(reason string) {
	if err := r.store.Clear(); err != nil {
		r.logger.Err(err).Msg("Failed to clear session")
	}
	r.metrics.SessionCleared(reason)
	if r.onExpired != nil {
		r.onExpired()
	}
}

// exchange never goes through Client.Do and never sends the old bearer token,
// so a 401 here cannot recurse into another refresh.
func (r *Refresher) exchange(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrRefreshFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", errors.ErrRefreshFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: server returned %d", errors.ErrRefreshFailed, resp.StatusCode)
	}

	var payload refreshResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: decoding body: %v", errors.ErrRefreshFailed, err)
	}
	if err := r.validate.Struct(payload); err != nil {
		return "", fmt.Errorf("%w: missing accessToken", errors.ErrRefreshFailed)
	}
	return payload.AccessToken, nil
}
