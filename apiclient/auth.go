package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/internal/utils"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/users"
)

// Auth endpoints on the REST backend.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathLogout   = "/auth/logout"
)

// AuthResponse is the backend's reply to login and registration.
type AuthResponse struct {
	Email       string  `json:"email" validate:"required"`
	Role        string  `json:"role" validate:"required,oneof=CUSTOMER VENDOR ADMIN"`
	AccessToken string  `json:"accessToken" validate:"required"`
	Message     string  `json:"message" validate:"eq=SUCCESS"`
	URL         *string `json:"url,omitempty"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string         `json:"email" validate:"required,email"`
	Password  string         `json:"password" validate:"required"`
	FirstName string         `json:"firstName,omitempty"`
	LastName  string         `json:"lastName,omitempty"`
	Role      users.RoleType `json:"role" validate:"required,oneof=CUSTOMER VENDOR"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates against the backend and stores the resulting session.
// It is outside the refresh policy: a 401 here means bad credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*sessions.Session, error) {
	body := loginRequest{Email: email, Password: password}
	if err := c.refresher.validate.Struct(body); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", errors.ErrLoginFailed, errors.ErrInvalidRequest, err)
	}
	session, err := c.authenticate(ctx, PathLogin, body)
	if err != nil {
		return nil, fmt.Errorf("Client.Login: %w: %w", errors.ErrLoginFailed, err)
	}
	return session, nil
}

// Register creates an account and stores the resulting session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*sessions.Session, error) {
	if err := c.refresher.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", errors.ErrRegistrationFailed, errors.ErrInvalidRequest, err)
	}
	session, err := c.authenticate(ctx, PathRegister, req)
	if err != nil {
		return nil, fmt.Errorf("Client.Register: %w: %w", errors.ErrRegistrationFailed, err)
	}
	return session, nil
}

// Logout tells the backend to drop the refresh cookie and always clears the
// local session, even when the backend call fails. The call bypasses the
// refresh policy: a rejected token is no reason to refresh on the way out.
func (c *Client) Logout(ctx context.Context) error {
	req := NewRequest(http.MethodPost, PathLogout, nil)
	c.authorize(req)
	resp, err := c.send(ctx, req)
	if err == nil && !resp.Success() {
		err = c.statusError(req, resp)
	}
	if err != nil {
		c.logger.Debug().Err(err).Msg("Backend logout failed, local session cleared anyway")
	}

	if clearErr := c.store.Clear(); clearErr != nil {
		return clearErr
	}
	c.metrics.SessionCleared("logout")
	return nil
}

func (c *Client) authenticate(ctx context.Context, path string, in any) (*sessions.Session, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}
	if !resp.Success() {
		return nil, &StatusError{Method: http.MethodPost, Path: path, Response: resp}
	}

	var payload AuthResponse
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	if err := c.refresher.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidResponse, err)
	}

	session := sessions.Session{
		Email:       payload.Email,
		Role:        users.RoleType(payload.Role),
		AccessToken: payload.AccessToken,
		AvatarURL:   utils.NonEmpty(utils.Value(payload.URL)),
	}
	if err := c.store.Set(session); err != nil {
		return nil, err
	}
	c.logger.Info().Str("email", session.Email).Str("role", session.Role.String()).Msg("Signed in")
	return session.Clone(), nil
}
