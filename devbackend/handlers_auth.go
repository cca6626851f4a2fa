package devbackend

import (
	"net/http"
	"time"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/internal/errors"
)

const messageSuccess = "SUCCESS"

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// LoginHandler checks credentials and starts a session: an access token in
// the body and a refresh token in an HttpOnly cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		account, err := s.accounts.Authenticate(req.Email, req.Password)
		if err != nil {
			s.logger.Info().Str("email", req.Email).Msg("Login rejected")
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
			return
		}

		s.startSession(w, r, account, http.StatusOK)
	}
}

// RegisterHandler creates a CUSTOMER or VENDOR account and signs it in.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.RegisterRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		account := Account{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      req.Role,
		}
		if err := s.accounts.Register(account); err != nil {
			writeError(w, http.StatusConflict, "account_exists", err.Error())
			return
		}
		s.logger.Info().Str("email", account.Email).Str("role", account.Role.String()).Msg("Account registered")

		s.startSession(w, r, account, http.StatusCreated)
	}
}

// RefreshAccessTokenHandler exchanges the refresh cookie for a new access
// token. It never looks at the Authorization header.
func (s *Server) RefreshAccessTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(RefreshCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Missing refresh token")
			return
		}

		stored, err := s.refresh.Validate(cookie.Value)
		if err != nil {
			s.clearRefreshCookie(w, r)
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired refresh token")
			return
		}

		account, err := s.accounts.Get(stored.Email)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Unknown account")
			return
		}

		accessToken, err := s.tokens.CreateAccessToken(account.Email, account.Role)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to issue token")
			return
		}
		s.logger.Debug().Str("email", account.Email).Msg("Access token refreshed")
		writeJSON(w, http.StatusOK, refreshResponse{AccessToken: accessToken})
	}
}

// LogoutHandler revokes the presented access token (if it still verifies)
// and the refresh cookie. It always succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if claims, err := s.tokens.Verify(token); err == nil {
				s.revoked.Add(claims.ID, claims.ExpiresAt)
			}
		}
		if cookie, err := r.Cookie(RefreshCookieName); err == nil {
			if err := s.refresh.Delete(cookie.Value); err != nil && !errors.Is(err, errors.ErrNotFound) {
				s.logger.Err(err).Msg("Failed to delete refresh token")
			}
		}
		s.clearRefreshCookie(w, r)
		writeJSON(w, http.StatusOK, map[string]string{"message": messageSuccess})
	}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, account Account, status int) {
	accessToken, err := s.tokens.CreateAccessToken(account.Email, account.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to issue token")
		return
	}
	refreshToken, err := s.refresh.Create(account.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to issue refresh token")
		return
	}

	s.setRefreshCookie(w, r, refreshToken)
	writeJSON(w, status, apiclient.AuthResponse{
		Email:       account.Email,
		Role:        account.Role.String(),
		AccessToken: accessToken,
		Message:     messageSuccess,
		URL:         account.AvatarURL,
	})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetRefreshTokenExpiry() / time.Second),
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
