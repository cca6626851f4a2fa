package webui

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/guard"
	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/marketplace"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/token/jwt"
	"github.com/jrsteele09/homereno-client/users"
)

// PageData is passed to every template.
type PageData struct {
	Title   string
	AppName string
	Session *sessions.Session
	Error   string
	Next    string
	Email   string // Preserved on a failed login
	Data    any
}

func (s *Server) page(r *http.Request, title string) PageData {
	session, ok := guard.SessionFromContext(r.Context())
	if !ok {
		session, _ = s.client.Store().Get()
	}
	return PageData{Title: title, AppName: s.appName, Session: session}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Err(err).Str("template", name).Msg("Failed to render template")
	}
}

// HomeHandler sends signed-in users to their role's landing page.
func (s *Server) HomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.client.Store().Get()
		if err != nil {
			http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, homeFor(session.Role), http.StatusSeeOther)
	}
}

func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.page(r, "Sign in")
		data.Next = safeNext(r.URL.Query().Get(guard.NextParam))
		data.Error = r.URL.Query().Get("error")
		s.render(w, http.StatusOK, "login.html", data)
	}
}

// LoginSubmissionHandler processes the login form.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.PostFormValue("email"))
		next := safeNext(r.PostFormValue("next"))

		session, err := s.client.Login(r.Context(), email, r.PostFormValue("password"))
		if err != nil {
			s.logger.Info().Err(err).Str("email", email).Msg("Login failed")
			data := s.page(r, "Sign in")
			data.Email = email
			data.Next = next
			data.Error = "Login failed, please try again."
			status := http.StatusBadGateway
			if code := apiclient.StatusCode(err); code == http.StatusUnauthorized || code == http.StatusBadRequest {
				data.Error = "Invalid email or password."
				status = http.StatusUnauthorized
			} else if errors.Is(err, errors.ErrInvalidRequest) {
				data.Error = "Enter a valid email and password."
				status = http.StatusBadRequest
			}
			s.render(w, status, "login.html", data)
			return
		}

		if next == "" {
			next = homeFor(session.Role)
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.client.Logout(r.Context()); err != nil {
			s.logger.Err(err).Msg("Logout failed")
		}
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}

// UnauthorizedHandler renders the unauthorized view with a 403.
func (s *Server) UnauthorizedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusForbidden, "unauthorized.html", s.page(r, "Not authorized"))
	}
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.page(r, "Profile")
		if data.Session != nil {
			if claims, err := jwt.ParseUnverified(data.Session.AccessToken); err == nil {
				data.Data = &claims.ExpiresAt
			}
		}
		s.render(w, http.StatusOK, "profile.html", data)
	}
}

func (s *Server) ProjectsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := marketplace.ListProjects(r.Context(), s.client)
		if err != nil {
			s.apiError(w, r, err)
			return
		}
		data := s.page(r, "My projects")
		data.Data = projects
		s.render(w, http.StatusOK, "projects.html", data)
	}
}

func (s *Server) BidsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bids, err := marketplace.ListBids(r.Context(), s.client)
		if err != nil {
			s.apiError(w, r, err)
			return
		}
		data := s.page(r, "My bids")
		data.Data = bids
		s.render(w, http.StatusOK, "bids.html", data)
	}
}

func (s *Server) StatisticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := marketplace.GetStatistics(r.Context(), s.client)
		if err != nil {
			s.apiError(w, r, err)
			return
		}
		data := s.page(r, "Statistics")
		data.Data = stats
		s.render(w, http.StatusOK, "statistics.html", data)
	}
}

// apiError presents a failed backend call. Auth failures have already
// cleared the session in the client, so they go back to the login page.
func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrRefreshFailed), errors.Is(err, errors.ErrUnauthorized):
		target := RouteLogin + "?" + url.Values{
			guard.NextParam: {r.URL.RequestURI()},
			"error":         {"Your session has expired, please sign in again."},
		}.Encode()
		http.Redirect(w, r, target, http.StatusSeeOther)
	case errors.Is(err, errors.ErrForbidden):
		s.UnauthorizedHandler()(w, r)
	default:
		s.logger.Err(err).Str("path", r.URL.Path).Msg("Backend request failed")
		data := s.page(r, "Error")
		data.Error = "The marketplace service is unavailable. Please try again shortly."
		s.render(w, http.StatusBadGateway, "error.html", data)
	}
}

func homeFor(role users.RoleType) string {
	switch role {
	case users.RoleCustomer:
		return RouteCustomerProjects
	case users.RoleVendor:
		return RouteVendorBids
	case users.RoleAdmin:
		return RouteAdminStatistics
	}
	return RouteProfile
}

// safeNext only accepts local absolute paths so the login form cannot be
// used as an open redirect.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
