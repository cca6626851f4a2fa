package guard

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the session admitted by Middleware
const ContextKeySession ContextKey = "session"

// NextParam carries the originally requested URI on the login redirect.
const NextParam = "next"

// Middleware gates a handler on the session. Nothing is written until the
// decision is final: admitted requests reach next with the session in their
// context, denied roles get the unauthorized handler and everything else is
// redirected (303) to the login route.
func (g *Guard) Middleware(allowed ...users.RoleType) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			switch g.Resolve(r.Context(), allowed) {
			case DecisionRender:
				session := g.current()
				if session == nil {
					// Signed out between resolution and now.
					g.redirectToLogin(w, r)
					return
				}
				ctx := context.WithValue(r.Context(), ContextKeySession, session)
				next(w, r.WithContext(ctx))
			case DecisionUnauthorized:
				g.unauthorized(w, r)
			default:
				g.redirectToLogin(w, r)
			}
		}
	}
}

func (g *Guard) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := g.routes.GetLoginRoute() + "?" + url.Values{NextParam: {r.URL.RequestURI()}}.Encode()
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// SessionFromContext returns the session stored by Middleware.
func SessionFromContext(ctx context.Context) (*sessions.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(*sessions.Session)
	return session, ok
}
