// Package guard gates protected views on session validity and role.
//
// The decision logic is a pure function of the session, the view's allowed
// roles and the current time. Guard adds the side effects around it: reading
// the store, the just-in-time refresh of an expired token, and adapters for
// net/http handlers and subscription-driven renderers.
package guard

import (
	"time"

	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/token/jwt"
	"github.com/jrsteele09/homereno-client/users"
)

// State is the validity of the session's access token.
type State int

const (
	// StateUnauthenticated: no session, an empty token, or a token that does not parse.
	StateUnauthenticated State = iota
	// StateExpired: the token parses but its expiry is at or before now.
	StateExpired
	// StateAuthenticated: the token parses and has not expired.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateExpired:
		return "expired"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Decision is what the caller should render.
type Decision int

const (
	// DecisionRedirectLogin sends the user to the login view.
	DecisionRedirectLogin Decision = iota
	// DecisionUnauthorized renders the unauthorized view. The session is untouched.
	DecisionUnauthorized
	// DecisionRender renders the protected content.
	DecisionRender
	// DecisionRefresh means the token must be refreshed before a final
	// decision can be made. Guard.Resolve never returns it.
	DecisionRefresh
)

func (d Decision) String() string {
	switch d {
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionUnauthorized:
		return "unauthorized"
	case DecisionRender:
		return "render"
	case DecisionRefresh:
		return "refresh"
	}
	return "unknown"
}

// Classify reports the state of the session's token at now.
func Classify(session *sessions.Session, now time.Time) State {
	if !session.Authenticated() {
		return StateUnauthenticated
	}
	claims, err := jwt.ParseUnverified(session.AccessToken)
	if err != nil {
		return StateUnauthenticated
	}
	if claims.Expired(now) {
		return StateExpired
	}
	return StateAuthenticated
}

// Evaluate is the guard's decision table. An empty allow-list admits any
// authenticated role.
func Evaluate(session *sessions.Session, allowed []users.RoleType, now time.Time) Decision {
	switch Classify(session, now) {
	case StateUnauthenticated:
		return DecisionRedirectLogin
	case StateExpired:
		return DecisionRefresh
	}
	return authorize(session.Role, allowed)
}

func authorize(role users.RoleType, allowed []users.RoleType) Decision {
	if !users.Allowed(role, allowed) {
		return DecisionUnauthorized
	}
	return DecisionRender
}
