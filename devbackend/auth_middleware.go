package devbackend

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/token/jwt"
	"github.com/jrsteele09/homereno-client/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the verified access token claims
const ContextKeyClaims ContextKey = "claims"

// RequireAuth validates the bearer access token and, when roles are given,
// that the token's role is one of them. Invalid or expired tokens get 401,
// which is the client's signal to refresh; a wrong role gets 403.
func (s *Server) RequireAuth(roles ...users.RoleType) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := s.tokens.Verify(token)
			if err != nil {
				description := "Invalid token"
				if errors.Is(err, errors.ErrTokenExpired) {
					description = "Token expired"
				}
				writeError(w, http.StatusUnauthorized, "unauthorized", description)
				return
			}

			if s.revoked.IsRevoked(claims.ID) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Token revoked")
				return
			}

			if !users.Allowed(claims.Role, roles) {
				writeError(w, http.StatusForbidden, "forbidden", "Role "+claims.Role.String()+" may not access this resource")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func claimsFromContext(ctx context.Context) *jwt.AccessClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*jwt.AccessClaims)
	return claims
}
