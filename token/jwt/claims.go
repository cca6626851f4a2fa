package jwt

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// AccessClaims is the subset of access token claims the client relies on.
type AccessClaims struct {
	Subject   string         // Opaque subject (the user's email)
	Role      users.RoleType // Marketplace role, empty when the token does not carry one
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string // jti
}

// Expired reports whether the token is no longer usable at now.
// A token whose expiry equals now is expired.
func (c *AccessClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// ParseUnverified decodes an access token without checking its signature.
// The client never holds the signing key; it only needs the embedded expiry
// to decide whether a refresh is due. Any decode problem, including a
// missing exp claim, is reported as ErrMalformedToken.
func ParseUnverified(rawToken string) (*AccessClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.ErrMalformedToken
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedToken, err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: error extracting claims", errors.ErrMalformedToken)
	}
	return claimsFromMap(claims)
}

func claimsFromMap(claims jwtlib.MapClaims) (*AccessClaims, error) {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", errors.ErrMalformedToken)
	}

	ac := &AccessClaims{ExpiresAt: exp.Time}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		ac.IssuedAt = iat.Time
	}
	ac.Subject, _ = claims.GetSubject()
	ac.ID, _ = claims["jti"].(string)
	if role, ok := claims["role"].(string); ok {
		ac.Role = users.RoleType(role)
	}
	return ac, nil
}
