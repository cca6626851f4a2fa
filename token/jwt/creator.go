package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/users"
)

// Creator mints and verifies access tokens for the development backend.
type Creator struct {
	signer Signer
	issuer string
	expiry time.Duration
}

// NewCreator creates a token creator. A zero expiry defaults to 15 minutes.
func NewCreator(signer Signer, issuer string, expiry time.Duration) *Creator {
	if expiry == 0 {
		expiry = 15 * time.Minute
	}
	return &Creator{
		signer: signer,
		issuer: issuer,
		expiry: expiry,
	}
}

// CreateAccessToken creates a signed access token for the given user.
func (c *Creator) CreateAccessToken(email string, role users.RoleType) (string, error) {
	return c.CreateAccessTokenWithExpiry(email, role, c.expiry)
}

// CreateAccessTokenWithExpiry creates a token living for expiry from now.
// A negative expiry produces an already expired token.
func (c *Creator) CreateAccessTokenWithExpiry(email string, role users.RoleType, expiry time.Duration) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":  c.issuer,               // Issuer
		"sub":  email,                  // The user's email is the subject
		"role": string(role),           // Marketplace role
		"iat":  now.Unix(),             // Issued At
		"exp":  now.Add(expiry).Unix(), // Expiry
		"jti":  uuid.New().String(),    // Unique token ID for revocation
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of rawToken and returns its claims.
func (c *Creator) Verify(rawToken string) (*AccessClaims, error) {
	token, err := jwtlib.Parse(rawToken, c.signer.GetVerificationKey,
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, errors.Wrapf(errors.ErrTokenExpired, "Creator.Verify")
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: error extracting claims from token", errors.ErrMalformedToken)
	}
	return claimsFromMap(claims)
}
