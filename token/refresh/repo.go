package refresh

import (
	"time"
)

// StoredRefreshToken is the server-side record behind a refresh cookie.
// The client only ever sees Token; the cookie is HttpOnly.
type StoredRefreshToken struct {
	Token string    // Opaque random string sent as the cookie value
	Email string    // Account the token was issued to
	Iat   time.Time // Issued at
}

// Repo stores refresh tokens keyed by their token string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	GetByEmail(email string) (*StoredRefreshToken, error)
}
