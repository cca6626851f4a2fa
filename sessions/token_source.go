package sessions

import (
	"github.com/jrsteele09/homereno-client/token/jwt"
	"golang.org/x/oauth2"
)

// TokenSource exposes the store's current access token as an oauth2.TokenSource
// so it can drive oauth2.Transport or anything else speaking that interface.
// Expiry is taken from the token's exp claim; a token that does not parse is
// still returned, with a zero Expiry, and left for the server to reject.
func TokenSource(store Store) oauth2.TokenSource {
	return storeTokenSource{store: store}
}

type storeTokenSource struct {
	store Store
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	session, err := s.store.Get()
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{
		AccessToken: session.AccessToken,
		TokenType:   "Bearer",
	}
	if claims, err := jwt.ParseUnverified(session.AccessToken); err == nil {
		tok.Expiry = claims.ExpiresAt
	}
	return tok, nil
}
