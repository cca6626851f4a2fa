package sessions

import (
	"github.com/jrsteele09/homereno-client/users"
)

// Session is the client-held record of the signed-in user.
// Its JSON form is the persisted layout: {email, role, accessToken, url}.
type Session struct {
	Email       string         `json:"email"`         // Identity, opaque to the client
	Role        users.RoleType `json:"role"`          // CUSTOMER, VENDOR or ADMIN
	AccessToken string         `json:"accessToken"`   // Signed JWT carrying an exp claim
	AvatarURL   *string        `json:"url,omitempty"` // Display only
}

// Authenticated reports whether the session holds a token at all.
// It says nothing about whether the token parses or has expired.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// Clone returns a copy that shares nothing with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.AvatarURL != nil {
		url := *s.AvatarURL
		c.AvatarURL = &url
	}
	return &c
}
