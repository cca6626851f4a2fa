package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/homereno-client/internal/config"
	"github.com/jrsteele09/homereno-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const tokenLength = 32 // bytes, 256 bits

// Manager issues, validates and revokes refresh tokens.
type Manager struct {
	repo   Repo
	config config.BackendConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.BackendConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create issues a new refresh token for email, replacing any previous one
// (single refresh token per account).
func (m *Manager) Create(email string) (string, error) {
	if existing, err := m.repo.GetByEmail(email); err == nil && existing != nil {
		if err := m.repo.Delete(existing.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	token := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token: token,
		Email: email,
		Iat:   NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return token, nil
}

// Validate returns the record behind token if it exists and has not expired.
// Expired tokens are deleted.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, err
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, errors.ErrTokenExpired
	}
	return rt, nil
}

// Delete revokes token.
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired reports whether rt has outlived the configured refresh expiry.
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}
