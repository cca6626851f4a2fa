package config

import "time"

const (
	backendPortEnvVar       = "BACKEND_PORT"
	signingSecretEnvVar     = "SIGNING_SECRET"
	accessTokenExpiryEnvVar = "ACCESS_TOKEN_EXPIRY"
)

// BackendConfig configures the in-memory development backend.
type BackendConfig interface {
	GetBackendPort() string
	GetSigningSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Backend struct{}

var _ BackendConfig = Backend{}

func (Backend) GetBackendPort() string {
	return portAddress(GetEnv(backendPortEnvVar, "8081"))
}

func (Backend) GetSigningSecret() string {
	return GetEnv(signingSecretEnvVar, "dev-only-signing-secret")
}

func (Backend) GetAccessTokenExpiry() time.Duration {
	return GetDurationEnv(accessTokenExpiryEnvVar, 15*time.Minute)
}

func (Backend) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour
}
