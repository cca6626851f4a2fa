package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	baseURLEnvVar        = "API_BASE_URL"
	requestTimeoutEnvVar = "REQUEST_TIMEOUT"
	sessionFileEnvVar    = "RENO_SESSION_FILE"
	sessionKeyEnvVar     = "RENO_SESSION_KEY"

	DefaultRefreshPath = "/auth/refreshAccessToken"
	DefaultSessionKey  = "user"
)

type ClientConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetRefreshPath() string
	GetSessionFile() string
	GetSessionKey() string
}

type Client struct{}

var _ ClientConfig = Client{}

// GetBaseURL returns the REST backend base URL without a trailing slash.
func (Client) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLEnvVar, "http://localhost:8081"), "/")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetDurationEnv(requestTimeoutEnvVar, 15*time.Second)
}

func (Client) GetRefreshPath() string {
	return DefaultRefreshPath
}

// GetSessionFile returns where the persisted session lives. RENO_SESSION_FILE
// wins, then $XDG_CONFIG_HOME/homereno/session.json, then ~/.config.
func (Client) GetSessionFile() string {
	if envPath := os.Getenv(sessionFileEnvVar); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "homereno-session.json")
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "homereno", "session.json")
}

func (Client) GetSessionKey() string {
	return GetEnv(sessionKeyEnvVar, DefaultSessionKey)
}
