package apiclient_test

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/internal/metrics"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testEmail        = "jane@example.com"
	refreshCookie    = "refreshToken"
	refreshCookieVal = "rt-1"
)

// backend is a scripted stand-in for the REST API.
type backend struct {
	t   *testing.T
	srv *httptest.Server
	mux *http.ServeMux

	refreshCalls atomic.Int32
	refreshAuth  atomic.Value // Authorization header seen by the refresh endpoint

	mu       sync.Mutex
	seenAuth map[string][]string // path -> Authorization headers in arrival order
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		t:        t,
		mux:      http.NewServeMux(),
		seenAuth: make(map[string][]string),
	}
	b.refreshAuth.Store("")
	b.srv = httptest.NewServer(b.mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seenAuth[r.URL.Path] = append(b.seenAuth[r.URL.Path], r.Header.Get("Authorization"))
}

func (b *backend) auths(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.seenAuth[path]...)
}

// protect serves path with 200 when the bearer token equals *valid, else 401.
func (b *backend) protect(path string, valid *atomic.Value, body string) {
	b.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if r.Header.Get("Authorization") != "Bearer "+valid.Load().(string) {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Backend", "yes")
		_, _ = w.Write([]byte(body))
	})
}

// refreshWith installs a refresh endpoint answering with status and body.
func (b *backend) refreshWith(status int, body string) {
	b.mux.HandleFunc("POST /auth/refreshAccessToken", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		b.refreshAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type clientFixture struct {
	store     *sessions.PersistentStore
	client    *apiclient.Client
	http      *http.Client
	metrics   *metrics.Metrics
	redirects atomic.Int32
}

func newClient(t *testing.T, b *backend, token string) *clientFixture {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f := &clientFixture{
		store:   sessions.NewInMemoryStore(),
		http:    &http.Client{Jar: jar},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	t.Cleanup(f.http.CloseIdleConnections)

	if token != "" {
		require.NoError(t, f.store.Set(sessions.Session{
			Email:       testEmail,
			Role:        users.RoleCustomer,
			AccessToken: token,
		}))
	}

	f.client = apiclient.New(b.srv.URL, f.store,
		apiclient.WithHTTPClient(f.http),
		apiclient.WithLogger(zerolog.Nop()),
		apiclient.WithMetrics(f.metrics),
		apiclient.WithLoginRedirect(func() { f.redirects.Add(1) }),
	)
	return f
}

func (f *clientFixture) token(t *testing.T) string {
	t.Helper()
	s, err := f.store.Get()
	require.NoError(t, err)
	return s.AccessToken
}

func value(s string) *atomic.Value {
	v := &atomic.Value{}
	v.Store(s)
	return v
}
