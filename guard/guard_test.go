package guard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/guard"
	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/internal/metrics"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestResolve_StateCoverage(t *testing.T) {
	customerOnly := []users.RoleType{users.RoleCustomer}
	type roleCase struct {
		role    users.RoleType
		allowed []users.RoleType
	}
	roleCases := map[string]roleCase{
		"role allowed":   {users.RoleCustomer, customerOnly},
		"role denied":    {users.RoleVendor, customerOnly},
		"no restriction": {users.RoleAdmin, nil},
	}
	tests := []struct {
		token       string
		tokenFn     func(*testing.T, users.RoleType) string
		want        map[string]guard.Decision
		wantRefresh int32
	}{
		{
			token:   "no token",
			tokenFn: func(*testing.T, users.RoleType) string { return "" },
			want: map[string]guard.Decision{
				"role allowed":   guard.DecisionRedirectLogin,
				"role denied":    guard.DecisionRedirectLogin,
				"no restriction": guard.DecisionRedirectLogin,
			},
		},
		{
			token:   "expired token",
			tokenFn: expiredToken,
			want: map[string]guard.Decision{
				"role allowed":   guard.DecisionRender,
				"role denied":    guard.DecisionUnauthorized,
				"no restriction": guard.DecisionRender,
			},
			wantRefresh: 1,
		},
		{
			token:   "valid token",
			tokenFn: validToken,
			want: map[string]guard.Decision{
				"role allowed":   guard.DecisionRender,
				"role denied":    guard.DecisionUnauthorized,
				"no restriction": guard.DecisionRender,
			},
		},
	}

	for _, tt := range tests {
		for name, rc := range roleCases {
			t.Run(tt.token+"/"+name, func(t *testing.T) {
				store := storeWith(t, rc.role, tt.tokenFn(t, rc.role))
				refresher := &fakeRefresher{store: store, token: validToken(t, rc.role)}
				g := guard.New(store, refresher, guard.WithLogger(zerolog.Nop()))

				require.Equal(t, tt.want[name], g.Resolve(context.Background(), rc.allowed))
				require.Equal(t, tt.wantRefresh, refresher.calls.Load())
			})
		}
	}
}

func TestResolve_RefreshFailureRedirects(t *testing.T) {
	store := storeWith(t, users.RoleCustomer, expiredToken(t, users.RoleCustomer))
	refresher := &fakeRefresher{store: store, err: errors.ErrRefreshFailed}
	g := guard.New(store, refresher, guard.WithLogger(zerolog.Nop()))

	require.Equal(t, guard.DecisionRedirectLogin, g.Resolve(context.Background(), nil))
	require.Equal(t, int32(1), refresher.calls.Load())
	_, err := store.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)
}

func TestResolve_MalformedTokenClearsSession(t *testing.T) {
	store := storeWith(t, users.RoleCustomer, "not-a-jwt")
	refresher := &fakeRefresher{store: store}
	m := metrics.New(prometheus.NewRegistry())
	g := guard.New(store, refresher, guard.WithLogger(zerolog.Nop()), guard.WithMetrics(m))

	require.Equal(t, guard.DecisionRedirectLogin, g.Resolve(context.Background(), nil))

	require.Zero(t, refresher.calls.Load(), "malformed tokens are never refreshed")
	_, err := store.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionClearsTotal.WithLabelValues("malformed_token")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("redirect_login")))
}

// countingBackend counts every request reaching the REST backend.
func countingBackend(t *testing.T, refreshBody string, refreshStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refreshAccessToken", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(refreshStatus)
		_, _ = w.Write([]byte(refreshBody))
	})
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"auth":"` + r.Header.Get("Authorization") + `"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestResolve_ValidTokenMakesNoNetworkCalls(t *testing.T) {
	srv, calls := countingBackend(t, `{"accessToken":"unused"}`, http.StatusOK)
	store := storeWith(t, users.RoleCustomer, validToken(t, users.RoleCustomer))
	client := apiclient.New(srv.URL, store, apiclient.WithLogger(zerolog.Nop()))
	g := guard.ForClient(client, guard.WithLogger(zerolog.Nop()))

	d := g.Resolve(context.Background(), []users.RoleType{users.RoleCustomer})

	require.Equal(t, guard.DecisionRender, d)
	require.Zero(t, calls.Load())
}

func TestResolve_ExpiredTokenRefreshedBeforeNextRequest(t *testing.T) {
	newToken := validToken(t, users.RoleCustomer)
	srv, calls := countingBackend(t, `{"accessToken":"`+newToken+`"}`, http.StatusOK)
	store := storeWith(t, users.RoleCustomer, expiredToken(t, users.RoleCustomer))
	client := apiclient.New(srv.URL, store, apiclient.WithLogger(zerolog.Nop()))
	g := guard.ForClient(client, guard.WithLogger(zerolog.Nop()))

	require.Equal(t, guard.DecisionRender, g.Resolve(context.Background(), []users.RoleType{users.RoleCustomer}))
	require.Equal(t, int32(1), calls.Load())

	var body struct{ Auth string }
	require.NoError(t, client.GetJSON(context.Background(), "/projects", &body))
	require.Equal(t, "Bearer "+newToken, body.Auth)
}

func TestResolve_SharedRefreshFailureSignalsRedirectOnce(t *testing.T) {
	srv, _ := countingBackend(t, `{"error":"expired"}`, http.StatusUnauthorized)
	store := storeWith(t, users.RoleCustomer, expiredToken(t, users.RoleCustomer))
	var redirects atomic.Int32
	client := apiclient.New(srv.URL, store,
		apiclient.WithLogger(zerolog.Nop()),
		apiclient.WithLoginRedirect(func() { redirects.Add(1) }),
	)
	g := guard.ForClient(client, guard.WithLogger(zerolog.Nop()))

	require.Equal(t, guard.DecisionRedirectLogin, g.Resolve(context.Background(), nil))

	require.Equal(t, int32(1), redirects.Load())
	_, err := store.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)
}

func TestResolve_RoleDenialLeavesSessionAlone(t *testing.T) {
	token := validToken(t, users.RoleVendor)
	store := storeWith(t, users.RoleVendor, token)
	refresher := &fakeRefresher{store: store}
	g := guard.New(store, refresher, guard.WithLogger(zerolog.Nop()))

	var changes int
	unsubscribe := store.Subscribe(func(*sessions.Session) { changes++ })
	defer unsubscribe()

	require.Equal(t, guard.DecisionUnauthorized, g.Resolve(context.Background(), []users.RoleType{users.RoleCustomer}))

	require.Zero(t, changes)
	require.Zero(t, refresher.calls.Load())
	session, err := store.Get()
	require.NoError(t, err)
	require.Equal(t, token, session.AccessToken)
	require.Equal(t, users.RoleVendor, session.Role)
}
