package apiclient_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// concurrentCallers fires n requests at once against a backend whose refresh
// endpoint blocks until every caller has received its first 401.
func concurrentCallers(t *testing.T, n int, refreshStatus int, refreshBody string) (*backend, *clientFixture, []error) {
	t.Helper()

	b := newBackend(t)
	valid := value("t2")
	rejected := make(chan struct{}, n)
	b.mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if r.Header.Get("Authorization") != "Bearer "+valid.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			rejected <- struct{}{}
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	release := make(chan struct{})
	b.mux.HandleFunc("POST /auth/refreshAccessToken", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(refreshStatus)
		_, _ = w.Write([]byte(refreshBody))
	})

	f := newClient(t, b, "t1")

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.client.Do(context.Background(), apiclient.NewRequest(http.MethodGet, "/projects", nil))
		}(i)
	}

	for i := 0; i < n; i++ {
		select {
		case <-rejected:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for initial 401s")
		}
	}
	// Let every caller reach the shared refresh before it completes.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	return b, f, errs
}

func TestRefresh_ConcurrentCallersShareOneExchange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	const callers = 5
	b, f, errs := concurrentCallers(t, callers, http.StatusOK, `{"accessToken":"t2"}`)

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), b.refreshCalls.Load())

	auths := b.auths("/projects")
	require.Len(t, auths, 2*callers)
	var replays int
	for _, a := range auths {
		if a == "Bearer t2" {
			replays++
		}
	}
	require.Equal(t, callers, replays, "each caller replays exactly once with the shared token")
	require.Equal(t, "t2", f.token(t))

	b.srv.Close()
	f.http.CloseIdleConnections()
}

func TestRefresh_ConcurrentFailureRedirectsOnce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	const callers = 4
	b, f, errs := concurrentCallers(t, callers, http.StatusUnauthorized, `{}`)

	for _, err := range errs {
		require.ErrorIs(t, err, errors.ErrRefreshFailed)
	}
	require.Equal(t, int32(1), b.refreshCalls.Load())
	require.Equal(t, int32(1), f.redirects.Load())
	require.Len(t, b.auths("/projects"), callers, "no replays after a failed refresh")

	_, err := f.store.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)

	b.srv.Close()
	f.http.CloseIdleConnections()
}

func TestRefresher_UsesRefreshCookie(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: refreshCookieVal, Path: "/auth", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]string{
			"email":       testEmail,
			"role":        "CUSTOMER",
			"accessToken": "t1",
			"message":     "SUCCESS",
		})
	})
	b.mux.HandleFunc("POST /auth/refreshAccessToken", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(refreshCookie)
		if err != nil || c.Value != refreshCookieVal {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "t2"})
	})
	f := newClient(t, b, "")
	ctx := context.Background()

	_, err := f.client.Login(ctx, testEmail, "secret")
	require.NoError(t, err)

	token, err := f.client.Refresher().Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, "t2", token)
	require.Equal(t, "t2", f.token(t))
}

func TestRefresher_StoreWithoutSessionFails(t *testing.T) {
	b := newBackend(t)
	b.refreshWith(http.StatusOK, `{"accessToken":"t2"}`)
	f := newClient(t, b, "")

	_, err := f.client.Refresher().Refresh(context.Background())

	require.ErrorIs(t, err, sessions.ErrNoSession)
	require.Equal(t, int32(1), f.redirects.Load())
}

func TestRefresh_CancelledLeaderDoesNotFailWaiters(t *testing.T) {
	b := newBackend(t)
	valid := value("t2")
	rejected := make(chan struct{}, 2)
	b.mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if r.Header.Get("Authorization") != "Bearer "+valid.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			rejected <- struct{}{}
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	release := make(chan struct{})
	b.mux.HandleFunc("POST /auth/refreshAccessToken", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		<-release
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "t2"})
	})
	f := newClient(t, b, "t1")

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	defer cancelLeader()
	leaderErr := make(chan error, 1)
	go func() {
		_, err := f.client.Do(leaderCtx, apiclient.NewRequest(http.MethodGet, "/projects", nil))
		leaderErr <- err
	}()
	<-rejected
	require.Eventually(t, func() bool { return b.refreshCalls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	waiterErr := make(chan error, 1)
	go func() {
		_, err := f.client.Do(context.Background(), apiclient.NewRequest(http.MethodGet, "/projects", nil))
		waiterErr <- err
	}()
	<-rejected
	// Let the second caller join the in-flight exchange.
	time.Sleep(100 * time.Millisecond)

	cancelLeader()
	select {
	case err := <-leaderErr:
		require.ErrorIs(t, err, context.Canceled)
		require.NotErrorIs(t, err, errors.ErrRefreshFailed)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller kept waiting for the refresh")
	}

	close(release)
	select {
	case err := <-waiterErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the remaining caller")
	}

	require.Equal(t, int32(1), b.refreshCalls.Load())
	require.Equal(t, "t2", f.token(t), "the exchange completes and stores its token")
	require.Zero(t, f.redirects.Load())
}

func TestRefresh_CancelledCallerKeepsSession(t *testing.T) {
	b := newBackend(t)
	release := make(chan struct{})
	b.mux.HandleFunc("POST /auth/refreshAccessToken", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	})
	f := newClient(t, b, "t1")
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.client.Refresher().Refresh(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return b.refreshCalls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	require.Equal(t, "t1", f.token(t))
	require.Zero(t, f.redirects.Load())
}
