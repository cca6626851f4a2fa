package guard_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/token/jwt"
	"github.com/jrsteele09/homereno-client/users"
	"github.com/stretchr/testify/require"
)

const testEmail = "jane@example.com"

var creator = jwt.NewCreator(jwt.NewHMACSigner("guard-test"), "homereno-test", time.Hour)

func validToken(t *testing.T, role users.RoleType) string {
	t.Helper()
	raw, err := creator.CreateAccessTokenWithExpiry(testEmail, role, time.Hour)
	require.NoError(t, err)
	return raw
}

func expiredToken(t *testing.T, role users.RoleType) string {
	t.Helper()
	raw, err := creator.CreateAccessTokenWithExpiry(testEmail, role, -time.Minute)
	require.NoError(t, err)
	return raw
}

func storeWith(t *testing.T, role users.RoleType, token string) *sessions.PersistentStore {
	t.Helper()
	store := sessions.NewInMemoryStore()
	if token != "" {
		require.NoError(t, store.Set(sessions.Session{Email: testEmail, Role: role, AccessToken: token}))
	}
	return store
}

// fakeRefresher applies the same store effects as the real refresher without
// any network.
type fakeRefresher struct {
	store sessions.Store
	token string
	err   error
	calls atomic.Int32
}

func (f *fakeRefresher) Refresh(ctx context.Context) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		_ = f.store.Clear()
		return "", errors.Wrapf(f.err, "fakeRefresher.Refresh")
	}
	if err := f.store.UpdateAccessToken(f.token); err != nil {
		return "", err
	}
	return f.token, nil
}

type event string

const (
	evLoading      event = "loading"
	evContent      event = "content"
	evUnauthorized event = "unauthorized"
	evRedirect     event = "redirect"
)

type recordingRenderer struct {
	mu     sync.Mutex
	events []event
}

func (r *recordingRenderer) add(e event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingRenderer) Loading()         { r.add(evLoading) }
func (r *recordingRenderer) Content()         { r.add(evContent) }
func (r *recordingRenderer) Unauthorized()    { r.add(evUnauthorized) }
func (r *recordingRenderer) RedirectToLogin() { r.add(evRedirect) }

func (r *recordingRenderer) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

func (r *recordingRenderer) waitFor(t *testing.T, want ...event) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.snapshot()) >= len(want)
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, want, r.snapshot())
}
