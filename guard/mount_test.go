package guard_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/homereno-client/guard"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMount_ValidSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := storeWith(t, users.RoleCustomer, validToken(t, users.RoleCustomer))
	g := guard.New(store, &fakeRefresher{store: store}, guard.WithLogger(zerolog.Nop()))
	r := &recordingRenderer{}

	unmount := g.Mount(context.Background(), []users.RoleType{users.RoleCustomer}, r)
	defer unmount()

	r.waitFor(t, evLoading, evContent)
}

func TestMount_ReevaluatesOnSessionChange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := storeWith(t, users.RoleCustomer, validToken(t, users.RoleCustomer))
	g := guard.New(store, &fakeRefresher{store: store}, guard.WithLogger(zerolog.Nop()))
	r := &recordingRenderer{}

	unmount := g.Mount(context.Background(), []users.RoleType{users.RoleCustomer}, r)
	r.waitFor(t, evLoading, evContent)

	require.NoError(t, store.Clear())
	r.waitFor(t, evLoading, evContent, evRedirect)

	require.NoError(t, store.Set(sessions.Session{Email: testEmail, Role: users.RoleVendor, AccessToken: validToken(t, users.RoleVendor)}))
	r.waitFor(t, evLoading, evContent, evRedirect, evUnauthorized)

	unmount()
	unmount()
	require.NoError(t, store.Set(sessions.Session{Email: testEmail, Role: users.RoleCustomer, AccessToken: validToken(t, users.RoleCustomer)}))
	require.Never(t, func() bool {
		return len(r.snapshot()) > 4
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestMount_ExpiredSessionShowsLoadingUntilRefreshed(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := storeWith(t, users.RoleAdmin, expiredToken(t, users.RoleAdmin))
	refresher := &fakeRefresher{store: store, token: validToken(t, users.RoleAdmin)}
	g := guard.New(store, refresher, guard.WithLogger(zerolog.Nop()))
	r := &recordingRenderer{}

	unmount := g.Mount(context.Background(), nil, r)
	defer unmount()

	r.waitFor(t, evLoading, evContent)
	// The token swap made by the refresh does not render the view twice.
	require.Never(t, func() bool {
		return len(r.snapshot()) > 2
	}, 100*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, int32(1), refresher.calls.Load())
}

func TestMount_SessionExpiresWhileMounted(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := storeWith(t, users.RoleCustomer, validToken(t, users.RoleCustomer))
	refresher := &fakeRefresher{store: store, token: validToken(t, users.RoleCustomer)}
	g := guard.New(store, refresher, guard.WithLogger(zerolog.Nop()))
	r := &recordingRenderer{}

	unmount := g.Mount(context.Background(), nil, r)
	defer unmount()
	r.waitFor(t, evLoading, evContent)

	require.NoError(t, store.UpdateAccessToken(expiredToken(t, users.RoleCustomer)))

	r.waitFor(t, evLoading, evContent, evLoading, evContent)
	require.Equal(t, int32(1), refresher.calls.Load())
}

// gatedRenderer holds Content until released.
type gatedRenderer struct {
	recordingRenderer
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRenderer) Content() {
	r.add(evContent)
	close(r.entered)
	<-r.release
}

func TestMount_NoLoadingAfterCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	// Cancellation and a pending change race in the worker's select; run it
	// enough times that both branches get picked.
	for i := 0; i < 20; i++ {
		store := storeWith(t, users.RoleCustomer, validToken(t, users.RoleCustomer))
		g := guard.New(store, &fakeRefresher{store: store, token: validToken(t, users.RoleCustomer)}, guard.WithLogger(zerolog.Nop()))
		r := &gatedRenderer{entered: make(chan struct{}), release: make(chan struct{})}

		ctx, cancel := context.WithCancel(context.Background())
		unmount := g.Mount(ctx, nil, r)
		<-r.entered

		// Queue a change that would need a refresh, then unmount before the
		// worker sees it.
		require.NoError(t, store.UpdateAccessToken(expiredToken(t, users.RoleCustomer)))
		cancel()
		close(r.release)

		require.Never(t, func() bool {
			return len(r.snapshot()) > 2
		}, 50*time.Millisecond, 5*time.Millisecond)
		require.Equal(t, []event{evLoading, evContent}, r.snapshot())
		unmount()
	}
}
