package sessions_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/homereno-client/internal/utils"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/token/jwt"
	"github.com/jrsteele09/homereno-client/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testSession() sessions.Session {
	return sessions.Session{
		Email:       "jane@example.com",
		Role:        users.RoleCustomer,
		AccessToken: "token-1",
		AvatarURL:   utils.Ptr("https://cdn.example.com/jane.png"),
	}
}

func TestStore_EmptyIsNoSession(t *testing.T) {
	store := sessions.NewInMemoryStore()

	_, err := store.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)
}

func TestStore_SetGet(t *testing.T) {
	store := sessions.NewInMemoryStore()
	require.NoError(t, store.Set(testSession()))

	got, err := store.Get()
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", got.Email)
	require.Equal(t, users.RoleCustomer, got.Role)
	require.Equal(t, "token-1", got.AccessToken)
	require.Equal(t, "https://cdn.example.com/jane.png", utils.Value(got.AvatarURL))

	got.AccessToken = "mutated"
	again, err := store.Get()
	require.NoError(t, err)
	require.Equal(t, "token-1", again.AccessToken, "Get must return a copy")
}

func TestStore_UpdateAccessTokenOnlySwapsToken(t *testing.T) {
	store := sessions.NewInMemoryStore()
	require.NoError(t, store.Set(testSession()))

	require.NoError(t, store.UpdateAccessToken("token-2"))

	got, err := store.Get()
	require.NoError(t, err)
	require.Equal(t, "token-2", got.AccessToken)
	require.Equal(t, "jane@example.com", got.Email)
	require.Equal(t, users.RoleCustomer, got.Role)
}

func TestStore_UpdateAccessTokenWithoutSession(t *testing.T) {
	store := sessions.NewInMemoryStore()
	err := store.UpdateAccessToken("token-2")
	require.ErrorIs(t, err, sessions.ErrNoSession)
}

func TestStore_Clear(t *testing.T) {
	store := sessions.NewInMemoryStore()
	require.NoError(t, store.Set(testSession()))
	require.NoError(t, store.Clear())

	_, err := store.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)
	require.NoError(t, store.Clear(), "clearing twice is fine")
}

func TestStore_CorruptValueIsDiscarded(t *testing.T) {
	storage := sessions.NewInMemoryStorage()
	require.NoError(t, storage.SetItem("user", "{not json"))
	store := sessions.NewStore(storage)

	_, err := store.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)

	_, ok, err := storage.GetItem("user")
	require.NoError(t, err)
	require.False(t, ok, "corrupt value should be removed")
}

func TestStore_DiscardNotifiesSubscribers(t *testing.T) {
	storage := sessions.NewInMemoryStorage()
	require.NoError(t, storage.SetItem("user", "{not json"))
	store := sessions.NewStore(storage)

	var seen []*sessions.Session
	store.Subscribe(func(s *sessions.Session) { seen = append(seen, s) })

	_, err := store.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)
	require.Len(t, seen, 1)
	require.Nil(t, seen[0])
}

func TestStore_DiscardKeepsSessionWrittenAfterFailedRead(t *testing.T) {
	storage := sessions.NewInMemoryStorage()
	require.NoError(t, storage.SetItem("user", "{not json"))

	// A login lands between the failed read and the removal of the bad value.
	var store *sessions.PersistentStore
	var loggedIn bool
	logger := zerolog.New(io.Discard).Hook(zerolog.HookFunc(func(_ *zerolog.Event, _ zerolog.Level, msg string) {
		if msg == "Discarding unreadable persisted session" && !loggedIn {
			loggedIn = true
			require.NoError(t, store.Set(testSession()))
		}
	}))
	store = sessions.NewStore(storage, sessions.WithLogger(logger))

	_, err := store.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)
	require.True(t, loggedIn)

	got, err := store.Get()
	require.NoError(t, err)
	require.Equal(t, "token-1", got.AccessToken)
}

func TestStore_CustomKey(t *testing.T) {
	storage := sessions.NewInMemoryStorage()
	store := sessions.NewStore(storage, sessions.WithKey("reno"))
	require.NoError(t, store.Set(testSession()))

	raw, ok, err := storage.GetItem("reno")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"email":"jane@example.com","role":"CUSTOMER","accessToken":"token-1","url":"https://cdn.example.com/jane.png"}`, raw)
}

func TestStore_Subscribe(t *testing.T) {
	store := sessions.NewInMemoryStore()

	var seen []*sessions.Session
	unsubscribe := store.Subscribe(func(s *sessions.Session) {
		seen = append(seen, s)
	})

	require.NoError(t, store.Set(testSession()))
	require.NoError(t, store.UpdateAccessToken("token-2"))
	require.NoError(t, store.Clear())

	require.Len(t, seen, 3)
	require.Equal(t, "token-1", seen[0].AccessToken)
	require.Equal(t, "token-2", seen[1].AccessToken)
	require.Nil(t, seen[2])

	unsubscribe()
	unsubscribe()
	require.NoError(t, store.Set(testSession()))
	require.Len(t, seen, 3)
}

func TestFileStorage_PersistsAcrossReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	first := sessions.NewStore(sessions.NewFileStorage(path))
	require.NoError(t, first.Set(testSession()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded := sessions.NewStore(sessions.NewFileStorage(path))
	got, err := reloaded.Get()
	require.NoError(t, err)
	require.Equal(t, "token-1", got.AccessToken)

	require.NoError(t, reloaded.Clear())
	_, err = first.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)
}

func TestFileStorage_UnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

	store := sessions.NewStore(sessions.NewFileStorage(path))
	_, err := store.Get()
	require.ErrorIs(t, err, sessions.ErrNoSession)

	require.NoError(t, store.Set(testSession()))
	got, err := store.Get()
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", got.Email)
}

func TestTokenSource(t *testing.T) {
	store := sessions.NewInMemoryStore()

	_, err := sessions.TokenSource(store).Token()
	require.ErrorIs(t, err, sessions.ErrNoSession)

	creator := jwt.NewCreator(jwt.NewHMACSigner("secret"), "test", time.Hour)
	raw, err := creator.CreateAccessToken("jane@example.com", users.RoleCustomer)
	require.NoError(t, err)

	s := testSession()
	s.AccessToken = raw
	require.NoError(t, store.Set(s))

	tok, err := sessions.TokenSource(store).Token()
	require.NoError(t, err)
	require.Equal(t, raw, tok.AccessToken)
	require.Equal(t, "Bearer", tok.Type())
	require.False(t, tok.Expiry.IsZero())
}
