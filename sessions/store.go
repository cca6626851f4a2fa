package sessions

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrNoSession is returned when no usable session is persisted.
var ErrNoSession = errors.ErrNoSession

// Listener is called after every session write with the new session,
// or nil when the session was cleared.
type Listener func(*Session)

// Store owns the process-wide session. Writes replace whole fields; there
// are no partial merges.
type Store interface {
	// Get returns a copy of the current session, or ErrNoSession.
	Get() (*Session, error)

	// Set replaces the whole session (login / registration).
	Set(session Session) error

	// UpdateAccessToken swaps only the token of the current session (refresh).
	UpdateAccessToken(accessToken string) error

	// Clear resets to the unauthenticated state (logout, refresh or decode failure).
	Clear() error

	// Subscribe registers l for session changes. Call the returned func to stop.
	Subscribe(l Listener) (unsubscribe func())
}

// PersistentStore keeps the session as JSON under a single key of a Storage.
type PersistentStore struct {
	storage Storage
	key     string
	logger  zerolog.Logger

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

var _ Store = (*PersistentStore)(nil)

// StoreOption configures a PersistentStore.
type StoreOption func(*PersistentStore)

// WithKey overrides the storage key (default "user").
func WithKey(key string) StoreOption {
	return func(s *PersistentStore) {
		s.key = key
	}
}

// WithLogger sets the logger used for corrupt-state warnings.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *PersistentStore) {
		s.logger = logger
	}
}

// NewStore creates a session store on top of storage.
func NewStore(storage Storage, options ...StoreOption) *PersistentStore {
	s := &PersistentStore{
		storage:   storage,
		key:       "user",
		logger:    log.Logger,
		listeners: make(map[int]Listener),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// NewInMemoryStore is a convenience for tests and short-lived processes.
func NewInMemoryStore(options ...StoreOption) *PersistentStore {
	return NewStore(NewInMemoryStorage(), options...)
}

func (s *PersistentStore) Get() (*Session, error) {
	s.mu.RLock()
	raw, session, err := s.readRaw()
	s.mu.RUnlock()

	if errors.Is(err, errCorrupt) {
		// A value that cannot be decoded is the same as no value; drop it so
		// it is not re-read forever.
		s.logger.Warn().Err(err).Str("key", s.key).Msg("Discarding unreadable persisted session")
		if s.discard(raw) {
			s.notify(nil)
		}
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	return session, err
}

// discard removes the stored value only if it is still the one that failed
// to read, so a session written since then survives. An empty raw means the
// storage itself could not be read.
func (s *PersistentStore) discard(raw string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok, err := s.storage.GetItem(s.key)
	unchanged := err != nil
	if raw != "" {
		unchanged = err == nil && ok && current == raw
	}
	if !unchanged {
		return false
	}
	return s.storage.RemoveItem(s.key) == nil
}

func (s *PersistentStore) Set(session Session) error {
	s.mu.Lock()
	err := s.write(&session)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(&session)
	return nil
}

func (s *PersistentStore) UpdateAccessToken(accessToken string) error {
	s.mu.Lock()
	session, err := s.read()
	if err != nil {
		s.mu.Unlock()
		return errors.Wrapf(err, "PersistentStore.UpdateAccessToken")
	}
	session.AccessToken = accessToken
	err = s.write(session)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(session)
	return nil
}

func (s *PersistentStore) Clear() error {
	s.mu.Lock()
	err := s.storage.RemoveItem(s.key)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("PersistentStore.Clear: %w", err)
	}
	s.notify(nil)
	return nil
}

func (s *PersistentStore) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

var errCorrupt = errors.New("corrupt session")

// read must be called with s.mu held.
func (s *PersistentStore) read() (*Session, error) {
	_, session, err := s.readRaw()
	return session, err
}

// readRaw also returns the stored string. It must be called with s.mu held.
func (s *PersistentStore) readRaw() (string, *Session, error) {
	raw, ok, err := s.storage.GetItem(s.key)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if !ok || raw == "" {
		return raw, nil, ErrNoSession
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return raw, nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if session.AccessToken == "" {
		return raw, nil, ErrNoSession
	}
	return raw, &session, nil
}

// write must be called with s.mu held.
func (s *PersistentStore) write(session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := s.storage.SetItem(s.key, string(data)); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}

// notify runs listeners outside the lock so they may call back into the store.
func (s *PersistentStore) notify(session *Session) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(session.Clone())
	}
}
