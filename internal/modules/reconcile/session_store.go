package reconcile

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// SessionStore holds parsed-but-unconfirmed uploads keyed by an opaque,
// unguessable id.
//
// Expiry is enforced at read time against the session's creation timestamp.
// Entries are kept in the backing cache for twice the TTL so that a confirm
// arriving just after expiry can be answered with ErrSessionExpired instead
// of the less helpful ErrSessionNotFound; the cache janitor evicts them
// afterwards, bounding memory without a dedicated scheduler.
type SessionStore struct {
	ttl      time.Duration
	sessions *cache.Cache
	mu       sync.Mutex
	log      zerolog.Logger
}

// NewSessionStore creates a session store with the given session lifetime
func NewSessionStore(ttl time.Duration, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: cache.New(2*ttl, ttl),
		log:      log.With().Str("service", "session_store").Logger(),
	}
}

// Put stores a new session and returns its generated id.
// UUIDv4 ids are backed by crypto/rand, so concurrent previews cannot
// collide and ids cannot be guessed.
func (s *SessionStore) Put(session ImportSession) string {
	session.ID = uuid.NewString()
	session.CreatedAt = time.Now()

	s.sessions.Set(session.ID, &session, cache.DefaultExpiration)

	s.log.Debug().
		Str("session_id", session.ID).
		Int("funds", len(session.Blocks)).
		Msg("Import session created")

	return session.ID
}

// Get returns a session without consuming it, applying the same expiry
// rules as Take. Used by read-only preview lookups.
func (s *SessionStore) Get(id string) (*ImportSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lookup(id, false)
}

// Take atomically checks and clears a session: the first caller gets the
// session, every later caller gets ErrSessionNotFound. This is what makes
// a duplicate or retried confirm a no-op instead of a double import.
func (s *SessionStore) Take(id string) (*ImportSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lookup(id, true)
}

// lookup implements the shared read path. Callers hold s.mu.
func (s *SessionStore) lookup(id string, consume bool) (*ImportSession, error) {
	value, found := s.sessions.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}

	session := value.(*ImportSession)

	if time.Since(session.CreatedAt) > s.ttl {
		s.sessions.Delete(id)
		s.log.Debug().Str("session_id", id).Msg("Import session expired at read")
		return nil, ErrSessionExpired
	}

	if consume {
		s.sessions.Delete(id)
	}

	return session, nil
}

// Len returns the number of live entries, for the system status endpoint
func (s *SessionStore) Len() int {
	return s.sessions.ItemCount()
}
