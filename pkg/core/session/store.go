// Package session keeps track of who is signed in. The pair of token and
// user lives in memory and is mirrored to a persistence medium so it
// survives restarts. Losing the medium never fails the caller.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
	"github.com/wadjakorntonsri/chainhub/pkg/ports"
)

// Well-known persistence keys.
const (
	TokenKey = "token"
	UserKey  = "user"
)

type Store struct {
	backend ports.SessionBackend // nil means memory only
	now     func() time.Time

	mu      sync.RWMutex
	session *domain.Session
}

// NewStore creates a store. backend may be nil when no persistence medium is
// available.
func NewStore(backend ports.SessionBackend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// Init loads a previously persisted session. Partial pairs, unreadable user
// records and expired JWTs are discarded.
func (s *Store) Init(ctx context.Context) {
	if s.backend == nil {
		return
	}

	values, err := s.backend.GetValues(ctx, TokenKey, UserKey)
	if err != nil {
		log.Warn().Err(err).Msg("session storage unavailable, starting signed out")
		return
	}
	if len(values) == 0 {
		return
	}

	token, user := values[TokenKey], values[UserKey]
	var sess domain.Session
	sess.Token = token
	if user != "" {
		if err := json.Unmarshal([]byte(user), &sess.User); err != nil {
			log.Warn().Err(err).Msg("discarding unreadable stored user")
		}
	}

	if !sess.Valid() || tokenExpired(token, s.now()) {
		log.Info().Msg("discarding stale stored session")
		s.deletePersisted(ctx)
		return
	}

	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()
}

// SetSession replaces the current session. Invalid pairs are ignored.
func (s *Store) SetSession(ctx context.Context, sess domain.Session) {
	if !sess.Valid() {
		log.Warn().Msg("refusing to store incomplete session")
		return
	}

	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()

	if s.backend == nil {
		return
	}
	user, err := json.Marshal(sess.User)
	if err != nil {
		log.Warn().Err(err).Msg("could not encode user for storage")
		return
	}
	if err := s.backend.SetValues(ctx, map[string]string{
		TokenKey: sess.Token,
		UserKey:  string(user),
	}); err != nil {
		log.Warn().Err(err).Msg("could not persist session")
	}
}

func (s *Store) GetToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return "", false
	}
	return s.session.Token, true
}

func (s *Store) GetUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return domain.User{}, false
	}
	return s.session.User, true
}

// Session returns a copy of the current session.
func (s *Store) Session() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return domain.Session{}, false
	}
	return *s.session, true
}

// ClearSession forgets the session. Memory is cleared before storage so the
// store reports "signed out" even if the medium fails half way.
func (s *Store) ClearSession(ctx context.Context) {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if s.backend != nil {
		s.deletePersisted(ctx)
	}
}

func (s *Store) deletePersisted(ctx context.Context) {
	if err := s.backend.DeleteValues(ctx, TokenKey, UserKey); err != nil {
		log.Warn().Err(err).Msg("could not remove stored session")
	}
}

// tokenExpired reads the exp claim of a JWT without verifying it. Opaque
// tokens never expire locally; the server has the final word.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}

var _ ports.SessionStore = (*Store)(nil)
