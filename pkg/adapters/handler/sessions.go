package handler

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/core/services"
	"github.com/wadjakorntonsri/chainhub/pkg/core/session"
	"github.com/wadjakorntonsri/chainhub/pkg/ports"
)

const (
	sessionCookie = "auth_token"
	sessionTTL    = 30 * 24 * time.Hour
)

var errInvalidCookie = errors.New("invalid session cookie")

// APIFactory builds a remote API client that signs its calls with tokens.
type APIFactory func(tokens ports.TokenProvider) ports.RemoteAPI

// visitor is one browser's session: its own store, API client and link
// controller.
type visitor struct {
	id    string
	store *session.Store
	api   ports.RemoteAPI
	auth  *services.AuthService

	mu     sync.Mutex
	ctrl   *services.LinkController
	loaded bool
}

// reset closes the current controller. Calls it still has in flight finish
// without touching the next collection.
func (v *visitor) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctrl != nil {
		v.ctrl.Close()
		v.ctrl = nil
		v.loaded = false
	}
}

func (v *visitor) current() *services.LinkController {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctrl == nil {
		v.ctrl = services.NewLinkController(v.api, v.store)
		v.loaded = false
	}
	return v.ctrl
}

func (v *visitor) isLoaded(ctrl *services.LinkController) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctrl == ctrl && v.loaded
}

func (v *visitor) load(ctx context.Context, ctrl *services.LinkController) error {
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	v.mu.Lock()
	if v.ctrl == ctrl {
		v.loaded = true
	}
	v.mu.Unlock()
	return nil
}

// ready returns a controller holding the server's list, loading it first if
// this visitor has not listed their links yet.
func (v *visitor) ready(ctx context.Context) (*services.LinkController, error) {
	ctrl := v.current()
	if v.isLoaded(ctrl) {
		return ctrl, nil
	}
	return ctrl, v.load(ctx, ctrl)
}

// Sessions ties the auth_token cookie to the visitor it was issued to. The
// cookie is a signed JWT whose subject names the visitor; the visitor's
// token and user live in their own scope of the session backend.
type Sessions struct {
	backend ports.SessionBackend
	newAPI  APIFactory
	secret  []byte
	secure  bool

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewSessions creates the registry. An empty secret gets a random one, so
// cookies stop working when the process restarts.
func NewSessions(backend ports.SessionBackend, newAPI APIFactory, secret string, secure bool) *Sessions {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
		log.Warn().Msg("SESSION_SECRET not set, browser sessions end when the process restarts")
	}
	return &Sessions{
		backend:  backend,
		newAPI:   newAPI,
		secret:   key,
		secure:   secure,
		visitors: make(map[string]*visitor),
	}
}

func (s *Sessions) newVisitor(id string) *visitor {
	store := session.NewStore(session.Scoped(s.backend, id))
	client := s.newAPI(store)
	return &visitor{
		id:    id,
		store: store,
		api:   client,
		auth:  services.NewAuthService(client, store),
	}
}

// start returns a visitor that is not registered until issue is called.
func (s *Sessions) start() *visitor {
	return s.newVisitor(uuid.NewString())
}

// issue registers v and hands the browser its cookie.
func (s *Sessions) issue(w http.ResponseWriter, v *visitor) error {
	expirationTime := time.Now().Add(sessionTTL)
	claims := &jwt.RegisteredClaims{
		Subject:   v.id,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.visitors[v.id] = v
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    tokenString,
		Expires:  expirationTime,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// lookup returns the signed-in visitor named by the request's cookie. A
// visitor this process has not seen yet is restored from the backend.
func (s *Sessions) lookup(r *http.Request) (*visitor, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	id, err := s.parse(cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("ignoring session cookie")
		return nil, false
	}

	s.mu.Lock()
	v, ok := s.visitors[id]
	s.mu.Unlock()
	if !ok {
		restored := s.newVisitor(id)
		restored.store.Init(r.Context())
		if _, signedIn := restored.store.GetUser(); !signedIn {
			return nil, false
		}
		s.mu.Lock()
		if v, ok = s.visitors[id]; !ok {
			v = restored
			s.visitors[id] = v
		}
		s.mu.Unlock()
	}

	if _, signedIn := v.store.GetUser(); !signedIn {
		s.forget(v)
		return nil, false
	}
	return v, true
}

func (s *Sessions) parse(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errInvalidCookie
	}
	return claims.Subject, nil
}

func (s *Sessions) forget(v *visitor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visitors[v.id] == v {
		delete(s.visitors, v.id)
	}
}

// discard signs v out and drops it from the registry.
func (s *Sessions) discard(ctx context.Context, v *visitor) {
	v.reset()
	v.auth.Logout(ctx)
	s.forget(v)
}

// end discards v and expires the browser's cookie.
func (s *Sessions) end(w http.ResponseWriter, r *http.Request, v *visitor) {
	if v != nil {
		s.discard(r.Context(), v)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Len reports how many visitors are signed in on this process.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}
