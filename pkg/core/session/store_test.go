package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
)

type memBackend struct {
	values    map[string]string
	getErr    error
	setErr    error
	deleteErr error
	sets      int
	deletes   int
}

func newMemBackend() *memBackend {
	return &memBackend{values: map[string]string{}}
}

func (m *memBackend) GetValues(ctx context.Context, keys ...string) (map[string]string, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memBackend) SetValues(ctx context.Context, values map[string]string) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *memBackend) DeleteValues(ctx context.Context, keys ...string) error {
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

var testSession = domain.Session{
	Token: "opaque-token",
	User:  domain.User{ID: 1, Email: "gui@example.com", Username: "gui"},
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := &jwt.RegisteredClaims{Subject: "gui", ExpiresAt: jwt.NewNumericDate(exp)}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestStoreSetGetClear(t *testing.T) {
	backend := newMemBackend()
	store := NewStore(backend)
	ctx := context.Background()

	_, ok := store.GetToken()
	assert.False(t, ok, "no session on first run")

	store.SetSession(ctx, testSession)

	token, ok := store.GetToken()
	require.True(t, ok)
	assert.Equal(t, "opaque-token", token)
	user, ok := store.GetUser()
	require.True(t, ok)
	assert.Equal(t, "gui", user.Username)
	assert.Equal(t, "opaque-token", backend.values[TokenKey])
	assert.JSONEq(t, `{"id":1,"email":"gui@example.com","username":"gui"}`, backend.values[UserKey])

	store.ClearSession(ctx)

	_, ok = store.GetToken()
	assert.False(t, ok)
	_, ok = store.GetUser()
	assert.False(t, ok)
	assert.Empty(t, backend.values)
}

func TestStoreSurvivesRestart(t *testing.T) {
	backend := newMemBackend()
	ctx := context.Background()
	NewStore(backend).SetSession(ctx, testSession)

	restarted := NewStore(backend)
	restarted.Init(ctx)

	sess, ok := restarted.Session()
	require.True(t, ok)
	assert.Equal(t, testSession, sess)
}

func TestStoreWithoutBackend(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	store.Init(ctx)
	store.SetSession(ctx, testSession)
	_, ok := store.GetToken()
	assert.True(t, ok)

	store.ClearSession(ctx)
	_, ok = store.GetToken()
	assert.False(t, ok)
}

func TestStorePersistenceFailuresAreNotFatal(t *testing.T) {
	backend := newMemBackend()
	backend.setErr = errors.New("disk full")
	backend.deleteErr = errors.New("disk gone")
	store := NewStore(backend)
	ctx := context.Background()

	store.SetSession(ctx, testSession)
	_, ok := store.GetToken()
	assert.True(t, ok, "memory copy is kept when persisting fails")

	store.ClearSession(ctx)
	_, ok = store.GetToken()
	assert.False(t, ok, "a failed delete still leaves a consistent signed-out state")
	_, ok = store.GetUser()
	assert.False(t, ok)
}

func TestStoreRejectsPartialSession(t *testing.T) {
	backend := newMemBackend()
	store := NewStore(backend)

	store.SetSession(context.Background(), domain.Session{Token: "t"})

	_, ok := store.GetToken()
	assert.False(t, ok)
	assert.Zero(t, backend.sets)
}

func TestStoreInitDiscards(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{name: "token without user", values: map[string]string{TokenKey: "t"}},
		{name: "user without token", values: map[string]string{UserKey: `{"id":1,"username":"gui"}`}},
		{name: "unreadable user", values: map[string]string{TokenKey: "t", UserKey: "{not json"}},
		{name: "expired jwt", values: map[string]string{
			TokenKey: signedToken(t, time.Now().Add(-time.Hour)),
			UserKey:  `{"id":1,"username":"gui"}`,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newMemBackend()
			backend.values = tt.values
			store := NewStore(backend)

			store.Init(context.Background())

			_, ok := store.GetToken()
			assert.False(t, ok)
			_, ok = store.GetUser()
			assert.False(t, ok)
			assert.Empty(t, backend.values, "stale keys are removed")
		})
	}
}

func TestStoreInitKeepsValidJWT(t *testing.T) {
	backend := newMemBackend()
	backend.values = map[string]string{
		TokenKey: signedToken(t, time.Now().Add(time.Hour)),
		UserKey:  `{"id":1,"email":"gui@example.com","username":"gui"}`,
	}
	store := NewStore(backend)

	store.Init(context.Background())

	_, ok := store.GetToken()
	assert.True(t, ok)
}

func TestStoreInitStorageUnavailable(t *testing.T) {
	backend := newMemBackend()
	backend.getErr = errors.New("locked")
	store := NewStore(backend)

	store.Init(context.Background())

	_, ok := store.GetToken()
	assert.False(t, ok)
}
