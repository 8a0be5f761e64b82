package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	// Named in-memory database, shared between the pool's connections.
	repo, err := NewSQLiteRepository("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSetAndGetValues(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.GetValues(ctx, "token", "user")
	require.NoError(t, err)
	assert.Empty(t, got, "first run has no session")

	require.NoError(t, repo.SetValues(ctx, map[string]string{
		"token": "abc",
		"user":  `{"id":1}`,
	}))
	require.NoError(t, repo.SetValues(ctx, map[string]string{"token": "def"}))

	got, err = repo.GetValues(ctx, "token", "user")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"token": "def", "user": `{"id":1}`}, got)
}

func TestDeleteValues(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetValues(ctx, map[string]string{"token": "abc", "user": "{}", "other": "x"}))
	require.NoError(t, repo.DeleteValues(ctx, "token", "user"))

	got, err := repo.GetValues(ctx, "token", "user", "other")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"other": "x"}, got)
}

func TestGetValuesNoKeys(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetValues(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValuesSurviveReopen(t *testing.T) {
	path := "file:" + t.TempDir() + "/session.sqlite"
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.SetValues(ctx, map[string]string{"token": "persisted"}))
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetValues(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got["token"])
}
