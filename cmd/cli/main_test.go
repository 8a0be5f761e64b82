package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/chainhub/pkg/config"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
)

type apiLink struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

// fakeAPI is a one-user remote API.
type fakeAPI struct {
	mu     sync.Mutex
	links  []apiLink
	nextID int64
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "hunter22" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token": "tok-cli",
			"user":  map[string]interface{}{"id": 1, "email": "gui@example.com", "username": "gui"},
		})
	})
	mux.HandleFunc("GET /tree/{username}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("username") != "gui" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 1, "username": "gui", "title": "Gui", "links": f.links})
	})
	mux.HandleFunc("GET /links", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"links": f.links})
	})
	mux.HandleFunc("POST /links", func(w http.ResponseWriter, r *http.Request) {
		var link apiLink
		_ = json.NewDecoder(r.Body).Decode(&link)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.nextID++
		link.ID = f.nextID
		f.links = append(f.links, link)
		writeJSON(w, http.StatusCreated, link)
	})
	mux.HandleFunc("PUT /links/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var in apiLink
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.links {
			if f.links[i].ID == id {
				in.ID = id
				f.links[i] = in
				writeJSON(w, http.StatusOK, in)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "link not found"})
	})
	mux.HandleFunc("DELETE /links/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.links {
			if f.links[i].ID == id {
				f.links = append(f.links[:i], f.links[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "link not found"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setup(t *testing.T) (*fakeAPI, *config.Config) {
	t.Helper()
	remote := &fakeAPI{nextID: 20}
	server := httptest.NewServer(remote.handler())
	t.Cleanup(server.Close)

	return remote, &config.Config{
		APIURL:          server.URL,
		SessionDBURL:    "file:" + t.TempDir() + "/session.sqlite",
		RequestTimeout:  2 * time.Second,
		RetryMaxElapsed: 200 * time.Millisecond,
	}
}

// runCommand starts a fresh app per call, the way separate CLI invocations
// share only the session database.
func runCommand(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a, cleanup := newApp(context.Background(), cfg, &out)
	defer cleanup()
	err := a.run(context.Background(), args)
	return out.String(), err
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	_, cfg := setup(t)

	_, err := runCommand(t, cfg, "login", "-identifier", "gui", "-password", "hunter22")
	require.NoError(t, err)

	out, err := runCommand(t, cfg, "whoami")
	require.NoError(t, err)
	var user domain.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "gui", user.Username)

	_, err = runCommand(t, cfg, "logout")
	require.NoError(t, err)

	_, err = runCommand(t, cfg, "whoami")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestLoginWrongPassword(t *testing.T) {
	_, cfg := setup(t)

	_, err := runCommand(t, cfg, "login", "-identifier", "gui", "-password", "nope")

	assert.Equal(t, "invalid email or password", describe(err))
	_, err = runCommand(t, cfg, "whoami")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestLinkCommands(t *testing.T) {
	remote, cfg := setup(t)
	_, err := runCommand(t, cfg, "login", "-identifier", "gui", "-password", "hunter22")
	require.NoError(t, err)

	out, err := runCommand(t, cfg, "add", "-title", "GitHub", "-url", "https://github.com/gui")
	require.NoError(t, err)
	var created domain.Link
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, domain.Link{ID: 21, Title: "GitHub", URL: "https://github.com/gui", Position: 0, IsActive: true}, created)

	_, err = runCommand(t, cfg, "add", "-title", "Drafts", "-url", "https://gui.dev/drafts", "-inactive")
	require.NoError(t, err)

	_, err = runCommand(t, cfg, "edit", "-id", "21", "-title", "Code")
	require.NoError(t, err)
	assert.Equal(t, apiLink{ID: 21, Title: "Code", URL: "https://github.com/gui", Position: 0, IsActive: true}, remote.links[0])

	out, err = runCommand(t, cfg, "links")
	require.NoError(t, err)
	var links []domain.Link
	require.NoError(t, json.Unmarshal([]byte(out), &links))
	require.Len(t, links, 2)
	assert.Equal(t, 1, links[1].Position)

	out, err = runCommand(t, cfg, "tree")
	require.NoError(t, err)
	var tree domain.Tree
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	require.Len(t, tree.Links, 1, "inactive links are not public")
	assert.Equal(t, "Code", tree.Links[0].Title)

	_, err = runCommand(t, cfg, "rm", "-id", "21")
	require.NoError(t, err)
	assert.Len(t, remote.links, 1)

	_, err = runCommand(t, cfg, "rm", "-id", "21")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestTreeNotFound(t *testing.T) {
	_, cfg := setup(t)

	_, err := runCommand(t, cfg, "tree", "nobody")

	assert.ErrorIs(t, err, errNotFound)
	assert.Equal(t, "no page for @nobody: not found", describe(err))
}

func TestUsageErrors(t *testing.T) {
	_, cfg := setup(t)

	tests := [][]string{
		{},
		{"frobnicate"},
		{"rm"},
		{"edit", "-title", "x"},
		{"add", "-bogus"},
	}
	for _, args := range tests {
		_, err := runCommand(t, cfg, args...)
		assert.ErrorIs(t, err, errUsage, "args %v", args)
	}
}

func TestLinksRequireSession(t *testing.T) {
	_, cfg := setup(t)

	_, err := runCommand(t, cfg, "links")

	assert.ErrorIs(t, err, domain.ErrNoSession)
}
