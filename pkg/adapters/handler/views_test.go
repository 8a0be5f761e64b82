package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
)

func TestIconForURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://twitter.com/gui", "twitter"},
		{"https://x.com/gui", "x"},
		{"https://GitHub.com/gui", "github"},
		{"https://www.instagram.com/gui", "instagram"},
		{"https://linkedin.com/in/gui", "linkedin"},
		{"https://m.youtube.com/@gui", "youtube"},
		{"https://netflix.com", "globe"},
		{"https://gui.dev", "globe"},
		{"::not a url", "globe"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, iconForURL(tt.url))
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &domain.ValidationError{Message: "bad"}, http.StatusUnprocessableEntity},
		{"auth", &domain.AuthError{Status: 401}, http.StatusUnauthorized},
		{"network", &domain.NetworkError{Op: "list links", Err: errors.New("refused")}, http.StatusBadGateway},
		{"not found", domain.ErrLinkNotFound, http.StatusNotFound},
		{"in flight", domain.ErrMutationInFlight, http.StatusConflict},
		{"malformed", &domain.MalformedResponseError{Op: "list links", Err: errors.New("missing id")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRenderAllPages(t *testing.T) {
	v, err := newViews()
	require.NoError(t, err)

	user := &domain.User{ID: 1, Username: "gui"}
	for _, name := range pageNames {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			v.render(rr, http.StatusOK, name, pageData{
				User: user,
				Tree: &domain.Tree{Username: "gui", Title: "Gui"},
			})
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
		})
	}
}
