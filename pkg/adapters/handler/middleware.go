package handler

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
)

type (
	userKey    struct{}
	visitorKey struct{}
)

type Middleware struct {
	sessions *Sessions
}

func NewMiddleware(sessions *Sessions) *Middleware {
	return &Middleware{sessions: sessions}
}

// RequireSession verifies the auth_token cookie. Requests without a cookie
// naming a signed-in visitor go to the login page.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := m.sessions.lookup(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		user, ok := v.store.GetUser()
		if !ok {
			m.sessions.end(w, r, v)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		ctx = context.WithValue(ctx, visitorKey{}, v)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the user stored by RequireSession.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userKey{}).(domain.User)
	return user, ok
}

func visitorFromContext(ctx context.Context) *visitor {
	v, _ := ctx.Value(visitorKey{}).(*visitor)
	return v
}
