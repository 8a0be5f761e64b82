package ports

import (
	"context"

	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
)

// SessionBackend is the persistence medium behind the session store.
// SetValues and DeleteValues apply all keys or none.
type SessionBackend interface {
	GetValues(ctx context.Context, keys ...string) (map[string]string, error)
	SetValues(ctx context.Context, values map[string]string) error
	DeleteValues(ctx context.Context, keys ...string) error
}

// TokenProvider hands out the current bearer token, if any.
type TokenProvider interface {
	GetToken() (string, bool)
}

// SessionStore is the single source of truth for who is signed in.
type SessionStore interface {
	TokenProvider
	GetUser() (domain.User, bool)
	SetSession(ctx context.Context, session domain.Session)
	ClearSession(ctx context.Context)
}

// AuthAPI authenticates against the remote API.
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
	Signup(ctx context.Context, input domain.SignupInput) (*domain.Session, error)
}

// TreeAPI serves public profiles. A nil tree with a nil error means the
// username is not registered.
type TreeAPI interface {
	GetPublicTree(ctx context.Context, username string) (*domain.Tree, error)
}

// LinkAPI manages the signed-in user's links.
type LinkAPI interface {
	ListLinks(ctx context.Context, username string) ([]domain.Link, error)
	CreateLink(ctx context.Context, input domain.LinkInput) (*domain.Link, error)
	UpdateLink(ctx context.Context, id int64, input domain.LinkInput) (*domain.Link, error)
	DeleteLink(ctx context.Context, id int64) error
}

// RemoteAPI is the whole remote surface, as served by one client.
type RemoteAPI interface {
	AuthAPI
	TreeAPI
	LinkAPI
}
