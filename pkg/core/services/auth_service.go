package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
	"github.com/wadjakorntonsri/chainhub/pkg/ports"
)

// AuthService runs the login, signup and logout flows. The session store is
// written only after the API accepted the credentials.
type AuthService struct {
	api   ports.AuthAPI
	store ports.SessionStore
}

func NewAuthService(api ports.AuthAPI, store ports.SessionStore) *AuthService {
	return &AuthService{api: api, store: store}
}

func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	if err := creds.Validate(); err != nil {
		return domain.User{}, err
	}

	sess, err := s.api.Login(ctx, creds)
	if err != nil {
		return domain.User{}, err
	}

	s.store.SetSession(ctx, *sess)
	log.Info().Str("username", sess.User.Username).Msg("signed in")
	return sess.User, nil
}

func (s *AuthService) Signup(ctx context.Context, input domain.SignupInput) (domain.User, error) {
	if err := input.Validate(); err != nil {
		return domain.User{}, err
	}

	sess, err := s.api.Signup(ctx, input)
	if err != nil {
		return domain.User{}, err
	}

	s.store.SetSession(ctx, *sess)
	log.Info().Str("username", sess.User.Username).Msg("account created")
	return sess.User, nil
}

// Logout clears the session. Redirecting is up to the caller.
func (s *AuthService) Logout(ctx context.Context) {
	s.store.ClearSession(ctx)
}

func (s *AuthService) CurrentUser() (domain.User, bool) {
	return s.store.GetUser()
}
