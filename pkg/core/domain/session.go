package domain

import "strings"

// User is the identity returned by the API on login or signup.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Session pairs a bearer token with the user it belongs to.
// Token and User are always set together.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid reports whether both halves of the pair are present.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.Username != ""
}

// Credentials are what the login form submits. Identifier may be an email
// or a username.
type Credentials struct {
	Identifier string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Identifier = strings.TrimSpace(c.Identifier)
	return validateStruct(c)
}

// SignupInput is what the signup form submits.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

func (s *SignupInput) Validate() error {
	s.Email = strings.TrimSpace(s.Email)
	s.Username = strings.TrimSpace(s.Username)
	return validateStruct(s)
}
