package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
)

// AuthHandler serves the home page and the login, signup and logout forms.
type AuthHandler struct {
	sessions *Sessions
	views    *views
}

func NewAuthHandler(sessions *Sessions, v *views) *AuthHandler {
	return &AuthHandler{sessions: sessions, views: v}
}

func (h *AuthHandler) currentUser(r *http.Request) *domain.User {
	return viewer(h.sessions, r)
}

// viewer returns the user behind the request's cookie, if any.
func viewer(sessions *Sessions, r *http.Request) *domain.User {
	v, ok := sessions.lookup(r)
	if !ok {
		return nil
	}
	user, ok := v.auth.CurrentUser()
	if !ok {
		return nil
	}
	return &user
}

// signIn replaces any earlier session of this browser with v and sends the
// visitor to their dashboard.
func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, v *visitor) {
	if old, ok := h.sessions.lookup(r); ok {
		h.sessions.discard(r.Context(), old)
	}
	if err := h.sessions.issue(w, v); err != nil {
		log.Error().Err(err).Msg("failed to sign session cookie")
		h.sessions.discard(r.Context(), v)
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, http.StatusOK, "home", pageData{User: h.currentUser(r)})
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.currentUser(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.views.render(w, http.StatusOK, "login", pageData{Title: "Login"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	creds := domain.Credentials{
		Identifier: r.PostFormValue("identifier"),
		Password:   r.PostFormValue("password"),
	}
	v := h.sessions.start()
	if _, err := v.auth.Login(r.Context(), creds); err != nil {
		log.Debug().Err(err).Msg("login rejected")
		h.views.render(w, statusFor(err), "login", pageData{
			Title: "Login",
			Error: domain.UserMessage(err),
			Form:  map[string]string{"identifier": creds.Identifier},
		})
		return
	}

	h.signIn(w, r, v)
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	if h.currentUser(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.views.render(w, http.StatusOK, "signup", pageData{Title: "Sign up"})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	input := domain.SignupInput{
		Email:    r.PostFormValue("email"),
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	v := h.sessions.start()
	if _, err := v.auth.Signup(r.Context(), input); err != nil {
		log.Debug().Err(err).Msg("signup rejected")
		h.views.render(w, statusFor(err), "signup", pageData{
			Title: "Sign up",
			Error: domain.UserMessage(err),
			Form:  map[string]string{"email": input.Email, "username": input.Username},
		})
		return
	}

	h.signIn(w, r, v)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	v, _ := h.sessions.lookup(r)
	h.sessions.end(w, r, v)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
