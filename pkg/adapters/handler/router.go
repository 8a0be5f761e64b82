package handler

import (
	"encoding/json"
	"net/http"

	"github.com/wadjakorntonsri/chainhub/pkg/config"
	"github.com/wadjakorntonsri/chainhub/pkg/core/session"
	"github.com/wadjakorntonsri/chainhub/pkg/logger"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, sessions *Sessions) http.Handler {
	v := mustViews()

	// Public pages need no token
	trees := sessions.newAPI(session.NewStore(nil))

	// Initialize Handlers
	dh := NewDashboardHandler(sessions, v)
	ah := NewAuthHandler(sessions, v)
	ph := NewPublicHandler(trees, sessions, cfg.RetryMaxElapsed, v)

	// Initialize Middleware
	mw := NewMiddleware(sessions)

	// Setup Router
	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		res := map[string]string{
			"message": "ok",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&res)
	})
	mux.HandleFunc("GET /{$}", ah.Home)
	mux.HandleFunc("GET /login", ah.LoginPage)
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("GET /signup", ah.SignupPage)
	mux.HandleFunc("POST /signup", ah.Signup)
	mux.HandleFunc("POST /logout", ah.Logout)
	mux.HandleFunc("GET /{username}", ph.GetTree)

	// Protected Routes
	protected := func(h http.HandlerFunc) http.Handler {
		return mw.RequireSession(h)
	}
	mux.Handle("GET /dashboard", protected(dh.Show))
	mux.Handle("POST /dashboard/links", protected(dh.CreateLink))
	mux.Handle("POST /dashboard/links/{id}", protected(dh.UpdateLink))
	mux.Handle("POST /dashboard/links/{id}/delete", protected(dh.DeleteLink))

	return logger.RequestLogger(mux)
}
