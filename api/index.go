package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/adapters/api"
	"github.com/wadjakorntonsri/chainhub/pkg/adapters/handler"
	"github.com/wadjakorntonsri/chainhub/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/chainhub/pkg/config"
	"github.com/wadjakorntonsri/chainhub/pkg/logger"
	"github.com/wadjakorntonsri/chainhub/pkg/ports"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, false)

	// Note: On Vercel the local filesystem is ephemeral, point SESSION_DB_URL at a
	// libsql:// URL to keep sessions between cold starts.
	var backend ports.SessionBackend
	repo, err := sqlite.NewSQLiteRepository(cfg.SessionDBURL)
	if err != nil {
		log.Warn().Err(err).Msg("session database unavailable, sessions will not persist")
	} else {
		backend = repo
	}

	hc := &http.Client{Timeout: cfg.RequestTimeout}
	newAPI := func(tokens ports.TokenProvider) ports.RemoteAPI {
		return api.NewClientWithHTTP(cfg.APIURL, hc, tokens)
	}
	// SESSION_SECRET must be set here, cold starts would otherwise void every cookie.
	sessions := handler.NewSessions(backend, newAPI, cfg.SessionSecret, true)
	mux = handler.NewRouter(cfg, sessions)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
