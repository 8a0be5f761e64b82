package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/adapters/api"
	"github.com/wadjakorntonsri/chainhub/pkg/adapters/handler"
	"github.com/wadjakorntonsri/chainhub/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/chainhub/pkg/config"
	"github.com/wadjakorntonsri/chainhub/pkg/logger"
	"github.com/wadjakorntonsri/chainhub/pkg/ports"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.IsLocal())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux, cleanup := newApp(cfg)
	defer cleanup()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("api", cfg.APIURL).Msg("server starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// newApp wires the session backend, API clients and router. Without a usable
// session database the app still runs, sessions just do not survive a
// restart.
func newApp(cfg *config.Config) (http.Handler, func()) {
	var backend ports.SessionBackend
	cleanup := func() {}

	repo, err := sqlite.NewSQLiteRepository(cfg.SessionDBURL)
	if err != nil {
		log.Warn().Err(err).Msg("session database unavailable, sessions will not persist")
	} else {
		backend = repo
		cleanup = func() { _ = repo.Close() }
	}

	// Every visitor gets their own client; they share one connection pool.
	hc := &http.Client{Timeout: cfg.RequestTimeout}
	newAPI := func(tokens ports.TokenProvider) ports.RemoteAPI {
		return api.NewClientWithHTTP(cfg.APIURL, hc, tokens)
	}
	sessions := handler.NewSessions(backend, newAPI, cfg.SessionSecret, cfg.IsProduction())

	return handler.NewRouter(cfg, sessions), cleanup
}
