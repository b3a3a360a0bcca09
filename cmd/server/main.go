// Command server runs the edgebase service: it loads configuration, wires
// the store-backed data layer (running pending migrations), and serves the
// system endpoints until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/statelayer/edgebase/internal/config"
	"github.com/statelayer/edgebase/internal/logger"
	"github.com/statelayer/edgebase/internal/router"
	"github.com/statelayer/edgebase/internal/server"

	handlerPkg "github.com/statelayer/edgebase/internal/handler"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		bootLog := logger.New("local", "info")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Primary.Env, cfg.Primary.LogLevel)

	srv, err := server.New(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	handlers := handlerPkg.NewHandlers(srv)
	srv.SetupHTTPServer(router.New(handlers))

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
