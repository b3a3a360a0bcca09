// Package server defines the core Server struct that composes the app's
// main dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger
//   - the store connection (edge or local sqlite)
//   - the data-access layer and its startup migrations
//   - repositories
//   - the http.Server for the system endpoints
//
// It provides constructors and start/shutdown logic to run the service
// cleanly.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/statelayer/edgebase/internal/config"
	"github.com/statelayer/edgebase/internal/database"
	"github.com/statelayer/edgebase/internal/repository"
	"github.com/statelayer/edgebase/internal/sqlerr"
	"github.com/statelayer/edgebase/internal/store"
	"github.com/statelayer/edgebase/internal/store/edge"
	"github.com/statelayer/edgebase/internal/store/sqlite"
)

// storePingTimeout bounds the startup connectivity probe, in seconds.
const storePingTimeout = 10

// Server is the application container that holds shared resources.
type Server struct {
	Config *config.Config
	Logger *zerolog.Logger
	Store  store.Conn
	DB     *database.Database
	Repos  *repository.Repositories

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies: it opens the
// configured store backend, pings it so startup fails fast when the store
// is down, builds the data-access layer, and applies pending migrations.
func New(cfg *config.Config, logger *zerolog.Logger) (*Server, error) {
	conn, err := newStoreConn(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("connected to the store")

	opts := []database.Option{
		database.WithLogger(*logger),
		database.WithSettings(database.Settings{
			MaxRetries:         cfg.Database.Retries(),
			RetryDelay:         cfg.Database.RetryDelay(),
			QueryTimeout:       cfg.Database.QueryTimeout(),
			SlowQueryThreshold: cfg.Database.SlowQuery(),
			LogQueries:         cfg.Database.LogQueries,
		}),
	}
	if cfg.Database.StrictClassifier {
		opts = append(opts, database.WithClassifier(sqlerr.Classify))
	}
	db := database.New(conn, opts...)

	// Migrations run programmatically at startup; there is no CLI surface.
	mctx, mcancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer mcancel()
	if err := db.RunMigrations(mctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		Store:  conn,
		DB:     db,
		Repos:  repository.NewRepositories(db),
	}, nil
}

func newStoreConn(cfg *config.Config, logger *zerolog.Logger) (store.Conn, error) {
	switch cfg.Database.Driver {
	case "edge":
		return edge.New(edge.Config{
			Endpoint:   cfg.Database.Endpoint,
			AccountID:  cfg.Database.AccountID,
			DatabaseID: cfg.Database.DatabaseID,
			Token:      cfg.Database.Token,
		}, *logger), nil
	case "sqlite":
		return sqlite.Open(cfg.Database.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// SetupHTTPServer configures the internal net/http server. The router is
// passed in as handler.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It requires SetupHTTPServer to be called
// first and blocks until the server stops.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server and closes the store handle.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close store handle: %w", err)
	}
	return nil
}
