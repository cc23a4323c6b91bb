// Package app wires configuration, storage and services together for the
// server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	handler "github.com/vncsmyrnk/keyvote/internal/adapters/handler/http"
	"github.com/vncsmyrnk/keyvote/internal/adapters/repository/jsonfile"
	"github.com/vncsmyrnk/keyvote/internal/adapters/repository/sqldb"
	"github.com/vncsmyrnk/keyvote/internal/config"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
	"github.com/vncsmyrnk/keyvote/internal/core/services"
)

type App struct {
	Store      ports.Store
	Auth       *services.AuthService
	Votes      ports.VoteService
	Keys       ports.KeyService
	Candidates ports.CandidateService
	Sessions   ports.SessionService
	Admin      ports.AdminService
	Reconcile  ports.ReconcileService

	allowedOrigins []string
	close          func() error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, closeFn, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	passwordHash := []byte(cfg.AdminPasswordHash())
	if len(passwordHash) == 0 {
		passwordHash, err = services.HashAdminPassword(cfg.AdminPassword())
		if err != nil {
			closeFn()
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	}

	a := NewWithStore(store, services.AuthConfig{
		JWTSecret:         []byte(cfg.JWTSecret()),
		AdminUsername:     cfg.AdminUsername(),
		AdminPasswordHash: passwordHash,
		VoterTokenTTL:     cfg.VoterTokenTTL(),
		AdminTokenTTL:     cfg.AdminTokenTTL(),
	}, []byte(cfg.KeyHashSecret()))
	a.allowedOrigins = cfg.AllowedOrigins()
	a.close = closeFn
	return a, nil
}

// NewWithStore builds the services on top of an already opened store.
func NewWithStore(store ports.Store, authCfg services.AuthConfig, keyHashSecret []byte) *App {
	auth := services.NewAuthService(store, authCfg)

	return &App{
		Store:      store,
		Auth:       auth,
		Votes:      services.NewVoteService(store, auth, services.NewKeyHasher(keyHashSecret)),
		Keys:       services.NewKeyService(store),
		Candidates: services.NewCandidateService(store),
		Sessions:   services.NewSessionService(store),
		Admin:      services.NewAdminService(store),
		Reconcile:  services.NewReconcileService(store),
		close:      func() error { return nil },
	}
}

func (a *App) Handler() http.Handler {
	return handler.NewHandler(handler.Handlers{
		Auth:           handler.NewAuthHandler(a.Auth),
		Vote:           handler.NewVoteHandler(a.Votes, a.Sessions),
		Candidate:      handler.NewCandidateHandler(a.Candidates),
		Admin:          handler.NewAdminHandler(a.Keys, a.Candidates, a.Sessions, a.Admin),
		Verifier:       a.Auth,
		AllowedOrigins: a.allowedOrigins,
	})
}

func (a *App) Close() error {
	return a.close()
}

// OpenStore opens the backend selected by DATABASE_DRIVER. SQL backends are
// migrated before use.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.Store, func() error, error) {
	switch cfg.DatabaseDriver() {
	case config.DriverFile:
		store, err := jsonfile.NewStore(cfg.StorageDir())
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using JSON file storage", "dir", cfg.StorageDir())
		return store, func() error { return nil }, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := sqldb.Open(ctx, cfg.DatabaseDriver(), cfg.DatabaseDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := sqldb.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("using SQL storage", "driver", cfg.DatabaseDriver())
		return sqldb.NewStore(db), db.Close, nil
	}

	return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver())
}
