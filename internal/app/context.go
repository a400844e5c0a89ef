package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"adopet/internal/admission"
	"adopet/internal/config"
	"adopet/internal/db"
	"adopet/internal/engine"
	"adopet/internal/migrate"
	"adopet/internal/notify"
	"adopet/internal/server"
)

const shutdownTimeout = 5 * time.Second

// Runtime is an opened workspace: migrated database, loaded config and the
// engine built on top of them.
type Runtime struct {
	Workspace string
	DB        *sql.DB
	Config    *config.Config
	Engine    engine.Engine
	Logger    *zap.Logger
}

// Open prepares the workspace, migrates its database and loads adopet.yml.
func Open(ctx context.Context, workspace string, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(admission.OptionalRules()); err != nil {
		return nil, err
	}
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Runtime{
		Workspace: workspace,
		DB:        conn,
		Config:    cfg,
		Engine:    engine.New(conn, cfg, logger),
		Logger:    logger,
	}, nil
}

func (rt *Runtime) Close() error {
	if rt == nil || rt.DB == nil {
		return nil
	}
	return rt.DB.Close()
}

// Dispatcher delivers the outbox through the configured senders.
func (rt *Runtime) Dispatcher() *notify.Dispatcher {
	n := rt.Config.Notifications
	return &notify.Dispatcher{
		Repo:        rt.Engine.Repo,
		Sender:      notify.FromConfig(n, rt.Logger.Named("notify")),
		Interval:    n.DispatchInterval(),
		BatchSize:   n.BatchSize,
		MaxAttempts: n.MaxAttempts,
		Logger:      rt.Logger.Named("dispatcher"),
	}
}

func (rt *Runtime) Handler() (http.Handler, error) {
	s := rt.Config.Server
	return server.New(server.Config{
		Engine:   rt.Engine,
		BasePath: s.BasePath,
		Auth:     server.AuthConfig{JWTSecret: s.JWTSecret, Required: s.RequireAuth, DevLogin: s.DevLogin},
		Logger:   rt.Logger.Named("http"),
	})
}

// Serve runs the HTTP API on ln and the notification dispatcher until ctx is
// done or either of them fails.
func (rt *Runtime) Serve(ctx context.Context, ln net.Listener) error {
	handler, err := rt.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return rt.Dispatcher().Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
