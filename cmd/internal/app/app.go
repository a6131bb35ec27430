// Package app wires the tasker server runtime: config, logging, storage,
// services and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"tasker/cmd/identity"
	authapi "tasker/cmd/internal/auth/api"
	"tasker/cmd/internal/auth/gate"
	"tasker/cmd/internal/auth/session"
	"tasker/cmd/internal/httpx"
	"tasker/cmd/internal/metrics"
	"tasker/cmd/internal/task"
	taskapi "tasker/cmd/internal/task/api"
	"tasker/cmd/security/password"
)

// Stores groups the persistence the services run on.
type Stores struct {
	Users    identity.Store
	Sessions session.Store
	Tasks    task.Store
	DB       Pinger
}

// Settings is every config section the server needs.
type Settings struct {
	App      Config
	Session  session.Config
	Password password.Config
}

// App is the tasker server runtime: it owns the pool and the HTTP server wiring.
type App struct {
	cfg     Config
	log     Logger
	pool    *pgxpool.Pool
	handler http.Handler
}

// New connects to Postgres, migrates if configured and wires every service.
func New(ctx context.Context, s Settings, log Logger) (*App, error) {
	pool, err := NewDBPool(ctx, s.App)
	if err != nil {
		return nil, err
	}
	if err := prepareDB(ctx, s.App, pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	a, err := newApp(s, log, Stores{
		Users:    users,
		Sessions: session.NewPostgresStore(pool),
		Tasks:    task.NewPostgresStore(pool),
		DB:       users,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}
	a.pool = pool
	return a, nil
}

// newApp builds the handler tree over st. Tests call it with in-memory stores.
func newApp(s Settings, log Logger, st Stores) (*App, error) {
	if st.Users == nil || st.Sessions == nil || st.Tasks == nil || st.DB == nil {
		return nil, errors.New("app: incomplete stores")
	}

	reg := metrics.New()

	hasher := password.NewHasher(s.Password, reg)
	hasher.Prime()

	iss, err := session.NewIssuer(s.Session, st.Sessions)
	if err != nil {
		return nil, err
	}
	if err := ValidateSecurityConfig(s.App, iss, log); err != nil {
		return nil, err
	}

	sessions := session.NewService(st.Users, hasher, iss,
		session.WithLogger(log),
		session.WithEventRecorder(reg),
	)
	g := gate.New(iss)
	errs := httpx.NewErrors(log, s.App.Production())

	mux := http.NewServeMux()
	registerHTTP(mux, log, st.DB, reg,
		authapi.NewHandler(sessions, g, errs),
		taskapi.NewHandler(task.NewService(st.Tasks), g, errs),
	)

	return &App{
		cfg:     s.App,
		log:     log,
		handler: WithRequestID(WithRequestLogging(mux, log, reg)),
	}, nil
}

// Handler is the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	a.log.Info("server.start", "addr", srv.Addr, "env", a.cfg.AppEnv)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.close()
		return err
	}
	a.close()

	a.log.Info("server.stopped")
	return nil
}

func (a *App) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
