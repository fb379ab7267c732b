// Package server wires the inventory server together: configuration,
// storage, the session store, services and the HTTP and gRPC listeners. It
// also owns the process lifecycle (signals and graceful shutdown).
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/cryptox"
	"github.com/dmitrijs2005/partsinventory/internal/dbx"
	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/dmitrijs2005/partsinventory/internal/server/auth"
	"github.com/dmitrijs2005/partsinventory/internal/server/cache"
	"github.com/dmitrijs2005/partsinventory/internal/server/config"
	"github.com/dmitrijs2005/partsinventory/internal/server/httpserver"
	"github.com/dmitrijs2005/partsinventory/internal/server/metrics"
	"github.com/dmitrijs2005/partsinventory/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/partsinventory/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/partsinventory/internal/server/grpc"
)

// pruneInterval matches the default expired-session sweep of the session
// table the schema is shared with.
const pruneInterval = 15 * time.Minute

// expirer is a session store that can drop expired sessions in bulk.
type expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	store   auth.SessionStore
	handler *httpserver.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.NewJSON(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := dbx.Open(ctx, c.DatabaseDSN, c.PersistenceTimeout, dbx.PoolOptions{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.MigrateOnStart {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
	}

	store, rdb, err := newSessionStore(ctx, c, rm, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session store init error: %w", err)
	}

	collectors := metrics.New()
	hasher := cryptox.NewPBKDF2Hasher()

	us := services.NewUserService(db, rm, hasher, logger)
	cs := services.NewCategoryService(db, rm, logger)

	authn, err := auth.NewAuthenticator(us, hasher, c.PersistenceTimeout, logger.With("module", "auth"), collectors)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("authenticator init error: %w", err)
	}
	sm := auth.NewSessionManager(store, us, c.SessionTTL, c.PersistenceTimeout, logger.With("module", "sessions"), collectors)
	ss := services.NewSessionService(authn, sm, []byte(c.SessionSecret))

	h, err := httpserver.NewHandler(httpserver.Deps{
		Sessions:   ss,
		Users:      us,
		Categories: cs,
		Ready:      readiness{db: db, store: store},
		Observer:   collectors,
		Metrics:    collectors.Handler(),
		Cookie:     httpserver.CookieOptions{Name: c.SessionCookieName, Secure: c.CookieSecure},
		Logger:     logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("http handler init error: %w", err)
	}

	return &App{config: c, logger: logger, db: db, redis: rdb, store: store, handler: h}, nil
}

// newSessionStore picks the session backend named in the config. The
// returned client is non-nil only for the redis store.
func newSessionStore(ctx context.Context, c *config.Config, rm repomanager.RepositoryManager, db *sql.DB) (auth.SessionStore, *redis.Client, error) {
	switch c.SessionStore {
	case config.StorePostgres:
		return rm.Sessions(db), nil, nil
	case config.StoreRedis:
		rdb, err := cache.Connect(ctx, c.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisSessionStore(rdb), rdb, nil
	case config.StoreMemory:
		return cache.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", c.SessionStore)
	}
}

// readiness pings the database and, when it has one, the session backend.
type readiness struct {
	db    *sql.DB
	store auth.SessionStore
}

func (r readiness) PingContext(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return err
	}
	if p, ok := r.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpserver.NewServer(app.config.HTTPAddr, httpserver.NewRouter(app.handler), app.logger, app.config.ShutdownTimeout)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, readiness{db: app.db, store: app.store})
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// pruneSessions sweeps expired sessions until ctx is done. Stores with
// native expiry (redis) are skipped.
func pruneSessions(ctx context.Context, store auth.SessionStore, every time.Duration, l logging.Logger) {
	e, ok := store.(expirer)
	if !ok {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := e.DeleteExpired(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					l.Warn(ctx, "session prune failed", "error", err.Error())
				}
				continue
			}
			if n > 0 {
				l.Debug(ctx, "expired sessions pruned", "count", n)
			}
		}
	}
}

// Run starts the listeners and blocks until a shutdown signal arrives or
// ctx is cancelled, or either listener fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "session_store", app.config.SessionStore)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		pruneSessions(ctx, app.store, pruneInterval, app.logger)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(context.Background(), "shutdown error", "error", err.Error())
	}
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases the database pool and the redis client.
func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}
