// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/taskkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	var limiter ratelimit.Limiter = ratelimit.Noop{}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		limiter = ratelimit.NewRedisLimiter(app.redis, c.RateLimitPerMinute, time.Minute)
	}

	app.handler, err = buildHandler(c, db, m, limiter, logger)
	if err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

// buildHandler assembles services and the router on top of an open database.
func buildHandler(c *config.Config, db *sql.DB, m repomanager.RepositoryManager, limiter ratelimit.Limiter, logger logging.Logger) (http.Handler, error) {
	hasher, err := cryptox.NewPasswordHasher(cryptox.DefaultParams())
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	secret := []byte(c.SecretKey)
	identity := services.NewIdentityService(db, m, hasher)
	sessions := services.NewSessionManager(
		identity,
		auth.NewCodec(secret, c.AccessTokenValidityDuration, auth.TokenTypeAccess),
		auth.NewCodec(secret, c.RefreshTokenValidityDuration, auth.TokenTypeRefresh),
		services.CookieConfig{
			Path:     c.CookiePath,
			Domain:   c.CookieDomain,
			Secure:   c.CookieSecure,
			HTTPOnly: c.CookieHTTPOnly,
			SameSite: c.SameSiteMode(),
		},
	)

	h := httpapi.NewHandler(httpapi.Deps{
		Identity: identity,
		Sessions: sessions,
		Tasks:    services.NewTaskService(db, m),
		Tx:       httpapi.SQLTx(db),
		Ready:    db.PingContext,
		Limiter:  limiter,
		Logger:   logger,

		TrustProxyHeaders: c.TrustProxyHeaders,
	})
	return h.NewRouter(c.APIPrefix), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.handler, app.logger, app.config.ShutdownTimeout)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
