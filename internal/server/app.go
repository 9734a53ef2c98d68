// Package server wires configuration, storage, services and both transports
// together and runs them until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/sku-codemong/codemong-Backend-02/internal/cryptox"
	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/auth"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/config"
	gs "github.com/sku-codemong/codemong-Backend-02/internal/server/grpc"
	hs "github.com/sku-codemong/codemong-Backend-02/internal/server/http"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/http/handler"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/http/middleware"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/ratelimit"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/realtime"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/repomanager"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	codec  *auth.Codec
	hub    *realtime.Hub
	http   *hs.Server
	grpc   *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogFormat, c.LogLevel)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.RunMigrations {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	app, err := newApp(c, logger, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

// newApp builds everything above the database handle.
func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	codec, err := auth.NewCodec(auth.CodecConfig{
		AccessSecret:  c.JWTAccessSecret,
		RefreshSecret: c.JWTRefreshSecret,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	cookies := auth.NewCookiePolicy(auth.CookieConfig{
		Production: c.IsProduction(),
		Domain:     c.CookieDomain,
		SameSite:   c.CookieSameSite,
		Secure:     c.CookieSecure,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	})

	app := &App{config: c, logger: logger, db: db, codec: codec}

	opts := services.AuthOptions{
		AllowedEmailDomains: c.AllowedEmailDomains,
		TrustLogoutUserID:   c.TrustLogoutUserID,
	}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		opts.Limiter = ratelimit.NewLoginLimiter(app.redis, ratelimit.Config{
			MaxAttempts: c.LoginMaxAttempts,
			Window:      c.LoginWindow,
		})
	}

	app.hub = realtime.NewHub(logger)

	as := services.NewAuthService(db, rm, codec, cryptox.NewHasher(c.BcryptCost), opts, logger.With("module", "auth"))
	ps := services.NewProfileService(db, rm, c, logger.With("module", "profile"))
	fs := services.NewFriendService(db, rm, app.hub, logger.With("module", "friends"))

	h := handler.New(as, ps, fs, cookies, logger)
	router := hs.NewRouter(h, middleware.NewGuard(codec), logger)

	app.http = hs.NewServer(c.HTTPAddr, router, logger)
	app.grpc = gs.NewGRPCServer(c.GRPCAddr, logger, app.hub, codec, c.RealtimeEnforceExpiry)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or
// either server fails. A failure of one server stops the other.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "http", app.config.HTTPAddr, "grpc", app.config.GRPCAddr)

	app.initSignalHandler(cancelFunc)

	errs := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server failed", "error", err)
			errs <- err
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.grpc.Run(ctx); err != nil {
			app.logger.Error(ctx, "grpc server failed", "error", err)
			errs <- err
			cancelFunc()
		}
	}()

	wg.Wait()
	app.close()
	app.logger.Info(context.Background(), "App stopped")

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

func (app *App) close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
