// Package server wires the gestcard components together and runs the REST
// and gRPC servers until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/server/auth"
	"github.com/dmitrijs2005/gestcard/internal/server/config"
	"github.com/dmitrijs2005/gestcard/internal/server/httpapi"
	"github.com/dmitrijs2005/gestcard/internal/server/ratelimit"
	"github.com/dmitrijs2005/gestcard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gestcard/internal/server/services"
	"github.com/dmitrijs2005/gestcard/internal/timex"

	gs "github.com/dmitrijs2005/gestcard/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
	openDB      func(ctx context.Context, dsn string) (*sql.DB, error)
}

func NewApp(c *config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{
		Backend:     c.LogBackend,
		Level:       c.LogLevel,
		Development: c.LogDevelopment,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	return &App{
		config:      c,
		logger:      logger,
		repomanager: repomanager.NewPostgresRepositoryManager(),
		clock:       timex.SystemClock{},
		openDB:      repomanager.Open,
	}, nil
}

// Logger is the root logger the app was built with.
func (app *App) Logger() logging.Logger {
	return app.logger
}

// components are the servers built on top of one database handle.
type components struct {
	http *http.Server
	grpc *gs.GRPCServer
}

func (app *App) build(db *sql.DB) (*components, error) {
	c := app.config

	hasher, err := auth.NewBcryptHasher(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte(c.SecretKey),
		RefreshSecret: []byte(c.RefreshSecretKey),
		AccessTTL:     c.AccessTokenValidityDuration,
		RefreshTTL:    c.RefreshTokenValidityDuration,
	}, app.clock)
	if err != nil {
		return nil, err
	}

	guard := auth.NewGuard(issuer, app.repomanager.Accounts(db), app.logger)

	authService := services.NewAuthService(db, app.repomanager, hasher, issuer,
		services.NewLogNotifier(app.logger), app.clock, c.ResetTokenValidityDuration, app.logger)

	deps := httpapi.Deps{
		Auth:       authService,
		Admin:      services.NewAdminService(db, app.repomanager, app.logger),
		Uploads:    services.NewUploadService(c, app.clock),
		Guard:      guard,
		Logger:     app.logger,
		TrustProxy: c.TrustProxyHeaders,
	}
	if c.GoogleClientID != "" {
		verifier := services.NewGoogleVerifier(c.GoogleClientID)
		app.logger.Info(context.Background(), "external sign-in enabled", "provider", verifier.Describe())
		deps.External = verifier
	}
	if c.RateLimitPerMinute > 0 {
		deps.Limiter = ratelimit.PerMinute(c.RateLimitPerMinute, max(c.RateLimitBurst, 1))
	}

	return &components{
		http: &http.Server{
			Addr:              c.EndpointAddrHTTP,
			Handler:           httpapi.NewRouter(deps),
			ReadHeaderTimeout: 5 * time.Second,
		},
		grpc: gs.NewGRPCServer(c.EndpointAddrGRPC, app.logger, guard, nil),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc, srv *http.Server) {
	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc, s *gs.GRPCServer) {
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run connects to the database, applies migrations and serves until ctx is
// cancelled or a termination signal arrives.
// syncLogger flushes the zap backend. Sync errors on a console are expected
// and ignored.
func (app *App) syncLogger() {
	if z, ok := app.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.syncLogger()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	db, err := app.openDB(ctx, app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	if err := app.repomanager.RunMigrations(ctx, db); err != nil {
		return err
	}

	comps, err := app.build(db)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc, comps.http)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc, comps.grpc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")

	return nil
}
