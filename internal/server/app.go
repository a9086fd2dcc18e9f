// Package server assembles and runs the Internship Tracker API: it opens the
// database, applies migrations, connects object storage and the optional
// Redis rate limiter, and serves HTTP until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/interntrack/internal/logging"
	"github.com/dmitrijs2005/interntrack/internal/server/auth"
	"github.com/dmitrijs2005/interntrack/internal/server/blobstore"
	"github.com/dmitrijs2005/interntrack/internal/server/config"
	"github.com/dmitrijs2005/interntrack/internal/server/httpapi"
	"github.com/dmitrijs2005/interntrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/interntrack/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, "interntrack", logging.ParseLevel(c.LogLevel))
	warnInsecureDefaults(ctx, c, logger)

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	limiter, err := newRateLimiter(ctx, c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("rate limiter init error: %w", err)
	}

	srv, err := newHTTPServer(c, db, rm, store, limiter, logger)
	if err != nil {
		limiter.Close()
		db.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, http: srv}, nil
}

// newHTTPServer wires the services over the given infrastructure.
func newHTTPServer(c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, store blobstore.Store,
	limiter httpapi.RateLimiter, logger logging.Logger) (*httpapi.Server, error) {

	tokens, err := auth.NewTokenService([]byte(c.SecretKey), c.TokenTTL)
	if err != nil {
		return nil, err
	}
	hasher, err := auth.NewPasswordHasher(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	return httpapi.NewServer(httpapi.Deps{
		Users:         services.NewUserService(db, rm, hasher, tokens, logger),
		Internships:   services.NewInternshipService(db, rm, logger),
		Uploads:       services.NewUploadService(store, c.MaxUploadBytes, logger),
		Gateway:       auth.NewGateway(tokens, rm.Users(db)),
		Limiter:       limiter,
		Metrics:       httpapi.NewMetrics(),
		DB:            db,
		Logger:        logger,
		CORSOrigins:   c.CORSOrigins,
		RegisterLimit: c.RateLimitRegister,
		LoginLimit:    c.RateLimitLogin,
		RateWindow:    c.RateLimitWindow,
	}), nil
}

// warnInsecureDefaults flags development settings left in place.
func warnInsecureDefaults(ctx context.Context, c *config.Config, logger logging.Logger) {
	if c.UsesDefaultSecret() {
		logger.Warn(ctx, "secret key is the development default; set ITRACK_SECRET_KEY, anyone can forge tokens with this key")
	}
}

// newRateLimiter uses Redis when an address is configured, memory otherwise.
func newRateLimiter(ctx context.Context, c *config.Config, logger logging.Logger) (httpapi.RateLimiter, error) {
	if c.RedisAddr == "" {
		return httpapi.NewMemoryRateLimiter(), nil
	}
	return httpapi.NewRedisRateLimiter(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB, logger)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx, app.config.EndpointAddrHTTP); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.http.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
