// Package server wires configuration, storage, file storage, services and
// the HTTP API together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/pagekeeper/internal/logging"
	"github.com/dmitrijs2005/pagekeeper/internal/server/config"
	"github.com/dmitrijs2005/pagekeeper/internal/server/filestore"
	"github.com/dmitrijs2005/pagekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pagekeeper/internal/server/services"
)

// Seams for tests.
var (
	openRepositories = repomanager.Open
	newS3Store       = func(ctx context.Context, s filestore.S3Settings) (filestore.Store, error) {
		return filestore.NewS3Store(ctx, s)
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	http   *httpapi.Server
}

// NewApp connects to storage, migrates it, seeds the admin account and
// builds the HTTP server. On failure everything opened so far is closed.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	repos, err := openRepositories(ctx, repomanager.Settings{
		Driver:        c.DatabaseDriver,
		PostgresDSN:   c.DatabaseDSN,
		MongoURI:      c.MongoURI,
		MongoDatabase: c.MongoDatabase,
	})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := build(ctx, c, logger, repos)
	if err != nil {
		if cerr := repos.Close(ctx); cerr != nil {
			logger.Error(ctx, "close repositories", "error", cerr)
		}
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, repos repomanager.RepositoryManager) (*App, error) {
	if err := repos.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	authService := services.NewAuthService(repos.Admins(), c.SecretKey, c.AccessTokenValidityDuration, logger)
	if err := authService.EnsureAdmin(ctx, c.AdminUsername, c.AdminPasswordHash); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	store, localDir, err := openFileStore(ctx, c)
	if err != nil {
		return nil, err
	}

	policy := filestore.Policy{
		MaxBytes:  c.MaxUploadBytes,
		Images:    c.ImageExtensions,
		Videos:    c.VideoExtensions,
		Documents: c.DocumentExtensions,
	}
	uploader := filestore.NewUploader(policy, store, c.PublicBaseURL, logger)

	srv := httpapi.NewServer(httpapi.Settings{
		Address:            c.HTTPAddr,
		MaxUploadBytes:     c.MaxUploadBytes,
		LocalUploadDir:     localDir,
		LoginRatePerMinute: c.LoginRatePerMinute,
		LoginRateBurst:     c.LoginRateBurst,
		ShutdownTimeout:    c.ShutdownTimeout,
		DatabaseDriver:     c.DatabaseDriver,
	}, httpapi.Services{
		Pages:   services.NewPageService(repos.Pages(), uploader, logger, services.WithUploadCompensation(c.RollbackOrphanedUploads)),
		Forms:   services.NewFormService(repos.Forms(), logger),
		Auth:    authService,
		Site:    services.NewSiteService(c.SiteRoot, logger),
		Uploads: uploader,
	}, logger)

	return &App{config: c, logger: logger, repos: repos, http: srv}, nil
}

// openFileStore returns the configured store and, for the local backend, the
// directory to serve under /uploads/.
func openFileStore(ctx context.Context, c *config.Config) (filestore.Store, string, error) {
	switch c.FileBackend {
	case config.FileBackendS3:
		s, err := newS3Store(ctx, filestore.S3Settings{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Region:       c.S3Region,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, "", fmt.Errorf("s3 store: %w", err)
		}
		return s, "", nil
	default:
		s, err := filestore.NewLocalStore(c.UploadRoot)
		if err != nil {
			return nil, "", fmt.Errorf("local store: %w", err)
		}
		return s, s.Root(), nil
	}
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
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the repositories.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "driver", app.config.DatabaseDriver, "files", app.config.FileBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(context.Background()); err != nil {
		app.logger.Error(ctx, "close repositories", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
