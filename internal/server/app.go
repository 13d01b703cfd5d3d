// Package server assembles the docshare server: database, token
// authority, services, and the HTTP and gRPC front ends.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/auth"
	"github.com/dmitrijs2005/docshare/internal/server/config"
	"github.com/dmitrijs2005/docshare/internal/server/httpapi"
	"github.com/dmitrijs2005/docshare/internal/server/services"
	"github.com/dmitrijs2005/docshare/internal/server/storage"

	gs "github.com/dmitrijs2005/docshare/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	seeder *services.Seeder
	http   *httpapi.Server
	grpc   *gs.AccessControlServer
}

// NewApp opens and migrates the database and builds every service. The
// caller owns the returned App and must call Run, which releases it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewJSONLogger(os.Stdout, c.LogLevel)
	}
	if c.SecretKey == config.DevSecretKey {
		logger.Warn(ctx, "using the development secret key; set DOCSHARE_SECRET_KEY in production")
	}

	clk := clock.Real()
	db, rm, err := openStore(ctx, c.DatabaseDSN, clk, logger)
	if err != nil {
		return nil, err
	}

	presigner, err := storage.NewS3Presigner(ctx, storage.S3Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens := auth.NewTokenAuthority([]byte(c.SecretKey), c.IdentityTokenTTL, c.ResourceTokenTTL, clk, logger)
	gate := access.NewGate(tokens, rm.Users(db), rm.Permissions(db), logger)

	users := services.NewUserService(db, rm, tokens, auth.NewBcryptHasher(auth.DefaultBcryptCost), logger)
	deps := httpapi.Deps{
		Gate:      gate,
		Users:     users,
		Sharing:   services.NewSharingService(db, rm, gate, logger),
		Documents: services.NewDocumentService(db, rm, gate, presigner, storage.DefaultTTL, clk, logger),
		Downloads: services.NewDownloadService(db, rm, gate, tokens, presigner, c.PublicBaseURL, clk, logger),
		Tags:      services.NewTagService(db, rm, gate, logger),
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		seeder: services.NewSeeder(users, logger),
		http:   httpapi.NewServer(c.HTTPAddr, deps, logger),
		grpc:   gs.NewAccessControlServer(c.GRPCAddr, gate, tokens, logger),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
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

// Run seeds accounts if configured, then serves HTTP and gRPC until ctx
// is cancelled, a signal arrives, or either server fails.
func (app *App) Run(ctx context.Context) error {
	defer app.db.Close()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(ctx, cancelFunc)

	if app.config.SeedFile != "" {
		if _, err := app.seeder.SeedFromFile(ctx, app.config.SeedFile); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	run := func(name string, serve func(context.Context) error) {
		defer wg.Done()
		if err := serve(ctx); err != nil {
			app.logger.Error(ctx, "server failed", "server", name, "error", err)
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			cancelFunc()
		}
	}

	wg.Add(2)
	go run("http", app.http.Run)
	go run("grpc", app.grpc.Run)
	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return firstErr
}
