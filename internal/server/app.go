// Package server wires the configured components together and runs the
// HTTP server until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/equipview/internal/logging"
	"github.com/dmitrijs2005/equipview/internal/server/auth"
	"github.com/dmitrijs2005/equipview/internal/server/config"
	"github.com/dmitrijs2005/equipview/internal/server/history"
	"github.com/dmitrijs2005/equipview/internal/server/httpapi"
	"github.com/dmitrijs2005/equipview/internal/server/metrics"
	"github.com/dmitrijs2005/equipview/internal/server/objectstore"
	"github.com/dmitrijs2005/equipview/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/equipview/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

// NewApp opens the database, applies migrations and builds the router.
// Logs go to out as JSON.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger, err := logging.NewJSON(out, c.LogLevel)
	if err != nil {
		return nil, err
	}

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	objects, err := newObjectStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gate, err := auth.NewGate(db, rm, c.BcryptCost, m)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("access gate: %w", err)
	}

	store := history.NewStore(db, rm, logger, history.WithObjectDeleter(objects), history.WithMetrics(m))

	handler := httpapi.NewRouter(httpapi.Deps{
		Uploads:        services.NewUploadService(store, objects, m, logger),
		Accounts:       services.NewAccountService(db, rm, c.BcryptCost, logger),
		Gate:           gate,
		DB:             db,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         logger,
		MaxUploadSize:  c.MaxUploadSize,
		AllowedOrigins: c.AllowedOrigins,
	})

	return &App{config: c, logger: logger, db: db, handler: handler}, nil
}

func newObjectStore(ctx context.Context, c *config.Config) (objectstore.Store, error) {
	if c.ObjectStorage == config.StorageS3 {
		s, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			PresignTTL:   c.PresignTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		return s, nil
	}

	s, err := objectstore.NewFSStore(c.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("fs store: %w", err)
	}
	return s, nil
}

// Run serves until SIGINT, SIGTERM or SIGQUIT arrives or ctx ends, then
// drains in-flight requests and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	ln, err := net.Listen("tcp", app.config.EndpointAddrHTTP)
	if err != nil {
		_ = app.db.Close()
		return err
	}
	return app.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln until ctx is done.
func (app *App) Serve(ctx context.Context, ln net.Listener) error {
	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "close database", "error", err)
		}
	}()

	srv := &http.Server{
		Handler:      app.handler,
		ReadTimeout:  app.config.ReadTimeout,
		WriteTimeout: app.config.WriteTimeout,
		IdleTimeout:  app.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Main is the body of cmd/server.
func Main(args []string) int {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := app.Run(ctx); err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
		return 1
	}
	return 0
}
