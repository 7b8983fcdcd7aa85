// Package server initializes and runs the gophsocial server.
// It opens the storage backend, applies migrations, wires the services and
// runs the HTTP API next to the gRPC health endpoint until a signal arrives.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophsocial/internal/logging"
	"github.com/dmitrijs2005/gophsocial/internal/server/config"
	"github.com/dmitrijs2005/gophsocial/internal/server/httpapi"
	"github.com/dmitrijs2005/gophsocial/internal/server/mail"
	"github.com/dmitrijs2005/gophsocial/internal/server/notify"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophsocial/internal/server/services"

	gs "github.com/dmitrijs2005/gophsocial/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	hub         *notify.Hub
	http        *httpapi.HTTPServer
	grpc        *gs.GRPCServer
}

// NewLogger returns the logger selected by format, writing to w.
func NewLogger(format string, w io.Writer) logging.Logger {
	if format == config.LogFormatConsole {
		return logging.NewConsoleLogger(w)
	}
	return logging.NewJSONLogger(w)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := NewLogger(c.LogFormat, os.Stdout)

	rm, err := repomanager.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	return newApp(c, logger, rm), nil
}

func newApp(c *config.Config, logger logging.Logger, rm repomanager.RepositoryManager) *App {
	hub := notify.NewHub(logger)
	mailer := mail.New(c, logger)

	router := httpapi.NewRouter(httpapi.Deps{
		Users:     services.NewUserService(rm, mailer, logger, c),
		Social:    services.NewSocialService(rm, hub, logger),
		Posts:     services.NewPostService(rm, hub, logger),
		Media:     services.NewMediaService(c),
		Hub:       hub,
		Logger:    logger,
		JWTSecret: []byte(c.SecretKey),
	})

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		hub:         hub,
		http:        httpapi.NewHTTPServer(c.EndpointAddrHTTP, logger, router),
		grpc:        gs.NewGRPCServer(c.EndpointAddrGRPC, logger, rm),
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

// run starts a server and cancels the whole app when it fails.
func (app *App) run(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "server stopped with error", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until ctx is canceled, a signal arrives or a server fails,
// then releases the notification hub and the storage connection.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.Backend())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.run(ctx, cancelFunc, "http", app.http.Run)
	}()
	go func() {
		defer wg.Done()
		app.run(ctx, cancelFunc, "grpc", app.grpc.Run)
	}()

	wg.Wait()

	app.hub.Close()
	if err := app.repomanager.Close(context.Background()); err != nil {
		app.logger.Error(ctx, "error closing storage", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
