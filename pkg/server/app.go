package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/repository"
	pkgch "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/clickhouse"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/config"
	xhttp "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/http"
	applogger "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/logger"
)

// App encapsulates the application lifecycle: the HTTP surface over the
// engine plus the infrastructure clients it owns.
type App struct {
	cfg         *config.Config
	httpHandler xhttp.Handler
	chClient    *pkgch.Client
	history     domrepo.HistoryPublisher
	l           *applogger.Logger

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	httpHandler xhttp.Handler,
	chClient *pkgch.Client,
	history domrepo.HistoryPublisher,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:         cfg,
		httpHandler: httpHandler,
		chClient:    chClient,
		history:     history,
		l:           l,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
	}
	if a.chClient != nil {
		opts = append(opts, xhttp.WithHealthCheck(a.chClient.Health))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, opts...)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("api listening",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("symbols", a.cfg.Strategy.Symbols),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.l.Warn("history publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
