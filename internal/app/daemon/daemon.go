// Package daemon - долгоживущая поверхность: держит контроллер сессии,
// следует за шиной и отвечает на локальный HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"walletlock/internal/app/client"
	"walletlock/internal/app/daemon/api"
	"walletlock/internal/app/daemon/api/http/health"
)

const shutdownTimeout = 5 * time.Second

type Daemon struct {
	app    *client.App
	server *http.Server
	log    *slog.Logger
}

func New(app *client.App, log *slog.Logger) *Daemon {
	log = log.With(slog.String("component", "daemon"))

	deps := api.Deps{
		Origin:  app.Origin(),
		Session: app.Session(),
	}
	if p, ok := app.Backend().(health.Pinger); ok {
		deps.Storage = p
	}

	return &Daemon{
		app: app,
		server: &http.Server{
			Addr:              app.Config().DaemonAddress,
			Handler:           api.New(deps, log),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Run блокируется до отмены ctx или до первой ошибки сервера либо шины.
func (d *Daemon) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", d.server.Addr, err)
	}
	return d.Serve(ctx, ln)
}

func (d *Daemon) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.log.Info("daemon listening", "addr", ln.Addr().String())
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return d.app.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		d.log.Info("daemon shutting down")
		return d.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
