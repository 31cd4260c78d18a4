// Package serve implements the serve command, running the HTTP API.
package serve

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	api "github.com/civicvoice/hearing-go/internal/api/v1"
	"github.com/civicvoice/hearing-go/internal/conf"
	"github.com/civicvoice/hearing-go/internal/datastore"
	"github.com/civicvoice/hearing-go/internal/errors"
	"github.com/civicvoice/hearing-go/internal/logging"
	"github.com/civicvoice/hearing-go/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Command returns the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hearing HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings)
		},
	}

	cmd.Flags().StringVar(&settings.WebServer.Host, "host", settings.WebServer.Host, "Listen address")
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", settings.WebServer.Port, "Listen port")

	return cmd
}

func run(ctx context.Context, settings *conf.Settings) error {
	if !settings.WebServer.Enabled {
		return errors.Newf("web server is disabled in configuration").
			Category(errors.CategoryConfiguration).
			Component("serve").
			Build()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ds, err := datastore.Open(settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := ds.Close(); err != nil {
			slog.Error("failed to close datastore", "error", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	metrics := observability.NewMetrics()
	api.New(e, ds, settings, metrics)

	if settings.WebServer.Log != "" {
		accessLog := logging.NewFileLogger(settings.WebServer.Log, "api")
		e.Use(accessLogMiddleware(accessLog))
	}

	addr := net.JoinHostPort(settings.WebServer.Host, settings.WebServer.Port)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// accessLogMiddleware writes one line per request to the API log file.
func accessLogMiddleware(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Info("request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
			)
			return err
		}
	}
}
