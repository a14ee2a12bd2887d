package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"appcatalog/internal/bootstrap"
	"appcatalog/internal/bootstrap/logging"
	"appcatalog/internal/errs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = app.Config.Server.Addr
		}
		janitorInterval, _ := cmd.Flags().GetDuration("janitor-interval")

		server := &http.Server{
			Addr:              addr,
			Handler:           app.API,
			ReadTimeout:       app.Config.Server.ReadTimeout,
			ReadHeaderTimeout: app.Config.Server.ReadTimeout,
			WriteTimeout:      app.Config.Server.WriteTimeout,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}

		go runJanitor(ctx, app, janitorInterval)

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "http server started", slog.String("addr", addr))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error(ctx, "http server failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve http")
			}
			return nil
		case <-ctx.Done():
		}

		logging.Info(ctx, "shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		logging.Info(ctx, "http server stopped")
		return nil
	}),
}

// runJanitor purges expired sessions and verifications and forgets idle
// rate limit clients until ctx ends.
func runJanitor(ctx context.Context, app *bootstrap.App, interval time.Duration) {
	if interval <= 0 {
		return
	}
	logCtx := logging.WithAttrs(ctx, slog.String("component", "cmd.janitor"))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := app.KV.PurgeExpired(ctx)
			if err != nil && ctx.Err() == nil {
				logging.Warn(logCtx, "purge expired keys failed", slog.Any("err", errs.Loggable(err)))
			}
			swept := app.API.SweepIdleClients(10 * interval)
			if purged > 0 || swept > 0 {
				logging.Debug(logCtx, "janitor pass", slog.Int64("purged_keys", purged), slog.Int("swept_clients", swept))
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().Duration("janitor-interval", time.Minute, "Interval for purging expired sessions (0 disables)")
}
