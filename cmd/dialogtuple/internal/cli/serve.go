package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtuple/dialogtuple/internal/di"
	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/internal/telemetry"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			shutdownTracing, err := telemetry.Setup(ctx, a.cfg.Telemetry)
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownTracing(flushCtx)
			}()

			container, err := a.container(ctx)
			if err != nil {
				return err
			}
			defer container.Close()

			listener, err := net.Listen("tcp", a.cfg.HTTP.Addr)
			if err != nil {
				return err
			}
			return serve(ctx, container, listener)
		},
	}
	cmd.Flags().String("addr", "", "Listen address, e.g. :8080")
	_ = a.viper.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

// serve runs the container's handler on listener until ctx is cancelled,
// then drains in-flight requests for up to HTTP.ShutdownTimeout.
func serve(ctx context.Context, container *di.Container, listener net.Listener) error {
	cfg := container.Config.HTTP
	logger := logging.ModuleHTTP.Logger(container.LoggerProvider())

	server := &http.Server{
		Handler:           container.HTTPHandler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http.listening", "addr", listener.Addr().String())
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	logger.Info("http.shutting_down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
