package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/focusring/internal/api"
	"github.com/sadopc/focusring/internal/config"
)

type serveOptions struct {
	Listen string
	Prefix string
}

func addServe(topLevel *cobra.Command, ro *rootOptions) {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the block store over HTTP for remote clients",
		Example: `
focusring serve
focusring serve --listen :9000
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(ro)
			if err != nil {
				return err
			}
			if cfg.Backend == config.BackendRemote {
				return errors.New("serve needs a sqlite or local backend, not remote")
			}
			if so.Listen != "" {
				cfg.Listen = so.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			return serve(ctx, cfg.Listen, api.NewServer(b.Blocks, logger).Handler(so.Prefix), logger)
		},
	}

	cmd.Flags().StringVar(&so.Listen, "listen", "", "Address to listen on (overrides the listen config key).")
	cmd.Flags().StringVar(&so.Prefix, "prefix", "/api", "Path prefix for the API routes.")

	topLevel.AddCommand(cmd)
}

// serve runs h until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
