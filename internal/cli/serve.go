package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mff-uk/dataspecer-sub018/internal/remote"
	"github.com/mff-uk/dataspecer-sub018/internal/store"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace read-only over HTTP",
		Long: `Serve the stored schemas read-only over HTTP so that other workspaces can
list this one among their remote specifications.

Endpoints:
  GET /bundle          every stored schema as an envelope bundle
  GET /schemas         stored schema IRIs
  GET /resource?iri=   one resource
  GET /health          liveness

The database is read on every request, so changes applied by other
specstore processes are visible immediately.

Examples:
  specstore serve
  specstore serve --addr :9000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from the workspace)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions, cmd *cobra.Command) error {
	cfg, db, logger, err := openDatabase(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	fmt.Fprintf(opts.formatter(cmd).GetErrWriter(), "Serving %s on http://%s\n", cfg.Database, ln.Addr())

	return serve(ctx, ln, newServer(db, logger), logger)
}

func newServer(db *store.Store, logger *slog.Logger) *http.Server {
	return &http.Server{
		Handler:           remote.NewHandler(db.LoadBundle, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, ln net.Listener, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("server started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return WrapExitError(ExitCommandError, "server failed", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitCommandError, "shutdown failed", err)
	}
	logger.Info("server stopped")
	return nil
}
