package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/movienight/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(o *options) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and calendar feed over HTTP",
		Long: `Serve movies, memories, and scheduling as a JSON API, and the default
calendar at /calendar.ics. Calendar access is requested at startup.

Example:
  movienight serve --listen 127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = o.v.GetString(cfgKeyListen)
			}
			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Resolves in the background; early requests see 403 until then.
			a.Scheduler.RequestAccess(ctx)

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return sysError(fmt.Errorf("listen on %s: %w", listen, err))
			}
			srv := &http.Server{
				Handler:           httpapi.NewServer(a.Movies, a.Memories, a.Scheduler, a.Logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", ln.Addr())
			a.Logger.Info("http server starting", zap.String("addr", ln.Addr().String()))

			errc := make(chan error, 1)
			go func() { errc <- srv.Serve(ln) }()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return sysError(fmt.Errorf("serve: %w", err))
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return sysError(fmt.Errorf("shutdown: %w", err))
			}
			a.Logger.Info("http server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default: listen in config.yaml)")
	return cmd
}
