package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/canvass/internal/config"
	httpadapter "github.com/aretw0/canvass/pkg/adapters/http"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// NewServer builds the HTTP handler for stack.
func NewServer(stack *Stack, cfg config.Config, logger *slog.Logger) *httpadapter.Server {
	opts := []httpadapter.Option{
		httpadapter.WithLogger(logger),
		httpadapter.WithAllowedOrigins(cfg.CORSOrigins...),
	}
	if stack.Metrics != nil {
		opts = append(opts, httpadapter.WithMetricsHandler(stack.Metrics.Handler()))
	}
	return httpadapter.NewServer(stack.Engine, opts...)
}

// Serve runs the HTTP server on ln until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, ln net.Listener, handler *httpadapter.Server, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		// Open event streams block Shutdown until closed.
		handler.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	})
	return g.Wait()
}
