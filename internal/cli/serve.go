package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/elementx/pkg/adapters/http"
	"golang.org/x/sync/errgroup"
)

// Handler builds the HTTP API for the app.
func (a *App) Handler() (http.Handler, error) {
	return httpAdapter.NewHandler(a.Lab, a.Auth,
		httpAdapter.WithMetrics(a.Metrics),
		httpAdapter.WithLogger(a.Logger),
		httpAdapter.WithMaxUploadBytes(a.Config.MaxUploadBytes),
		httpAdapter.WithMaxInputSize(a.Config.MaxInputSize),
	)
}

// Serve runs the HTTP API on ln until ctx is cancelled, then drains
// in-flight requests for up to Config.ShutdownGrace.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("ElementX API listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownGrace)
		defer cancel()
		a.Logger.Info("shutting down", "grace", a.Config.ShutdownGrace)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// ListenAndServe is Serve on Config.Addr.
func (a *App) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Config.Addr, err)
	}
	return a.Serve(ctx, ln)
}
