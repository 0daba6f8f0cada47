package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"resume-tailor/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

// Run serves handler on addr until ctx is done, then drains in-flight requests.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.listening", map[string]any{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	telemetry.Info("server.shutdown", map[string]any{"addr": addr})
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
