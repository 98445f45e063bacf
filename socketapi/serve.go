/* socketapi/serve.go */

package socketapi

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brightloop/socketapi/internal/logging"
)

// ListenAndServe starts an HTTP server on addr serving handler (typically
// App.Handler(), or a mount/chi or mount/gin composition carrying the
// app's routes alongside others) and blocks until SIGINT or SIGTERM,
// then drains in-flight requests with a 5s timeout. Startup, shutdown, and
// serve faults are logged through internal/logging rather than printed, so
// a standalone deployment gets the same structured log stream as the rest
// of the core.
func ListenAndServe(addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log := logging.Logger()
	port := ln.Addr().(*net.TCPAddr).Port
	log.Info().Int("port", port).Msg("socketapi server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown did not complete cleanly")
			return err
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		log.Error().Err(err).Msg("server exited unexpectedly")
		return err
	}
}
