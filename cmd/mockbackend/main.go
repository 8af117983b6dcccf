// Command mockbackend serves canned /api/catalog, /api/details and /api/impact
// responses so the simulator can be run and demoed without the physics
// service.
//
// Usage:
//
//	go run ./cmd/mockbackend -addr :5000 -delay 1s
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/impact-sim/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mockbackend failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", ":5000", "listen address")
	delay := flag.Duration("delay", 0, "artificial latency added to every response")
	failImpact := flag.Bool("fail-impact", false, "answer every impact request with 502")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := sharedobs.NewLogger(*logLevel, "text")

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newHandler(clockwork.NewRealClock(), *delay, *failImpact, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock backend listening", "addr", *addr, "delay", *delay, "fail_impact", *failImpact)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newHandler(clock clockwork.Clock, delay time.Duration, failImpact bool, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	wait := func(r *http.Request) bool {
		if delay <= 0 {
			return true
		}
		select {
		case <-clock.After(delay):
			return true
		case <-r.Context().Done():
			return false
		}
	}

	mux.HandleFunc("GET /api/catalog", func(w http.ResponseWriter, r *http.Request) {
		if wait(r) {
			sharedobs.WriteJSON(w, http.StatusOK, catalogFixture)
		}
	})
	mux.HandleFunc("GET /api/details", func(w http.ResponseWriter, r *http.Request) {
		if wait(r) {
			sharedobs.WriteJSON(w, http.StatusOK, detailsFixture())
		}
	})
	mux.HandleFunc("POST /api/impact", func(w http.ResponseWriter, r *http.Request) {
		var req domain.ImpactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		logger.Info("impact requested",
			"diameter_km", req.DiameterKm,
			"velocity_kms", req.VelocityKms,
			"angle", req.Angle,
		)
		if !wait(r) {
			return
		}
		if failImpact {
			sharedobs.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": "impact service unavailable"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, impactFixture())
	})

	return mux
}
