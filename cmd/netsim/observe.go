package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-netsim/pkg/game"
	"github.com/dd0wney/cluso-netsim/pkg/health"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
)

// events dropped on slow subscribers before /healthz reports degraded
const maxDroppedEvents = 1000

// observeMux serves the session's metrics, health probes and a JSON snapshot.
func observeMux(sess *game.Session) *http.ServeMux {
	state := func() health.SessionState {
		h := sess.Health()
		return health.SessionState{
			Running:       h.Running,
			Mode:          string(h.Mode),
			TickPanics:    h.TickPanics,
			DroppedEvents: h.DroppedEvents,
		}
	}

	checker := health.NewChecker(nil)
	checker.Register("session", health.SessionCheck(state), health.ProbeHealth, health.ProbeReady, health.ProbeLive)
	checker.Register("ticks", health.TickCheck(state), health.ProbeHealth)
	checker.Register("event_bus", health.EventBusCheck(state, maxDroppedEvents), health.ProbeHealth)
	checker.Register("memory", health.MemoryCheck(nil), health.ProbeHealth)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(sess.Metrics().GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	mux.Handle("/healthz", checker.Handler(health.ProbeHealth))
	mux.Handle("/readyz", checker.Handler(health.ProbeReady))
	mux.Handle("/livez", checker.Handler(health.ProbeLive))
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sess.Snapshot())
	})
	return mux
}

// serveObserve runs the observe endpoints on addr until ctx is done.
func serveObserve(ctx context.Context, addr string, sess *game.Session, logger logging.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           observeMux(sess),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("observe server shutdown", logging.Error(err))
		}
	}()

	logger.Info("observe server listening", logging.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("observe server", logging.Error(err))
	}
}
