package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lvladikov/hue-reporter/internal/config"
	"github.com/lvladikov/hue-reporter/internal/monitor"
)

// HealthService provides HTTP health check endpoints for monitor mode.
// Readiness reflects whether a poll cycle has completed yet.
type HealthService struct {
	cfg    *config.Config
	server *http.Server

	mu        sync.RWMutex
	lastCycle time.Time
	primed    bool
}

// NewHealthService creates a new HealthService.
func NewHealthService(cfg *config.Config) *HealthService {
	return &HealthService{
		cfg: cfg,
	}
}

// ObserveCycle records a completed poll cycle. Wired as an event bus
// subscriber for cycle events.
func (s *HealthService) ObserveCycle(report monitor.CycleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCycle = report.At
	s.primed = true
}

// Start begins the health check server if enabled.
func (s *HealthService) Start(ctx context.Context) {
	if !s.cfg.Monitor.Healthcheck.Enabled {
		return
	}

	go s.run(ctx)
}

func (s *HealthService) run(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Monitor.Healthcheck.Host, s.cfg.Monitor.Healthcheck.Port)

	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Ready once the first poll cycle completed
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		primed, lastCycle := s.primed, s.lastCycle
		s.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if !primed {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"priming"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":     "ready",
			"last_cycle": lastCycle,
		})
	})

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	log.Info().Str("addr", addr).Msg("Starting health check server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Health check server shutdown error")
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Health check server error")
	}
}
