package app

import (
	"context"

	"github.com/lvladikov/hue-reporter/internal/config"
	"github.com/lvladikov/hue-reporter/internal/eventbus"
	"github.com/lvladikov/hue-reporter/internal/monitor"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	Bus     *eventbus.Bus
	Monitor *monitor.Monitor
	Health  *HealthService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	s.Monitor = monitor.New(cfg.AggregationContext(), cfg.Monitor.Interval.Duration(), s.Bus)

	s.Health = NewHealthService(cfg)
	// Readiness tracks completed poll cycles via the bus.
	s.Bus.Subscribe(eventbus.EventTypeCycle, func(ev eventbus.Event) {
		if report, ok := ev.Payload.(monitor.CycleReport); ok {
			s.Health.ObserveCycle(report)
		}
	})

	return s, nil
}

// Start starts the monitor loop and auxiliary services.
// The onFatalError callback is invoked if the monitor loop exits with an
// error other than cancellation.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	s.Health.Start(ctx)

	go func() {
		if err := s.Monitor.Run(ctx); err != nil && ctx.Err() == nil {
			onFatalError(err)
		}
	}()

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Bus != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
		defer cancel()
		s.Bus.Close(shutdownCtx)
	}
}
