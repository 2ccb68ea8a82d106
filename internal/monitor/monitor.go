package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lvladikov/hue-reporter/internal/aggregate"
	"github.com/lvladikov/hue-reporter/internal/eventbus"
)

// DefaultInterval is the poll interval when none is configured.
const DefaultInterval = 10 * time.Second

// waitGranularity bounds how long cancellation or a refresh request can
// sit unnoticed during the idle wait between polls.
const waitGranularity = time.Second

// Monitor runs the differential polling loop: aggregate, diff, publish,
// wait. An in-flight fetch is never interrupted; cancellation only
// short-circuits the idle wait.
type Monitor struct {
	actx     aggregate.Context
	interval time.Duration
	engine   *DiffEngine
	bus      *eventbus.Bus
	refresh  chan struct{}
}

// New creates a monitor publishing to bus.
func New(actx aggregate.Context, interval time.Duration, bus *eventbus.Bus) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		actx:     actx,
		interval: interval,
		engine:   NewDiffEngine(actx.BatteryThreshold),
		bus:      bus,
		refresh:  make(chan struct{}, 1),
	}
}

// Refresh requests an immediate poll, skipping the rest of the current
// idle wait. Safe to call from any goroutine; a pending request is
// never queued twice.
func (m *Monitor) Refresh() {
	select {
	case m.refresh <- struct{}{}:
	default:
	}
}

// Run executes poll cycles until ctx is cancelled. A cycle where every
// bridge fails is logged and skipped without touching the baseline.
func (m *Monitor) Run(ctx context.Context) error {
	log.Info().
		Dur("interval", m.interval).
		Int("bridges", len(m.actx.Bridges)).
		Msg("Monitor started")

	for {
		m.cycle()

		if err := m.wait(ctx); err != nil {
			log.Info().Msg("Monitor stopped")
			return err
		}
	}
}

// cycle fetches and diffs once. The run context is deliberately not
// threaded into the fetch: a poll already in flight always completes
// (bounded by the per-bridge HTTP timeout) and cancellation is honored
// in the idle wait only.
func (m *Monitor) cycle() {
	snapshots, warnings, err := aggregate.Aggregate(context.Background(), m.actx)
	if err != nil {
		log.Error().Err(err).Msg("Poll cycle failed, baseline retained")
		return
	}
	for _, w := range warnings {
		log.Warn().Str("bridge", w.Bridge).Err(w.Err).Msg("Bridge missing from this cycle")
	}

	report := m.engine.Observe(snapshots)
	m.publish(report)

	log.Debug().
		Bool("primed", report.Primed).
		Int("events", len(report.Events)).
		Msg("Poll cycle complete")
}

func (m *Monitor) publish(report CycleReport) {
	for _, ev := range report.Events {
		m.bus.Publish(eventbus.Event{
			ID:      ev.ID,
			Type:    busType(ev.Kind),
			Payload: ev,
		})
	}
	m.bus.Publish(eventbus.Event{
		ID:      uuid.NewString(),
		Type:    eventbus.EventTypeCycle,
		Payload: report,
	})
}

func busType(kind EventKind) eventbus.EventType {
	switch kind {
	case EventLightChange:
		return eventbus.EventTypeLightChange
	case EventMotion:
		return eventbus.EventTypeMotion
	default:
		return eventbus.EventTypeAlert
	}
}

// wait sleeps for the poll interval in one-second slices so ctx
// cancellation and refresh requests are honored promptly.
func (m *Monitor) wait(ctx context.Context) error {
	deadline := time.Now().Add(m.interval)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		if remaining > waitGranularity {
			remaining = waitGranularity
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-m.refresh:
			timer.Stop()
			log.Debug().Msg("Immediate refresh requested")
			return nil
		case <-timer.C:
		}
	}
}
