package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lvladikov/hue-reporter/internal/aggregate"
	"github.com/lvladikov/hue-reporter/internal/eventbus"
)

const testDump = `{"config": {"name": "Home"}, "lights": {}, "sensors": {}, "groups": {}}`

func monitorFixture(t *testing.T, handler http.HandlerFunc, interval time.Duration) (*Monitor, chan struct{}) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	bus := eventbus.NewWithConfig(1, 16)
	t.Cleanup(func() { bus.Close(context.Background()) })

	cycles := make(chan struct{}, 16)
	bus.Subscribe(eventbus.EventTypeCycle, func(eventbus.Event) { cycles <- struct{}{} })

	actx := aggregate.Context{
		Bridges: []aggregate.BridgeConfig{{
			Name:    "Home",
			Address: strings.TrimPrefix(srv.URL, "http://"),
			Token:   "tok",
		}},
		Timeout: 2 * time.Second,
	}
	return New(actx, interval, bus), cycles
}

func waitCycle(t *testing.T, cycles chan struct{}, what string) {
	t.Helper()
	select {
	case <-cycles:
	case <-time.After(3 * time.Second):
		t.Fatalf("no cycle event: %s", what)
	}
}

func TestRun_RefreshShortCircuitsWait(t *testing.T) {
	m, cycles := monitorFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testDump)
	}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	waitCycle(t, cycles, "first poll")

	// An hour-long interval remains; Refresh must trigger the next poll
	// promptly anyway.
	m.Refresh()
	waitCycle(t, cycles, "poll after Refresh")

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}

func TestRun_CancelDuringWaitStopsPromptly(t *testing.T) {
	m, cycles := monitorFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testDump)
	}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	waitCycle(t, cycles, "first poll")
	cancel()

	// The idle wait slices in one-second steps, so cancellation must be
	// noticed well before the hour-long interval elapses.
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor still running 2s after cancel")
	}
}

func TestRun_CancelDoesNotAbortInFlightFetch(t *testing.T) {
	var interrupted atomic.Bool
	started := make(chan struct{}, 16)
	m, cycles := monitorFixture(t, func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		time.Sleep(400 * time.Millisecond)
		select {
		case <-r.Context().Done():
			interrupted.Store(true)
		default:
		}
		fmt.Fprint(w, testDump)
	}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("bridge fetch never started")
	}
	cancel()

	// The in-flight poll completes and its cycle is still published.
	waitCycle(t, cycles, "cycle finishing despite cancellation")

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("monitor did not stop after the cycle finished")
	}
	if interrupted.Load() {
		t.Error("cancellation tore down the in-flight bridge request")
	}
}
