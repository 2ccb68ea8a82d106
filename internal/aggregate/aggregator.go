// Package aggregate fetches and normalizes the asset dumps of all
// configured bridges with bounded parallelism.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lvladikov/hue-reporter/internal/hue"
)

// ErrNoBridges is returned when not a single bridge produced a snapshot.
// Rendering an empty result would be misleading, so this is fatal for
// the current cycle.
var ErrNoBridges = errors.New("no bridge could be reached")

// BridgeConfig identifies one bridge and its pre-obtained credential.
type BridgeConfig struct {
	Name    string
	Address string
	Token   string
}

// Context carries everything one aggregation run needs. No ambient
// state: credentials and tunables travel in this value.
type Context struct {
	Bridges          []BridgeConfig
	Concurrency      int
	BatteryThreshold int
	Timeout          time.Duration
}

// Warning records a non-fatal per-bridge failure.
type Warning struct {
	Bridge string
	Err    error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Bridge, w.Err)
}

// DefaultConcurrency is the host CPU core count, never less than two.
func DefaultConcurrency() int {
	n := runtime.NumCPU()
	if n < 2 {
		n = 2
	}
	return n
}

// Aggregate runs fetch -> augment -> normalize for every configured
// bridge, at most actx.Concurrency bridges in flight at once. Failed
// bridges are recorded as warnings and omitted; the whole run fails only
// when zero bridges succeed. Snapshots come back sorted by bridge name
// for deterministic output.
func Aggregate(ctx context.Context, actx Context) ([]*hue.Snapshot, []Warning, error) {
	if len(actx.Bridges) == 0 {
		return nil, nil, fmt.Errorf("%w: none configured", ErrNoBridges)
	}

	limit := actx.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency()
	}

	var (
		mu        sync.Mutex
		snapshots []*hue.Snapshot
		warnings  []Warning
	)

	gate := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for _, bc := range actx.Bridges {
		wg.Add(1)
		go func(bc BridgeConfig) {
			defer wg.Done()
			gate <- struct{}{}
			defer func() { <-gate }()

			snap, err := fetchBridge(ctx, bc, actx.Timeout)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Str("bridge", bc.Name).Err(err).Msg("Bridge excluded from snapshot")
				warnings = append(warnings, Warning{Bridge: bc.Name, Err: err})
				return
			}
			snapshots = append(snapshots, snap)
		}(bc)
	}
	wg.Wait()

	if len(snapshots) == 0 {
		return nil, warnings, fmt.Errorf("%w: all %d bridges failed", ErrNoBridges, len(actx.Bridges))
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Name < snapshots[j].Name
	})

	log.Debug().
		Int("bridges", len(snapshots)).
		Int("failed", len(warnings)).
		Msg("Aggregation complete")

	return snapshots, warnings, nil
}

func fetchBridge(ctx context.Context, bc BridgeConfig, timeout time.Duration) (*hue.Snapshot, error) {
	client := hue.NewClient(bc.Address, bc.Token, timeout)

	dump, err := client.FetchDump(ctx)
	if err != nil {
		return nil, err
	}

	client.AugmentScenes(ctx, dump)

	return hue.Normalize(bc.Name, bc.Address, dump), nil
}
