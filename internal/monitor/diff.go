// Package monitor diffs successive aggregation snapshots and surfaces
// state changes, motion events and threshold alerts.
package monitor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lvladikov/hue-reporter/internal/device"
	"github.com/lvladikov/hue-reporter/internal/hue"
)

// DefaultBatteryThreshold is the low-battery alert percentage.
const DefaultBatteryThreshold = 10

// EventKind classifies a monitor event.
type EventKind string

const (
	EventLightChange EventKind = "light_change"
	EventMotion      EventKind = "motion"
	EventLowBattery  EventKind = "low_battery"
	EventUnreachable EventKind = "unreachable"
)

// Event is one classified change observed between two cycles, or one
// fresh threshold alert.
type Event struct {
	ID       string
	Kind     EventKind
	Bridge   string
	Name     string
	UniqueID string
	Details  []string
	At       time.Time
}

// CycleReport bundles everything one observation cycle produced. Primed
// is false for the very first cycle, which only establishes the baseline.
type CycleReport struct {
	Primed     bool
	Events     []Event
	At         time.Time
	NumLights  int
	NumSensors int
}

type lightBaseline struct {
	bridge string
	name   string
	state  hue.LightState
}

// DiffEngine holds exactly one baseline between cycles: the previous
// light states and the previous motion timestamps, both keyed by the
// hardware unique id. The baseline is replaced atomically per cycle.
type DiffEngine struct {
	threshold int
	primed    bool
	lights    map[string]lightBaseline
	motion    map[string]string
}

// NewDiffEngine creates an engine in the priming state.
func NewDiffEngine(batteryThreshold int) *DiffEngine {
	if batteryThreshold <= 0 {
		batteryThreshold = DefaultBatteryThreshold
	}
	return &DiffEngine{
		threshold: batteryThreshold,
		lights:    make(map[string]lightBaseline),
		motion:    make(map[string]string),
	}
}

// Primed reports whether a baseline exists yet.
func (e *DiffEngine) Primed() bool {
	return e.primed
}

// Observe diffs the new snapshot set against the retained baseline and
// returns the cycle's events. The first call only primes the baseline
// and emits no change events; threshold alerts (low battery,
// unreachable devices) are recomputed fresh on every call, including the
// first.
func (e *DiffEngine) Observe(snapshots []*hue.Snapshot) CycleReport {
	now := time.Now()
	report := CycleReport{Primed: e.primed, At: now}

	newLights := make(map[string]lightBaseline)
	var sensors []*hue.Sensor

	for _, snap := range snapshots {
		for _, l := range snap.Lights {
			if l.UniqueID == "" {
				continue
			}
			newLights[l.UniqueID] = lightBaseline{bridge: snap.Name, name: l.Name, state: l.State}
		}
		for _, s := range snap.Sensors {
			sensors = append(sensors, s)
		}
		report.NumLights += len(snap.Lights)
		report.NumSensors += len(snap.Sensors)
	}

	if e.primed {
		report.Events = append(report.Events, e.lightChanges(newLights, now)...)
	}
	report.Events = append(report.Events, e.motionEvents(sensors, now)...)
	report.Events = append(report.Events, e.deviceAlerts(sensors, now)...)

	// New snapshot becomes the baseline; priming -> steady is
	// unconditional after the first successful observation.
	e.lights = newLights
	e.primed = true

	return report
}

func (e *DiffEngine) lightChanges(newLights map[string]lightBaseline, now time.Time) []Event {
	var events []Event
	for uid, cur := range newLights {
		prev, ok := e.lights[uid]
		if !ok {
			continue
		}
		details := diffLightState(prev.state, cur.state)
		if len(details) == 0 {
			continue
		}
		events = append(events, Event{
			ID:       uuid.NewString(),
			Kind:     EventLightChange,
			Bridge:   cur.bridge,
			Name:     cur.name,
			UniqueID: uid,
			Details:  details,
			At:       now,
		})
	}
	return events
}

// motionEvents signals motion purely by the presence sensor's lastupdated
// timestamp advancing. The presence boolean itself is never compared: a
// fresh reading is the authoritative signal, and the timestamp belongs to
// the presence endpoint alone, so sibling battery or temperature updates
// cannot fake a detection.
func (e *DiffEngine) motionEvents(sensors []*hue.Sensor, now time.Time) []Event {
	newMotion := make(map[string]string)
	var events []Event

	for _, s := range sensors {
		if s.Kind != hue.KindPresence || s.UniqueID == "" {
			continue
		}
		updated := s.LastUpdated()
		newMotion[s.UniqueID] = updated

		prev, seen := e.motion[s.UniqueID]
		if !e.primed || !seen || updated == prev || updated == "" {
			continue
		}
		events = append(events, Event{
			ID:       uuid.NewString(),
			Kind:     EventMotion,
			Bridge:   s.BridgeName,
			Name:     device.CanonicalName(sensors, s.UniqueID),
			UniqueID: s.UniqueID,
			Details:  []string{"Motion detected at " + updated},
			At:       now,
		})
	}

	e.motion = newMotion
	return events
}

// deviceAlerts recomputes low-battery and unreachable conditions against
// the resolved physical-device view. These are level alerts, not diffs.
func (e *DiffEngine) deviceAlerts(sensors []*hue.Sensor, now time.Time) []Event {
	var events []Event
	for _, d := range device.ResolvePhysical(sensors) {
		uid := ""
		if d.Endpoints[0].UniqueID != "" {
			uid = device.BaseID(d.Endpoints[0].UniqueID)
		}
		if d.Battery != nil && *d.Battery <= e.threshold {
			events = append(events, Event{
				ID:       uuid.NewString(),
				Kind:     EventLowBattery,
				Bridge:   d.BridgeName,
				Name:     d.Name,
				UniqueID: uid,
				Details:  []string{fmt.Sprintf("Battery at %d%%", *d.Battery)},
				At:       now,
			})
		}
		if !d.Reachable {
			events = append(events, Event{
				ID:       uuid.NewString(),
				Kind:     EventUnreachable,
				Bridge:   d.BridgeName,
				Name:     d.Name,
				UniqueID: uid,
				Details:  []string{"Device unreachable"},
				At:       now,
			})
		}
	}
	return events
}

// diffLightState compares the observable fields of two light states and
// returns one change description per differing field, in a fixed field
// order.
func diffLightState(prev, cur hue.LightState) []string {
	var changes []string

	if prev.On != cur.On {
		if cur.On {
			changes = append(changes, "Turned On")
		} else {
			changes = append(changes, "Turned Off")
		}
	}
	if !intPtrEqual(prev.Bri, cur.Bri) {
		if cur.Bri != nil {
			changes = append(changes, fmt.Sprintf("Brightness → %d%%", briPercent(*cur.Bri)))
		} else {
			changes = append(changes, "Brightness → unreported")
		}
	}
	if !intPtrEqual(prev.CT, cur.CT) {
		if cur.CT != nil {
			changes = append(changes, fmt.Sprintf("Color temperature → %d mired", *cur.CT))
		} else {
			changes = append(changes, "Color temperature → unreported")
		}
	}
	if !intPtrEqual(prev.Hue, cur.Hue) {
		if cur.Hue != nil {
			changes = append(changes, fmt.Sprintf("Hue → %d", *cur.Hue))
		} else {
			changes = append(changes, "Hue → unreported")
		}
	}
	if !intPtrEqual(prev.Sat, cur.Sat) {
		if cur.Sat != nil {
			changes = append(changes, fmt.Sprintf("Saturation → %d", *cur.Sat))
		} else {
			changes = append(changes, "Saturation → unreported")
		}
	}
	if !xyEqual(prev.XY, cur.XY) {
		if len(cur.XY) == 2 {
			changes = append(changes, fmt.Sprintf("Color → (%g, %g)", cur.XY[0], cur.XY[1]))
		} else {
			changes = append(changes, "Color → unreported")
		}
	}
	if prev.Reachable != cur.Reachable {
		if cur.Reachable {
			changes = append(changes, "Became reachable")
		} else {
			changes = append(changes, "Became unreachable")
		}
	}

	return changes
}

func briPercent(bri int) int {
	return int(float64(bri)/254*100 + 0.5)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func xyEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
