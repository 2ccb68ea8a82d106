package hue

import "strings"

// Snapshot is one complete, point-in-time normalized capture of a
// bridge's assets. Snapshots are built once per fetch cycle and treated
// as read-only by every downstream consumer.
type Snapshot struct {
	BridgeID  string
	Name      string
	Address   string
	SWVersion string

	Lights        map[string]*Light
	Groups        map[string]*Group
	Scenes        map[string]*Scene
	Sensors       map[string]*Sensor
	Schedules     map[string]*Schedule
	Rules         map[string]*Rule
	ResourceLinks map[string]*ResourceLink
}

// LightState is the observable state of a light, or the target state of a
// group action / scene light state. Optional attributes stay pointers so
// "not reported" and zero are distinguishable.
type LightState struct {
	On        bool
	Reachable bool
	Bri       *int
	Hue       *int
	Sat       *int
	CT        *int
	XY        []float64
	ColorMode string
	Alert     string
	Effect    string
}

// Light is a normalized light with its owning bridge injected, so flat
// multi-bridge listings need no back-reference.
type Light struct {
	ID         string
	BridgeID   string
	BridgeName string
	UniqueID   string
	Name       string
	Type       string
	ModelID    string
	ProductID  string
	State      LightState
}

// SensorKind classifies sensor resources into the closed set the
// resolver and interpreter care about.
type SensorKind int

const (
	KindOther SensorKind = iota
	KindPresence
	KindSwitch
	KindRotary
	KindTemperature
	KindLightLevel
	KindDaylight
	KindVirtual // CLIP rule-support sensors, never a physical device
)

// SensorConfig is the normalized config block of a sensor.
type SensorConfig struct {
	On        bool
	Battery   *int
	Reachable *bool
}

// Sensor is one logical sensor resource. A physical multi-function device
// shows up as several of these, sharing a unique-id prefix.
type Sensor struct {
	ID          string
	BridgeID    string
	BridgeName  string
	UniqueID    string
	Name        string
	Type        string
	Kind        SensorKind
	ModelID     string
	ProductName string
	Config      SensorConfig
	State       map[string]any
}

// Primary reports whether this sensor's kind carries the user-assigned
// device name (the presence/switch/rotary endpoint does; the sibling
// temperature and light-level endpoints do not).
func (s *Sensor) Primary() bool {
	return s.Kind == KindPresence || s.Kind == KindSwitch || s.Kind == KindRotary
}

// LastUpdated returns the state's lastupdated timestamp, or "" when the
// sensor never reported.
func (s *Sensor) LastUpdated() string {
	v, _ := s.State["lastupdated"].(string)
	return v
}

// Group is a normalized group. Locations is nil except for
// Entertainment groups.
type Group struct {
	ID        string
	Name      string
	Type      string
	Class     string
	Lights    []string
	AllOn     bool
	AnyOn     bool
	Action    LightState
	Locations map[string][]float64
}

// Scene is a normalized scene. PerLightOverride is nil until the detail
// augmentation step ran for this scene.
type Scene struct {
	ID               string
	Name             string
	Type             string
	GroupID          string
	Lights           []string
	Version          int
	LastUpdated      string
	PerLightOverride map[string]LightState
}

// Command is the target call a schedule fires.
type Command struct {
	Address string
	Method  string
	Body    map[string]any
}

// Schedule is a normalized schedule. TimeSpec keeps the raw time string;
// decoding it is the interpreter's job.
type Schedule struct {
	ID          string
	Name        string
	Description string
	TimeSpec    string
	Status      string
	Command     Command
}

// Condition is one decoded-from-wire rule condition.
type Condition struct {
	Address  string
	Operator string
	Value    string
}

// Action is one rule action.
type Action struct {
	Address string
	Method  string
	Body    map[string]any
}

// Rule is a normalized automation rule.
type Rule struct {
	ID         string
	Name       string
	Status     string
	Conditions []Condition
	Actions    []Action
}

// ResourceLink is a normalized resourcelink.
type ResourceLink struct {
	ID          string
	Name        string
	Description string
	Owner       string
	Links       []string
}

// ClassifySensor maps a wire sensor type to its kind. CLIP types are
// virtual regardless of what function name they embed.
func ClassifySensor(sensorType string) SensorKind {
	if strings.HasPrefix(sensorType, "CLIP") {
		return KindVirtual
	}
	switch {
	case strings.Contains(sensorType, "Presence"):
		return KindPresence
	case strings.Contains(sensorType, "Switch"):
		return KindSwitch
	case strings.Contains(sensorType, "Rotary"):
		return KindRotary
	case strings.Contains(sensorType, "Temperature"):
		return KindTemperature
	case strings.Contains(sensorType, "LightLevel"):
		return KindLightLevel
	case strings.Contains(sensorType, "Daylight"):
		return KindDaylight
	}
	return KindOther
}

func normalizeState(rs RawLightState) LightState {
	return LightState{
		On:        rs.On,
		Reachable: rs.Reachable,
		Bri:       rs.Bri,
		Hue:       rs.Hue,
		Sat:       rs.Sat,
		CT:        rs.CT,
		XY:        rs.XY,
		ColorMode: rs.ColorMode,
		Alert:     rs.Alert,
		Effect:    rs.Effect,
	}
}

// Normalize reshapes a raw dump into the snapshot model, injecting the
// bridge identity into every contained light and sensor.
func Normalize(bridgeName, address string, dump *RawDump) *Snapshot {
	bridgeID := dump.Config.BridgeID
	if bridgeID == "" {
		bridgeID = address
	}
	name := bridgeName
	if name == "" {
		name = dump.Config.Name
	}

	s := &Snapshot{
		BridgeID:      bridgeID,
		Name:          name,
		Address:       address,
		SWVersion:     dump.Config.SWVersion,
		Lights:        make(map[string]*Light, len(dump.Lights)),
		Groups:        make(map[string]*Group, len(dump.Groups)),
		Scenes:        make(map[string]*Scene, len(dump.Scenes)),
		Sensors:       make(map[string]*Sensor, len(dump.Sensors)),
		Schedules:     make(map[string]*Schedule, len(dump.Schedules)),
		Rules:         make(map[string]*Rule, len(dump.Rules)),
		ResourceLinks: make(map[string]*ResourceLink, len(dump.ResourceLinks)),
	}

	for id, rl := range dump.Lights {
		s.Lights[id] = &Light{
			ID:         id,
			BridgeID:   bridgeID,
			BridgeName: name,
			UniqueID:   rl.UniqueID,
			Name:       rl.Name,
			Type:       rl.Type,
			ModelID:    rl.ModelID,
			ProductID:  rl.ProductID,
			State:      normalizeState(rl.State),
		}
	}

	for id, rg := range dump.Groups {
		s.Groups[id] = &Group{
			ID:        id,
			Name:      rg.Name,
			Type:      rg.Type,
			Class:     rg.Class,
			Lights:    rg.Lights,
			AllOn:     rg.State.AllOn,
			AnyOn:     rg.State.AnyOn,
			Action:    normalizeState(rg.Action),
			Locations: rg.Locations,
		}
	}

	for id, rc := range dump.Scenes {
		scene := &Scene{
			ID:          id,
			Name:        rc.Name,
			Type:        rc.Type,
			GroupID:     rc.Group,
			Lights:      rc.Lights,
			Version:     rc.Version,
			LastUpdated: rc.LastUpdated,
		}
		if len(rc.LightStates) > 0 {
			scene.PerLightOverride = make(map[string]LightState, len(rc.LightStates))
			for lightID, ls := range rc.LightStates {
				scene.PerLightOverride[lightID] = normalizeState(ls)
			}
		}
		s.Scenes[id] = scene
	}

	for id, rs := range dump.Sensors {
		s.Sensors[id] = &Sensor{
			ID:          id,
			BridgeID:    bridgeID,
			BridgeName:  name,
			UniqueID:    rs.UniqueID,
			Name:        rs.Name,
			Type:        rs.Type,
			Kind:        ClassifySensor(rs.Type),
			ModelID:     rs.ModelID,
			ProductName: rs.ProductName,
			Config: SensorConfig{
				On:        rs.Config.On,
				Battery:   rs.Config.Battery,
				Reachable: rs.Config.Reachable,
			},
			State: rs.State,
		}
	}

	for id, rs := range dump.Schedules {
		timeSpec := rs.LocalTime
		if timeSpec == "" {
			timeSpec = rs.Time
		}
		s.Schedules[id] = &Schedule{
			ID:          id,
			Name:        rs.Name,
			Description: rs.Description,
			TimeSpec:    timeSpec,
			Status:      rs.Status,
			Command: Command{
				Address: rs.Command.Address,
				Method:  rs.Command.Method,
				Body:    rs.Command.Body,
			},
		}
	}

	for id, rr := range dump.Rules {
		rule := &Rule{
			ID:         id,
			Name:       rr.Name,
			Status:     rr.Status,
			Conditions: make([]Condition, 0, len(rr.Conditions)),
			Actions:    make([]Action, 0, len(rr.Actions)),
		}
		for _, rc := range rr.Conditions {
			rule.Conditions = append(rule.Conditions, Condition{
				Address:  rc.Address,
				Operator: rc.Operator,
				Value:    rc.Value,
			})
		}
		for _, ra := range rr.Actions {
			rule.Actions = append(rule.Actions, Action{
				Address: ra.Address,
				Method:  ra.Method,
				Body:    ra.Body,
			})
		}
		s.Rules[id] = rule
	}

	for id, rl := range dump.ResourceLinks {
		s.ResourceLinks[id] = &ResourceLink{
			ID:          id,
			Name:        rl.Name,
			Description: rl.Description,
			Owner:       rl.Owner,
			Links:       rl.Links,
		}
	}

	return s
}
