package hue

// RawDump is the body of the bridge's bulk-state endpoint (/api/<token>).
// Every resource collection is keyed by the bridge-local string id.
type RawDump struct {
	Config        RawBridgeInfo              `json:"config"`
	Lights        map[string]RawLight        `json:"lights"`
	Groups        map[string]RawGroup        `json:"groups"`
	Scenes        map[string]RawScene        `json:"scenes"`
	Sensors       map[string]RawSensor       `json:"sensors"`
	Schedules     map[string]RawSchedule     `json:"schedules"`
	Rules         map[string]RawRule         `json:"rules"`
	ResourceLinks map[string]RawResourceLink `json:"resourcelinks"`
}

// RawBridgeInfo is the subset of the bridge config block we keep.
type RawBridgeInfo struct {
	Name       string `json:"name"`
	BridgeID   string `json:"bridgeid"`
	ModelID    string `json:"modelid"`
	SWVersion  string `json:"swversion"`
	APIVersion string `json:"apiversion"`
}

// RawLightState mirrors the state/action block of lights, groups and scene
// light states. Optional attributes are pointers: not every light model
// reports color or color temperature.
type RawLightState struct {
	On        bool      `json:"on"`
	Bri       *int      `json:"bri,omitempty"`
	Hue       *int      `json:"hue,omitempty"`
	Sat       *int      `json:"sat,omitempty"`
	XY        []float64 `json:"xy,omitempty"`
	CT        *int      `json:"ct,omitempty"`
	Alert     string    `json:"alert,omitempty"`
	Effect    string    `json:"effect,omitempty"`
	ColorMode string    `json:"colormode,omitempty"`
	Reachable bool      `json:"reachable"`
}

// RawLight is a light record from the bulk dump.
type RawLight struct {
	State            RawLightState `json:"state"`
	Type             string        `json:"type"`
	Name             string        `json:"name"`
	ModelID          string        `json:"modelid"`
	ManufacturerName string        `json:"manufacturername"`
	ProductName      string        `json:"productname"`
	ProductID        string        `json:"productid"`
	UniqueID         string        `json:"uniqueid"`
	SWVersion        string        `json:"swversion"`
}

// RawGroupState is the aggregate on/off summary of a group.
type RawGroupState struct {
	AllOn bool `json:"all_on"`
	AnyOn bool `json:"any_on"`
}

// RawGroup is a group record. Locations is only present for Entertainment
// groups and maps light ids to (x, y, z) positions.
type RawGroup struct {
	Name      string               `json:"name"`
	Lights    []string             `json:"lights"`
	Type      string               `json:"type"`
	Class     string               `json:"class"`
	State     RawGroupState        `json:"state"`
	Action    RawLightState        `json:"action"`
	Locations map[string][]float64 `json:"locations,omitempty"`
}

// RawScene is a scene record. The bulk dump omits LightStates; it is
// filled in by the per-scene detail call.
type RawScene struct {
	Name        string                   `json:"name"`
	Type        string                   `json:"type"`
	Group       string                   `json:"group,omitempty"`
	Lights      []string                 `json:"lights"`
	Owner       string                   `json:"owner"`
	LastUpdated string                   `json:"lastupdated"`
	Version     int                      `json:"version"`
	LightStates map[string]RawLightState `json:"lightstates,omitempty"`
}

// RawSensorConfig is the config block of a sensor. Battery and Reachable
// are pointers: virtual sensors carry neither.
type RawSensorConfig struct {
	On        bool  `json:"on"`
	Battery   *int  `json:"battery,omitempty"`
	Reachable *bool `json:"reachable,omitempty"`
}

// RawSensor is a sensor record. State is kept as a loose map because its
// attribute set varies per sensor type (presence, buttonevent,
// temperature, lightlevel, status, ...); all carry "lastupdated".
type RawSensor struct {
	State            map[string]any  `json:"state"`
	Config           RawSensorConfig `json:"config"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	ModelID          string          `json:"modelid"`
	ManufacturerName string          `json:"manufacturername"`
	ProductName      string          `json:"productname"`
	UniqueID         string          `json:"uniqueid"`
	SWVersion        string          `json:"swversion"`
}

// RawCommand is the command block of a schedule.
type RawCommand struct {
	Address string         `json:"address"`
	Body    map[string]any `json:"body"`
	Method  string         `json:"method"`
}

// RawSchedule is a schedule record. LocalTime holds the time spec on
// modern firmware; older firmware uses Time.
type RawSchedule struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Command     RawCommand `json:"command"`
	LocalTime   string     `json:"localtime"`
	Time        string     `json:"time"`
	Created     string     `json:"created"`
	Status      string     `json:"status"`
	AutoDelete  bool       `json:"autodelete"`
}

// RawCondition is a rule condition. Value is always a string on the wire,
// even for numeric comparisons; it is absent for the "dx" operator.
type RawCondition struct {
	Address  string `json:"address"`
	Operator string `json:"operator"`
	Value    string `json:"value,omitempty"`
}

// RawAction is a rule action.
type RawAction struct {
	Address string         `json:"address"`
	Method  string         `json:"method"`
	Body    map[string]any `json:"body"`
}

// RawRule is an automation rule record.
type RawRule struct {
	Name           string         `json:"name"`
	Owner          string         `json:"owner"`
	Created        string         `json:"created"`
	LastTriggered  string         `json:"lasttriggered"`
	TimesTriggered int            `json:"timestriggered"`
	Status         string         `json:"status"`
	Conditions     []RawCondition `json:"conditions"`
	Actions        []RawAction    `json:"actions"`
}

// RawResourceLink is a resourcelink record grouping related resources.
type RawResourceLink struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	ClassID     int      `json:"classid"`
	Owner       string   `json:"owner"`
	Links       []string `json:"links"`
}
