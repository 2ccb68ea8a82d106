package device

import (
	"testing"

	"github.com/lvladikov/hue-reporter/internal/hue"
)

func newSensor(id, uniqueID, sensorType, name string) *hue.Sensor {
	return &hue.Sensor{
		ID:       id,
		BridgeID: "bridge-1",
		UniqueID: uniqueID,
		Name:     name,
		Type:     sensorType,
		Kind:     hue.ClassifySensor(sensorType),
		State:    map[string]any{},
	}
}

func TestBaseID_StripsEndpointSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"00:17:88:01:02:03:04:05-02-0406", "00:17:88:01:02:03:04:05"},
		{"00:17:88:01:02:03:04:05-02-0402", "00:17:88:01:02:03:04:05"},
		{"00:17:88:01:02:03:04:05-02-0400", "00:17:88:01:02:03:04:05"},
		{"00:17:88:01:ab:cd:ef:01-0f-fc00", "00:17:88:01:ab:cd:ef:01"},
		// No suffix: unchanged
		{"00:17:88:01:02:03:04:05", "00:17:88:01:02:03:04:05"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := BaseID(tc.in); got != tc.want {
			t.Errorf("BaseID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBaseID_StableAcrossEndpoints(t *testing.T) {
	endpoints := []string{
		"00:17:88:01:02:03:04:05-02-0406",
		"00:17:88:01:02:03:04:05-02-0402",
		"00:17:88:01:02:03:04:05-02-0400",
	}
	want := BaseID(endpoints[0])
	for _, uid := range endpoints {
		if got := BaseID(uid); got != want {
			t.Errorf("BaseID(%q) = %q, differs from %q", uid, got, want)
		}
	}
}

func multiSensorFixture() []*hue.Sensor {
	return []*hue.Sensor{
		newSensor("5", "00:17:88:01:02:03:04:05-02-0406", "ZLLPresence", "Hallway sensor"),
		newSensor("6", "00:17:88:01:02:03:04:05-02-0402", "ZLLTemperature", "Hue temperature sensor 1"),
		newSensor("7", "00:17:88:01:02:03:04:05-02-0400", "ZLLLightLevel", "Hue ambient light sensor 1"),
		newSensor("8", "00:00:00:00:00:44:23:08-f2", "ZGPSwitch", "Living room tap"),
	}
}

func TestResolvePhysical_GroupsEndpoints(t *testing.T) {
	devices := ResolvePhysical(multiSensorFixture())

	if len(devices) != 2 {
		t.Fatalf("expected 2 physical devices, got %d", len(devices))
	}

	var hallway *PhysicalDevice
	for _, d := range devices {
		if d.Name == "Hallway sensor" {
			hallway = d
		}
	}
	if hallway == nil {
		t.Fatal("hallway device not resolved under its primary name")
	}
	if len(hallway.Endpoints) != 3 {
		t.Errorf("hallway device has %d endpoints, want 3", len(hallway.Endpoints))
	}
	if hallway.Primary == nil || hallway.Primary.ID != "5" {
		t.Errorf("primary endpoint should be the presence sensor (id 5)")
	}
}

func TestResolvePhysical_OrderIndependent(t *testing.T) {
	base := multiSensorFixture()
	reversed := make([]*hue.Sensor, len(base))
	for i, s := range base {
		reversed[len(base)-1-i] = s
	}

	a := ResolvePhysical(base)
	b := ResolvePhysical(reversed)

	if len(a) != len(b) {
		t.Fatalf("groupings differ in size: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].BaseID != b[i].BaseID {
			t.Errorf("device %d differs: (%s, %s) vs (%s, %s)",
				i, a[i].Name, a[i].BaseID, b[i].Name, b[i].BaseID)
		}
		if len(a[i].Endpoints) != len(b[i].Endpoints) {
			t.Errorf("device %d endpoint count differs", i)
		}
	}
}

func TestResolvePhysical_Idempotent(t *testing.T) {
	sensors := multiSensorFixture()
	first := ResolvePhysical(sensors)
	second := ResolvePhysical(sensors)

	if len(first) != len(second) {
		t.Fatalf("resolving twice changed group count")
	}
	for i := range first {
		if first[i].Name != second[i].Name || first[i].BaseID != second[i].BaseID {
			t.Errorf("device %d changed between resolutions", i)
		}
	}
}

func TestResolvePhysical_VirtualSensorsNeverMerge(t *testing.T) {
	sensors := []*hue.Sensor{
		newSensor("20", "", "CLIPGenericStatus", "cycling"),
		newSensor("21", "", "CLIPGenericStatus", "cycleState"),
		newSensor("5", "00:17:88:01:02:03:04:05-02-0406", "ZLLPresence", "Hallway sensor"),
	}

	devices := ResolvePhysical(sensors)
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices (virtual sensors standalone), got %d", len(devices))
	}
}

func TestResolvePhysical_PrimaryTieBreakLowestID(t *testing.T) {
	// Two primary-typed endpoints on one device: lowest local id wins,
	// with ids compared numerically.
	sensors := []*hue.Sensor{
		newSensor("10", "00:17:88:01:aa:bb:cc:dd-01-fc00", "ZLLSwitch", "Second name"),
		newSensor("3", "00:17:88:01:aa:bb:cc:dd-02-fc00", "ZLLSwitch", "First name"),
	}

	devices := ResolvePhysical(sensors)
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if devices[0].Primary.ID != "3" {
		t.Errorf("primary = id %s, want id 3 (numeric tie-break)", devices[0].Primary.ID)
	}
	if devices[0].Name != "First name" {
		t.Errorf("name = %q, want %q", devices[0].Name, "First name")
	}
}

func TestResolvePhysical_NameFallbacks(t *testing.T) {
	// No primary endpoint: the device falls back to its own name, then
	// product name, then a synthetic label.
	named := []*hue.Sensor{newSensor("9", "00:17:88:01:11:11:11:11-02-0402", "ZLLTemperature", "Cellar temp")}
	if got := ResolvePhysical(named)[0].Name; got != "Cellar temp" {
		t.Errorf("own-name fallback = %q", got)
	}

	product := newSensor("9", "00:17:88:01:11:11:11:11-02-0402", "ZLLTemperature", "")
	product.ProductName = "Hue motion sensor"
	if got := ResolvePhysical([]*hue.Sensor{product})[0].Name; got != "Hue motion sensor" {
		t.Errorf("product-name fallback = %q", got)
	}

	anon := newSensor("9", "00:17:88:01:11:11:11:11-02-0402", "ZLLTemperature", "")
	if got := ResolvePhysical([]*hue.Sensor{anon})[0].Name; got != "Sensor 9" {
		t.Errorf("synthetic fallback = %q", got)
	}
}

func TestResolvePhysical_BatteryAndReachability(t *testing.T) {
	low := 8
	full := 100
	unreachable := false

	presence := newSensor("5", "00:17:88:01:02:03:04:05-02-0406", "ZLLPresence", "Hallway sensor")
	presence.Config.Battery = &low

	temp := newSensor("6", "00:17:88:01:02:03:04:05-02-0402", "ZLLTemperature", "")
	temp.Config.Battery = &full
	temp.Config.Reachable = &unreachable

	devices := ResolvePhysical([]*hue.Sensor{temp, presence})
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if devices[0].Battery == nil || *devices[0].Battery != 8 {
		t.Errorf("battery should come from the primary endpoint")
	}
	if devices[0].Reachable {
		t.Error("device with an unreachable endpoint should report unreachable")
	}
}

func TestCanonicalName(t *testing.T) {
	sensors := multiSensorFixture()

	// The temperature endpoint resolves to the presence endpoint's name.
	if got := CanonicalName(sensors, "00:17:88:01:02:03:04:05-02-0402"); got != "Hallway sensor" {
		t.Errorf("CanonicalName(temp endpoint) = %q, want %q", got, "Hallway sensor")
	}
	// The primary endpoint resolves to itself.
	if got := CanonicalName(sensors, "00:17:88:01:02:03:04:05-02-0406"); got != "Hallway sensor" {
		t.Errorf("CanonicalName(presence endpoint) = %q", got)
	}
	// Unknown unique id yields empty.
	if got := CanonicalName(sensors, "ff:ff:ff:ff:ff:ff:ff:ff-01-0000"); got != "" {
		t.Errorf("CanonicalName(unknown) = %q, want empty", got)
	}
}
