package hue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testToken = "abc123"

func addr(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func serveBody(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(addr(srv), testToken, time.Second)
}

func TestFetchDump(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/"+testToken {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{
			"config": {"name": "Home", "bridgeid": "001788FFFE000001", "swversion": "1963089030"},
			"lights": {"1": {"name": "Lamp", "uniqueid": "aa:bb-01", "state": {"on": true, "bri": 200, "reachable": true}}},
			"sensors": {"2": {"name": "Hall", "type": "ZLLPresence", "state": {"presence": false, "lastupdated": "2026-08-26T09:00:00"}}},
			"groups": {}
		}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(addr(srv), testToken, time.Second)
	dump, err := client.FetchDump(context.Background())
	if err != nil {
		t.Fatalf("FetchDump: %v", err)
	}
	if dump.Config.BridgeID != "001788FFFE000001" {
		t.Errorf("bridge id = %q", dump.Config.BridgeID)
	}
	light, ok := dump.Lights["1"]
	if !ok {
		t.Fatal("light 1 missing")
	}
	if !light.State.On || light.State.Bri == nil || *light.State.Bri != 200 {
		t.Errorf("light state = %+v", light.State)
	}
	if _, ok := dump.Sensors["2"]; !ok {
		t.Error("sensor 2 missing")
	}
}

func TestFetchDump_Unauthorized(t *testing.T) {
	client := serveBody(t, `[{"error": {"type": 1, "address": "/", "description": "unauthorized user"}}]`)
	_, err := client.FetchDump(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestFetchDump_EmptyBody(t *testing.T) {
	client := serveBody(t, "")
	_, err := client.FetchDump(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestFetchDump_MalformedJSON(t *testing.T) {
	client := serveBody(t, `{"lights": {`)
	_, err := client.FetchDump(context.Background())
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestFetchDump_WrongShape(t *testing.T) {
	// Valid JSON that is clearly not a bulk state dump.
	client := serveBody(t, `{"whitelist": {}}`)
	_, err := client.FetchDump(context.Background())
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestFetchDump_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	address := addr(srv)
	srv.Close()

	client := NewClient(address, testToken, time.Second)
	_, err := client.FetchDump(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}

func TestAugmentScenes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/" + testToken + "/scenes/relax-1":
			fmt.Fprint(w, `{
				"name": "Relax",
				"lights": ["1"],
				"lightstates": {"1": {"on": true, "bri": 144, "ct": 447}}
			}`)
		case "/api/" + testToken + "/scenes/broken-2":
			fmt.Fprint(w, `not json at all`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	dump := &RawDump{
		Scenes: map[string]RawScene{
			"relax-1":  {Name: "Relax", Lights: []string{"1"}},
			"broken-2": {Name: "Broken", Lights: []string{"2"}},
		},
	}

	client := NewClient(addr(srv), testToken, time.Second)
	client.AugmentScenes(context.Background(), dump)

	relax := dump.Scenes["relax-1"]
	if len(relax.LightStates) != 1 {
		t.Fatalf("relax lightstates = %v", relax.LightStates)
	}
	ls := relax.LightStates["1"]
	if !ls.On || ls.Bri == nil || *ls.Bri != 144 || ls.CT == nil || *ls.CT != 447 {
		t.Errorf("relax light 1 = %+v", ls)
	}

	// A failed detail fetch degrades gracefully: the fallback record stays.
	broken := dump.Scenes["broken-2"]
	if broken.Name != "Broken" || broken.LightStates != nil {
		t.Errorf("broken scene mutated: %+v", broken)
	}
}

func TestNormalize_InjectsBridgeIdentity(t *testing.T) {
	dump := &RawDump{
		Config: RawBridgeInfo{Name: "Config name", BridgeID: "001788FFFE000001"},
		Lights: map[string]RawLight{
			"1": {Name: "Lamp", UniqueID: "aa:bb-01"},
		},
		Sensors: map[string]RawSensor{
			"2": {Name: "Hall", Type: "ZLLPresence", UniqueID: "cc:dd-02-0406"},
		},
	}

	snap := Normalize("Upstairs", "192.168.1.10", dump)
	if snap.Name != "Upstairs" {
		t.Errorf("configured name must win: %q", snap.Name)
	}
	if snap.BridgeID != "001788FFFE000001" {
		t.Errorf("bridge id = %q", snap.BridgeID)
	}
	if l := snap.Lights["1"]; l.BridgeName != "Upstairs" || l.BridgeID != "001788FFFE000001" {
		t.Errorf("light identity = %q/%q", l.BridgeName, l.BridgeID)
	}
	s := snap.Sensors["2"]
	if s.BridgeName != "Upstairs" {
		t.Errorf("sensor bridge name = %q", s.BridgeName)
	}
	if s.Kind != KindPresence {
		t.Errorf("sensor kind = %v", s.Kind)
	}
}

func TestNormalize_FallbackNames(t *testing.T) {
	dump := &RawDump{
		Config: RawBridgeInfo{Name: "Bridge from config"},
		Lights: map[string]RawLight{},
	}

	snap := Normalize("", "192.168.1.10", dump)
	if snap.Name != "Bridge from config" {
		t.Errorf("name = %q, want config fallback", snap.Name)
	}
	if snap.BridgeID != "192.168.1.10" {
		t.Errorf("bridge id = %q, want address fallback", snap.BridgeID)
	}
}

func TestClassifySensor(t *testing.T) {
	cases := map[string]SensorKind{
		"ZLLPresence":        KindPresence,
		"ZLLSwitch":          KindSwitch,
		"ZLLRelativeRotary":  KindRotary,
		"ZLLTemperature":     KindTemperature,
		"ZLLLightLevel":      KindLightLevel,
		"Daylight":           KindDaylight,
		"CLIPGenericStatus":  KindVirtual,
		"CLIPPresence":       KindVirtual,
		"ZGPSwitch":          KindSwitch,
		"SomethingUnheardOf": KindOther,
	}
	for sensorType, want := range cases {
		if got := ClassifySensor(sensorType); got != want {
			t.Errorf("ClassifySensor(%q) = %v, want %v", sensorType, got, want)
		}
	}
}
