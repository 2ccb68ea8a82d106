// Package device canonicalizes logical sensor resources into physical
// device identities. A single multi-function device (e.g. a motion sensor
// with temperature and light-level endpoints) is exposed by the bridge as
// several sensor records whose unique ids share a prefix and differ only
// in a trailing endpoint suffix.
package device

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/lvladikov/hue-reporter/internal/hue"
)

// endpointSuffix matches the trailing "-XX-YYYY" endpoint/cluster part of
// a sensor unique id, e.g. "00:17:88:01:02:03:04:05-02-0406".
var endpointSuffix = regexp.MustCompile(`-[0-9A-Fa-f]{2}-[0-9A-Fa-f]{4}$`)

// BaseID strips the endpoint suffix from a sensor unique id, yielding the
// physical-device key. Ids without the suffix are returned unchanged.
func BaseID(uniqueID string) string {
	return endpointSuffix.ReplaceAllString(uniqueID, "")
}

// PhysicalDevice is one hardware unit with all its logical endpoints.
type PhysicalDevice struct {
	BaseID     string
	BridgeName string
	Name       string
	Primary    *hue.Sensor
	Endpoints  []*hue.Sensor
	Battery    *int
	Reachable  bool
}

// groupKey returns the grouping key for a sensor. Virtual (CLIP) sensors
// and sensors without a hardware unique id never merge with anything.
func groupKey(s *hue.Sensor) string {
	if s.Kind == hue.KindVirtual || s.UniqueID == "" {
		return s.BridgeID + "/virtual/" + s.ID
	}
	return s.BridgeID + "/" + BaseID(s.UniqueID)
}

// localIDLess orders bridge-local ids numerically when both parse as
// integers, lexicographically otherwise. Used as the stable tie-break
// when several endpoints of one device are primary-typed.
func localIDLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// ResolvePhysical groups logical sensors into physical devices and picks
// a canonical name for each. The result is independent of input order:
// endpoints are sorted by local id and devices by name, then base id.
// Resolving the same input twice yields identical groupings.
func ResolvePhysical(sensors []*hue.Sensor) []*PhysicalDevice {
	groups := make(map[string][]*hue.Sensor)
	for _, s := range sensors {
		key := groupKey(s)
		groups[key] = append(groups[key], s)
	}

	devices := make([]*PhysicalDevice, 0, len(groups))
	for key, endpoints := range groups {
		sort.Slice(endpoints, func(i, j int) bool {
			return localIDLess(endpoints[i].ID, endpoints[j].ID)
		})

		d := &PhysicalDevice{
			BaseID:     key,
			BridgeName: endpoints[0].BridgeName,
			Endpoints:  endpoints,
			Reachable:  true,
		}

		for _, s := range endpoints {
			if d.Primary == nil && s.Primary() {
				d.Primary = s
			}
			if s.Config.Reachable != nil && !*s.Config.Reachable {
				d.Reachable = false
			}
		}

		d.Name = deviceName(d)
		d.Battery = deviceBattery(d)
		devices = append(devices, d)
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Name != devices[j].Name {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].BaseID < devices[j].BaseID
	})

	return devices
}

// deviceName picks the canonical display name: the primary endpoint's
// user-assigned name wins; devices without one fall back to the first
// endpoint's own name, then its product name, then a synthetic label.
func deviceName(d *PhysicalDevice) string {
	if d.Primary != nil && d.Primary.Name != "" {
		return d.Primary.Name
	}
	first := d.Endpoints[0]
	if first.Name != "" {
		return first.Name
	}
	if first.ProductName != "" {
		return first.ProductName
	}
	return "Sensor " + first.ID
}

// deviceBattery reads the battery level, preferring the primary endpoint.
func deviceBattery(d *PhysicalDevice) *int {
	if d.Primary != nil && d.Primary.Config.Battery != nil {
		return d.Primary.Config.Battery
	}
	for _, s := range d.Endpoints {
		if s.Config.Battery != nil {
			return s.Config.Battery
		}
	}
	return nil
}

// CanonicalName resolves the display name for one logical sensor: the
// name its physical device's primary endpoint carries, with the same
// fallback chain ResolvePhysical uses.
func CanonicalName(sensors []*hue.Sensor, targetUniqueID string) string {
	var target *hue.Sensor
	for _, s := range sensors {
		if s.UniqueID == targetUniqueID {
			if target == nil || localIDLess(s.ID, target.ID) {
				target = s
			}
		}
	}
	if target == nil {
		return ""
	}

	key := groupKey(target)
	var primary *hue.Sensor
	for _, s := range sensors {
		if !s.Primary() || groupKey(s) != key {
			continue
		}
		if primary == nil || localIDLess(s.ID, primary.ID) {
			primary = s
		}
	}
	if primary != nil && primary.Name != "" {
		return primary.Name
	}

	if target.Name != "" {
		return target.Name
	}
	if target.ProductName != "" {
		return target.ProductName
	}
	return "Sensor " + target.ID
}
