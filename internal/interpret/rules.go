package interpret

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lvladikov/hue-reporter/internal/hue"
)

// RuleDescription is the human-readable rendering of one automation rule.
type RuleDescription struct {
	Conditions []string
	Actions    []string
}

var operatorWords = map[string]string{
	"eq":     "is equal to",
	"gt":     "is greater than",
	"lt":     "is less than",
	"dx":     "changes",
	"ddx":    "changes for a duration of",
	"stable": "is stable for a duration of",
	"in":     "is in the range",
	"not in": "is not in the range",
}

// Canned phrases for the bridge-internal dynamic-scene virtual sensors.
// Status 3 of cycleState is undocumented upstream and kept as a labeled
// reserved state.
var cyclingConditionPhrases = map[int]string{
	0: "the dynamic scene is inactive",
	1: "the dynamic scene is active",
}

var cyclingActionPhrases = map[int]string{
	0: "Deactivate the dynamic scene",
	1: "Activate the dynamic scene",
}

var cycleStateConditionPhrases = map[int]string{
	0: "the dynamic scene cycle is stopped",
	1: "the dynamic scene cycle is starting",
	2: "the dynamic scene cycle speed is updating",
	3: "the dynamic scene cycle is in a reserved state (3)",
	4: "the dynamic scene shows a fixed color",
	5: "the dynamic scene cycles random colors",
}

var cycleStateActionPhrases = map[int]string{
	0: "Stop the dynamic scene cycle",
	1: "Start the dynamic scene cycle",
	2: "Update the dynamic scene cycle speed",
	3: "Set the dynamic scene cycle to reserved state (3)",
	4: "Show a fixed color in the dynamic scene",
	5: "Cycle random colors in the dynamic scene",
}

// addressRef is a parsed resource address path such as
// "/sensors/12/state/buttonevent" or "/groups/1/action".
type addressRef struct {
	Resource string
	ID       string
	Path     []string
}

func parseAddress(address string) addressRef {
	parts := strings.Split(strings.Trim(address, "/"), "/")
	// Schedule command addresses embed the credential prefix
	// ("/api/<token>/groups/1/action"); rule addresses do not.
	if len(parts) > 2 && parts[0] == "api" {
		parts = parts[2:]
	}
	ref := addressRef{}
	if len(parts) > 0 {
		ref.Resource = parts[0]
	}
	if len(parts) > 1 {
		ref.ID = parts[1]
	}
	if len(parts) > 2 {
		ref.Path = parts[2:]
	}
	return ref
}

// attribute returns the final path segment, the attribute a condition
// observes.
func (r addressRef) attribute() string {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[len(r.Path)-1]
}

// resolveEntity maps an address to the referenced entity's display name.
// The resource type set is closed; unknown types and missing ids resolve
// to an "unnamed" fallback rather than failing.
func resolveEntity(ref addressRef, snap *hue.Snapshot) string {
	if snap != nil {
		switch ref.Resource {
		case "lights":
			if l, ok := snap.Lights[ref.ID]; ok {
				return l.Name
			}
		case "groups":
			if g, ok := snap.Groups[ref.ID]; ok {
				return g.Name
			}
			// Group 0 is the bridge's implicit whole-house group and
			// never appears in the dump.
			if ref.ID == "0" {
				return "all lights"
			}
		case "scenes":
			if s, ok := snap.Scenes[ref.ID]; ok {
				return s.Name
			}
		case "sensors":
			if s, ok := snap.Sensors[ref.ID]; ok {
				return s.Name
			}
		case "schedules":
			if s, ok := snap.Schedules[ref.ID]; ok {
				return s.Name
			}
		}
	}
	return fmt.Sprintf("unnamed %s %s", strings.TrimSuffix(ref.Resource, "s"), ref.ID)
}

func lookupSensor(ref addressRef, snap *hue.Snapshot) *hue.Sensor {
	if snap == nil || ref.Resource != "sensors" {
		return nil
	}
	return snap.Sensors[ref.ID]
}

// dynamicScenePhrase returns the canned phrase for a virtual cycling
// sensor status value, or "" when this is not such a sensor/value.
func dynamicScenePhrase(sensor *hue.Sensor, value int, action bool) string {
	if sensor == nil {
		return ""
	}
	var table map[int]string
	switch sensor.Name {
	case "cycling":
		table = cyclingConditionPhrases
		if action {
			table = cyclingActionPhrases
		}
	case "cycleState":
		table = cycleStateConditionPhrases
		if action {
			table = cycleStateActionPhrases
		}
	default:
		return ""
	}
	return table[value]
}

// DescribeCondition renders one rule condition as a sentence.
func DescribeCondition(cond hue.Condition, snap *hue.Snapshot) string {
	ref := parseAddress(cond.Address)
	entity := resolveEntity(ref, snap)
	attr := ref.attribute()

	// Button presses decode through the fixed code table.
	if attr == "buttonevent" && cond.Operator == "eq" {
		if code, err := strconv.Atoi(cond.Value); err == nil {
			return fmt.Sprintf("If %s: %s", entity, DescribeButtonEvent(code))
		}
	}

	// Dynamic-scene virtual sensors get their canned lifecycle phrases.
	if attr == "status" && cond.Operator == "eq" {
		if value, err := strconv.Atoi(cond.Value); err == nil {
			if phrase := dynamicScenePhrase(lookupSensor(ref, snap), value, false); phrase != "" {
				return "If " + phrase
			}
		}
	}

	words, ok := operatorWords[cond.Operator]
	if !ok {
		words = cond.Operator
	}

	// A pure change trigger has no meaningful value clause.
	if cond.Operator == "dx" {
		return fmt.Sprintf("If %s's %s changes", entity, attr)
	}

	return fmt.Sprintf("If %s's %s %s %s", entity, attr, words, cond.Value)
}

// DescribeAction renders one rule action as one sentence per body key.
// Keys are visited in sorted order so the output is deterministic.
func DescribeAction(action hue.Action, snap *hue.Snapshot) []string {
	ref := parseAddress(action.Address)
	entity := resolveEntity(ref, snap)
	sensor := lookupSensor(ref, snap)

	keys := make([]string, 0, len(action.Body))
	for k := range action.Body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sentences := make([]string, 0, len(keys))
	for _, key := range keys {
		sentences = append(sentences, describeBodyKey(ref, entity, sensor, key, action.Body[key], snap))
	}
	return sentences
}

func describeBodyKey(ref addressRef, entity string, sensor *hue.Sensor, key string, value any, snap *hue.Snapshot) string {
	// Schedule targets have their own vocabulary.
	if ref.Resource == "schedules" {
		switch key {
		case "status":
			if s, ok := value.(string); ok {
				if s == "enabled" {
					return fmt.Sprintf("Enable schedule %s", entity)
				}
				return fmt.Sprintf("Disable schedule %s", entity)
			}
		case "localtime":
			if s, ok := value.(string); ok {
				return fmt.Sprintf("Schedule %s: %s", entity, DecodeTimeSpec(s))
			}
		}
	}

	// Dynamic-scene virtual sensors again.
	if key == "status" {
		if f, ok := value.(float64); ok {
			if phrase := dynamicScenePhrase(sensor, int(f), true); phrase != "" {
				return phrase
			}
		}
	}

	switch key {
	case "on":
		if on, ok := value.(bool); ok {
			if on {
				return "Turn on " + entity
			}
			return "Turn off " + entity
		}
	case "bri":
		if f, ok := value.(float64); ok {
			return fmt.Sprintf("Set %s's brightness to %d%%", entity, briPercent(f))
		}
	case "ct":
		return fmt.Sprintf("Set %s's color temperature to %s mired", entity, formatValue(value))
	case "transitiontime":
		if f, ok := value.(float64); ok {
			return fmt.Sprintf("Set %s's transition time to %ss", entity, formatValue(f/10))
		}
	case "scene":
		if id, ok := value.(string); ok {
			name := id
			if snap != nil {
				if sc, ok := snap.Scenes[id]; ok {
					name = sc.Name
				}
			}
			return "Activate scene " + name
		}
	case "hue", "sat", "xy", "alert", "effect":
		return fmt.Sprintf("Set %s's %s to %s", entity, key, formatValue(value))
	}

	return fmt.Sprintf("Set %s's %s to %s", entity, key, formatValue(value))
}

// briPercent converts the 0-254 brightness scale to a whole percentage.
func briPercent(value float64) int {
	return int(math.Round(value / 254 * 100))
}

// formatValue renders a decoded JSON value compactly: integral floats
// print without a fraction, slices as bracketed lists.
func formatValue(value any) string {
	switch v := value.(type) {
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// DescribeRule decodes a rule's conditions and actions into sentences,
// preserving their bridge-given order. The same rule and snapshot always
// produce the same text.
func DescribeRule(rule *hue.Rule, snap *hue.Snapshot) RuleDescription {
	desc := RuleDescription{
		Conditions: make([]string, 0, len(rule.Conditions)),
		Actions:    make([]string, 0, len(rule.Actions)),
	}
	for _, cond := range rule.Conditions {
		desc.Conditions = append(desc.Conditions, DescribeCondition(cond, snap))
	}
	for _, action := range rule.Actions {
		desc.Actions = append(desc.Actions, DescribeAction(action, snap)...)
	}
	return desc
}
