// Package report assembles the one-shot report structures a presentation
// layer renders. The core emits data only; rendering, files and console
// output live outside.
package report

import (
	"sort"
	"strconv"
	"time"

	"github.com/lvladikov/hue-reporter/internal/aggregate"
	"github.com/lvladikov/hue-reporter/internal/device"
	"github.com/lvladikov/hue-reporter/internal/hue"
	"github.com/lvladikov/hue-reporter/internal/interpret"
)

// BridgeSummary is the per-bridge header row.
type BridgeSummary struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	SWVersion string `json:"sw_version"`
	Lights    int    `json:"lights"`
	Groups    int    `json:"groups"`
	Scenes    int    `json:"scenes"`
	Sensors   int    `json:"sensors"`
	Schedules int    `json:"schedules"`
	Rules     int    `json:"rules"`
}

// DeviceRow is one physical sensor device, deduplicated across its
// logical endpoints.
type DeviceRow struct {
	Bridge      string   `json:"bridge"`
	Name        string   `json:"name"`
	BaseID      string   `json:"base_id"`
	Endpoints   []string `json:"endpoints"`
	Battery     *int     `json:"battery,omitempty"`
	LowBattery  bool     `json:"low_battery"`
	Reachable   bool     `json:"reachable"`
	Temperature *float64 `json:"temperature,omitempty"`
	LightLevel  *int     `json:"light_level,omitempty"`
	Presence    *bool    `json:"presence,omitempty"`
}

// LightRow is one light with its state flattened for display.
type LightRow struct {
	Bridge    string `json:"bridge"`
	Name      string `json:"name"`
	UniqueID  string `json:"unique_id"`
	On        bool   `json:"on"`
	Reachable bool   `json:"reachable"`
	Bri       *int   `json:"bri,omitempty"`
	CT        *int   `json:"ct,omitempty"`
	ColorMode string `json:"color_mode,omitempty"`
}

// GroupView summarizes one group.
type GroupView struct {
	Bridge string   `json:"bridge"`
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Class  string   `json:"class,omitempty"`
	Lights []string `json:"lights"`
	AnyOn  bool     `json:"any_on"`
	AllOn  bool     `json:"all_on"`
}

// SceneView summarizes one scene, including whether per-light detail was
// retrieved.
type SceneView struct {
	Bridge     string `json:"bridge"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	GroupID    string `json:"group_id,omitempty"`
	LightCount int    `json:"light_count"`
	HasDetail  bool   `json:"has_detail"`
}

// RuleView is one interpreted automation rule.
type RuleView struct {
	Bridge     string   `json:"bridge"`
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Conditions []string `json:"conditions"`
	Actions    []string `json:"actions"`
}

// ScheduleView is one interpreted schedule.
type ScheduleView struct {
	Bridge      string   `json:"bridge"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	TimeSpec    string   `json:"time_spec"`
	Description string   `json:"description"`
	Command     []string `json:"command"`
}

// Report is the complete one-shot output structure.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Bridges     []BridgeSummary `json:"bridges"`
	Devices     []DeviceRow     `json:"devices"`
	Lights      []LightRow      `json:"lights"`
	Groups      []GroupView     `json:"groups"`
	Scenes      []SceneView     `json:"scenes"`
	Rules       []RuleView      `json:"rules"`
	Schedules   []ScheduleView  `json:"schedules"`
	Warnings    []string        `json:"warnings,omitempty"`
}

// Build assembles a report from aggregated snapshots. Snapshots arrive
// ordered by bridge name; within a bridge, rows are ordered by local id
// so the output is deterministic.
func Build(snapshots []*hue.Snapshot, warnings []aggregate.Warning, batteryThreshold int) *Report {
	r := &Report{GeneratedAt: time.Now()}

	for _, w := range warnings {
		r.Warnings = append(r.Warnings, w.String())
	}

	for _, snap := range snapshots {
		r.Bridges = append(r.Bridges, BridgeSummary{
			Name:      snap.Name,
			Address:   snap.Address,
			SWVersion: snap.SWVersion,
			Lights:    len(snap.Lights),
			Groups:    len(snap.Groups),
			Scenes:    len(snap.Scenes),
			Sensors:   len(snap.Sensors),
			Schedules: len(snap.Schedules),
			Rules:     len(snap.Rules),
		})

		r.Devices = append(r.Devices, deviceRows(snap, batteryThreshold)...)
		r.Lights = append(r.Lights, lightRows(snap)...)
		r.Groups = append(r.Groups, groupViews(snap)...)
		r.Scenes = append(r.Scenes, sceneViews(snap)...)
		r.Rules = append(r.Rules, ruleViews(snap)...)
		r.Schedules = append(r.Schedules, scheduleViews(snap)...)
	}

	return r
}

func deviceRows(snap *hue.Snapshot, threshold int) []DeviceRow {
	sensors := make([]*hue.Sensor, 0, len(snap.Sensors))
	for _, s := range snap.Sensors {
		sensors = append(sensors, s)
	}

	devices := device.ResolvePhysical(sensors)
	rows := make([]DeviceRow, 0, len(devices))
	for _, d := range devices {
		row := DeviceRow{
			Bridge:    snap.Name,
			Name:      d.Name,
			BaseID:    d.BaseID,
			Battery:   d.Battery,
			Reachable: d.Reachable,
		}
		if d.Battery != nil && *d.Battery <= threshold {
			row.LowBattery = true
		}
		for _, s := range d.Endpoints {
			row.Endpoints = append(row.Endpoints, s.Type)

			// Attribute values come from the endpoint that owns them,
			// not from the representative record.
			switch s.Kind {
			case hue.KindTemperature:
				if v, ok := s.State["temperature"].(float64); ok {
					celsius := v / 100
					row.Temperature = &celsius
				}
			case hue.KindLightLevel:
				if v, ok := s.State["lightlevel"].(float64); ok {
					level := int(v)
					row.LightLevel = &level
				}
			case hue.KindPresence:
				if v, ok := s.State["presence"].(bool); ok {
					presence := v
					row.Presence = &presence
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func lightRows(snap *hue.Snapshot) []LightRow {
	rows := make([]LightRow, 0, len(snap.Lights))
	for _, id := range sortedIDs(snap.Lights) {
		l := snap.Lights[id]
		rows = append(rows, LightRow{
			Bridge:    snap.Name,
			Name:      l.Name,
			UniqueID:  l.UniqueID,
			On:        l.State.On,
			Reachable: l.State.Reachable,
			Bri:       l.State.Bri,
			CT:        l.State.CT,
			ColorMode: l.State.ColorMode,
		})
	}
	return rows
}

func groupViews(snap *hue.Snapshot) []GroupView {
	views := make([]GroupView, 0, len(snap.Groups))
	for _, id := range sortedIDs(snap.Groups) {
		g := snap.Groups[id]
		views = append(views, GroupView{
			Bridge: snap.Name,
			ID:     id,
			Name:   g.Name,
			Type:   g.Type,
			Class:  g.Class,
			Lights: g.Lights,
			AnyOn:  g.AnyOn,
			AllOn:  g.AllOn,
		})
	}
	return views
}

func sceneViews(snap *hue.Snapshot) []SceneView {
	views := make([]SceneView, 0, len(snap.Scenes))
	for _, id := range sortedIDs(snap.Scenes) {
		s := snap.Scenes[id]
		views = append(views, SceneView{
			Bridge:     snap.Name,
			ID:         id,
			Name:       s.Name,
			Type:       s.Type,
			GroupID:    s.GroupID,
			LightCount: len(s.Lights),
			HasDetail:  s.PerLightOverride != nil,
		})
	}
	return views
}

func ruleViews(snap *hue.Snapshot) []RuleView {
	views := make([]RuleView, 0, len(snap.Rules))
	for _, id := range sortedIDs(snap.Rules) {
		rule := snap.Rules[id]
		desc := interpret.DescribeRule(rule, snap)
		views = append(views, RuleView{
			Bridge:     snap.Name,
			ID:         id,
			Name:       rule.Name,
			Status:     rule.Status,
			Conditions: desc.Conditions,
			Actions:    desc.Actions,
		})
	}
	return views
}

func scheduleViews(snap *hue.Snapshot) []ScheduleView {
	views := make([]ScheduleView, 0, len(snap.Schedules))
	for _, id := range sortedIDs(snap.Schedules) {
		s := snap.Schedules[id]
		command := interpret.DescribeAction(hue.Action{
			Address: s.Command.Address,
			Method:  s.Command.Method,
			Body:    s.Command.Body,
		}, snap)
		views = append(views, ScheduleView{
			Bridge:      snap.Name,
			ID:          id,
			Name:        s.Name,
			Status:      s.Status,
			TimeSpec:    s.TimeSpec,
			Description: interpret.DecodeTimeSpec(s.TimeSpec),
			Command:     command,
		})
	}
	return views
}

// sortedIDs orders bridge-local ids numerically when possible so "10"
// sorts after "9".
func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}
