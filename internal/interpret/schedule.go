package interpret

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ScheduleSpec is a parsed schedule time specification. Parsing and
// rendering are split so the decoder is testable independent of the
// final phrase wording.
type ScheduleSpec interface {
	Describe() string
}

// AbsoluteSpec is a one-shot ISO timestamp.
type AbsoluteSpec struct {
	Timestamp string
}

// Describe renders the one-shot sentence.
func (a AbsoluteSpec) Describe() string {
	return "Set to run at " + a.Timestamp
}

// DurationSpec is a timer ("PT..." form).
type DurationSpec struct {
	Hours   int
	Minutes int
	Seconds int
}

// Describe renders the timer sentence, omitting absent units.
func (d DurationSpec) Describe() string {
	var parts []string
	if d.Hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hour(s)", d.Hours))
	}
	if d.Minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minute(s)", d.Minutes))
	}
	if d.Seconds > 0 {
		parts = append(parts, fmt.Sprintf("%d second(s)", d.Seconds))
	}
	if len(parts) == 0 {
		parts = append(parts, "0 second(s)")
	}
	return "Set a timer to run in " + strings.Join(parts, ", ")
}

// RecurringSpec is a weekly recurring time ("W<mask>/T<time>" form). Mask
// bits 6 down to 0 represent Monday through Sunday.
type RecurringSpec struct {
	Mask int
	Time string
}

var dayAbbrevs = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Days returns the day abbreviations whose mask bit is set, Monday first.
func (r RecurringSpec) Days() []string {
	var days []string
	for k := 6; k >= 0; k-- {
		if r.Mask/(1<<k)%2 == 1 {
			days = append(days, dayAbbrevs[6-k])
		}
	}
	return days
}

// Describe renders the recurring sentence; a full mask reads "every day".
func (r RecurringSpec) Describe() string {
	days := "every day"
	if r.Mask != 127 {
		days = strings.Join(r.Days(), ", ")
	}
	return fmt.Sprintf("Set to run at %s on %s", r.Time, days)
}

var (
	// Unit durations like "PT1H30M10S".
	unitDurationPattern = regexp.MustCompile(`^P?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
	// Bridge clock durations like "PT00:00:10".
	clockDurationPattern = regexp.MustCompile(`^P?T?(\d{1,2}):(\d{2}):(\d{2})$`)
	// Recurring form like "W127/T18:00:00".
	recurringPattern = regexp.MustCompile(`W(\d{1,3})/T(\S+)`)
)

// ParseScheduleSpec parses a raw time spec string into its structured
// form. The three forms are mutually exclusive and tested in order:
// duration (leading "P"), recurring (contains "W"), absolute otherwise.
// Unparseable inputs degrade to an absolute spec of the raw string.
func ParseScheduleSpec(raw string) ScheduleSpec {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "P") {
		if m := clockDurationPattern.FindStringSubmatch(raw); m != nil {
			h, _ := strconv.Atoi(m[1])
			min, _ := strconv.Atoi(m[2])
			s, _ := strconv.Atoi(m[3])
			return DurationSpec{Hours: h, Minutes: min, Seconds: s}
		}
		if m := unitDurationPattern.FindStringSubmatch(raw); m != nil {
			h, _ := strconv.Atoi(m[1])
			min, _ := strconv.Atoi(m[2])
			s, _ := strconv.Atoi(m[3])
			return DurationSpec{Hours: h, Minutes: min, Seconds: s}
		}
		return AbsoluteSpec{Timestamp: raw}
	}

	if strings.Contains(raw, "W") {
		if m := recurringPattern.FindStringSubmatch(raw); m != nil {
			mask, _ := strconv.Atoi(m[1])
			if mask >= 0 && mask <= 127 {
				return RecurringSpec{Mask: mask, Time: m[2]}
			}
		}
	}

	return AbsoluteSpec{Timestamp: raw}
}

// DecodeTimeSpec parses and renders a schedule time spec in one step.
func DecodeTimeSpec(raw string) string {
	return ParseScheduleSpec(raw).Describe()
}
