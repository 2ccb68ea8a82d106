// Package interpret decodes the bridge's opaque rule, schedule and event
// records into human-readable descriptions. All tables here are the fixed
// upstream code tables, embedded verbatim.
package interpret

import "fmt"

// Dimmer-style switches report buttonevent codes of the form
// <button><action> where the thousands digit is the button and the last
// digit the action phase.
var buttonNames = map[int]string{
	1: "On/Smart/Upper",
	2: "Dim Up/Lower",
	3: "Dim Down",
	4: "Off",
}

var buttonActions = map[int]string{
	0: "initially pressed",
	1: "held down",
	2: "short-released",
	3: "long-released",
}

// Tap-style 4-button switches report fixed codes instead.
var tapButtons = map[int]int{
	34: 1,
	16: 2,
	17: 3,
	18: 4,
}

// DescribeButtonEvent decodes a buttonevent state code into its phrase.
// Codes outside the defined tables yield a generic fallback, never an
// error.
func DescribeButtonEvent(code int) string {
	if button, ok := tapButtons[code]; ok {
		return fmt.Sprintf("Button %d pressed", button)
	}

	if code >= 1000 && code <= 4999 {
		name, okName := buttonNames[code/1000]
		action, okAction := buttonActions[code%1000]
		if okName && okAction {
			return fmt.Sprintf("%s button %s", name, action)
		}
	}

	return fmt.Sprintf("unknown event code %d", code)
}
