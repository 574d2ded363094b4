// Package display produces the bike's visual state and drives the status
// hardware. The core loops only compute a State; the LED and screen
// drivers decide how to render it.
package display

import "math"

// State is the discrete visual state handed to the drivers.
type State int

const (
	// Searching means no usable GPS fix yet; rendered as a cycling hue.
	Searching State = iota
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case Locked:
		return "LOCKED"
	case Unlocked:
		return "UNLOCKED"
	default:
		return "SEARCHING"
	}
}

// Colour returns the RGB triple (0..1) for the state. step animates the
// Searching hue cycle within 0..maxStep; Locked and Unlocked are solid.
func Colour(s State, step, maxStep int) (r, g, b float64) {
	switch s {
	case Locked:
		return 1, 0, 0
	case Unlocked:
		return 0, 1, 0
	default:
		return cycleHue(step, maxStep)
	}
}

// cycleHue sets each channel from a sine wave offset by a third of the
// cycle, giving a smooth RGB sweep as step advances.
func cycleHue(step, maxStep int) (r, g, b float64) {
	channel := func(offset int) float64 {
		return (math.Sin(float64(step+offset*maxStep/3)/float64(maxStep)*2*math.Pi) + 1) / 2
	}
	return channel(0), channel(2), channel(1)
}
