package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/bike_client/internal/bike"
	"github.com/relabs-tech/bike_client/internal/display"
)

const hueSteps = 100

// RunDisplay derives the discrete visual state each step and pushes it to
// the status hardware. Either driver may be nil when the hardware is
// absent; the client still runs headless.
func RunDisplay(ctx context.Context, b *bike.Bike, screen *display.Screen, led *display.LED, hasFix func() bool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	step := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		state := DisplayState(b, hasFix())
		if state == display.Searching {
			step = (step + 1) % hueSteps
		}

		if led != nil {
			r, g, bl := display.Colour(state, step, hueSteps)
			if err := led.Set(r, g, bl); err != nil {
				log.Printf("display: led error: %v", err)
			}
		}
		if screen != nil {
			reading, havePos := b.LastReading()
			info := display.Info{
				State:   state,
				HavePos: havePos,
				Battery: b.Battery(),
			}
			if havePos {
				info.Latitude = reading.Latitude
				info.Longitude = reading.Longitude
				info.Satellites = reading.Satellites
			}
			if err := screen.Render(info); err != nil {
				log.Printf("display: render error: %v", err)
			}
		}
	}
}

// DisplayState maps the bike and fix availability onto the visual state:
// no fix means Searching regardless of the lock flag.
func DisplayState(b *bike.Bike, hasFix bool) display.State {
	if !hasFix {
		return display.Searching
	}
	if b.Locked() {
		return display.Locked
	}
	return display.Unlocked
}
