package display

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const pwmFrequency = 200 * physic.Hertz

// LED drives the RGB status LED through three PWM-capable GPIO pins.
type LED struct {
	red, green, blue gpio.PinIO
}

// OpenLED looks the three pins up by name, e.g. "GPIO13".
func OpenLED(redPin, greenPin, bluePin string) (*LED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	l := &LED{}
	for _, p := range []struct {
		name string
		pin  *gpio.PinIO
	}{
		{redPin, &l.red},
		{greenPin, &l.green},
		{bluePin, &l.blue},
	} {
		found := gpioreg.ByName(p.name)
		if found == nil {
			return nil, fmt.Errorf("no such pin: %s", p.name)
		}
		*p.pin = found
	}
	return l, nil
}

// Set applies an RGB triple with each channel in 0..1.
func (l *LED) Set(r, g, b float64) error {
	for _, c := range []struct {
		pin  gpio.PinIO
		duty float64
	}{
		{l.red, r},
		{l.green, g},
		{l.blue, b},
	} {
		if err := c.pin.PWM(gpio.Duty(c.duty*float64(gpio.DutyMax)), pwmFrequency); err != nil {
			return err
		}
	}
	return nil
}

// Close turns the LED off and releases the pins.
func (l *LED) Close() error {
	var first error
	for _, pin := range []gpio.PinIO{l.red, l.green, l.blue} {
		if err := pin.Halt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
