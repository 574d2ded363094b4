package display

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// Info is what the screen renders each update.
type Info struct {
	State      State
	Latitude   float64
	Longitude  float64
	HavePos    bool
	Satellites int
	Battery    int
}

// Screen drives the SSD1306 status display over I2C.
type Screen struct {
	dev *ssd1306.Dev
	bus i2c.BusCloser
}

// OpenScreen initializes periph and the display.
func OpenScreen() (*Screen, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	return &Screen{dev: dev, bus: bus}, nil
}

// Render draws the current status.
func (s *Screen) Render(info Info) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	for i := range img.Pix {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(info.State.String()))

	if info.HavePos {
		lat, latDir := info.Latitude, "N"
		if lat < 0 {
			latDir = "S"
			lat = -lat
		}
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("%.4f%s", lat, latDir)))

		lon, lonDir := info.Longitude, "E"
		if lon < 0 {
			lonDir = "W"
			lon = -lon
		}
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("%.4f%s", lon, lonDir)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("sats:%d bat:%d%%", info.Satellites, info.Battery)))
	} else {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Looking for"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("sats..."))
		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("bat:%d%%", info.Battery)))
	}

	return s.dev.Draw(s.dev.Bounds(), img, image.Point{})
}

// Close releases the I2C bus.
func (s *Screen) Close() error {
	return s.bus.Close()
}
