// Package config resolves the bike client's settings from environment
// variables, with documented defaults, and validates them at startup.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// GPS reading modes.
const (
	GPSModeAT   = "at"   // polled AT+CGPSSTATUS? / AT+CGPSINF=0 queries
	GPSModeNMEA = "nmea" // module streams NMEA sentences on its own
)

const (
	defaultServerURL = "https://staging.tap2go.co.uk/api/v1"

	// Development identity; real devices provision their own seed.
	defaultSeed      = "f26b85e870d9baefa334b515e014b059a6fd43119065ce9f6156263176372727"
	defaultMasterKey = "deadbeef"
)

// Config holds all bike client settings.
type Config struct {
	// Backend
	ServerURL        string
	ReconnectBackoff time.Duration

	// Identity
	BikeID    int
	Seed      []byte // 32-byte ed25519 seed
	MasterKey []byte // out-of-band registration key

	// GPS module
	GPSSerialPort string
	GPSBaudRate   uint
	GPSMode       string

	// Alerts
	MQTTBroker   string
	MQTTClientID string

	// Geofence
	GeofenceInterval    time.Duration
	GeofenceThresholdKm float64

	// Telemetry
	TelemetryInterval time.Duration

	// Display
	DisplayInterval time.Duration
	LEDRedPin       string
	LEDGreenPin     string
	LEDBluePin      string

	// Diagnostics
	StatusAddr string
}

// Load resolves the configuration from the environment. A missing or
// placeholder SERVER_URL is fatal at startup.
func Load() (*Config, error) {
	cfg := &Config{
		ServerURL:     stringEnv("SERVER_URL", defaultServerURL),
		GPSSerialPort: stringEnv("GPS_SERIAL_PORT", "/dev/ttyS0"),
		GPSMode:       stringEnv("GPS_MODE", GPSModeAT),
		MQTTBroker:    stringEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:  stringEnv("MQTT_CLIENT_ID", "bike-client"),
		LEDRedPin:     stringEnv("LED_RED_PIN", "GPIO13"),
		LEDGreenPin:   stringEnv("LED_GREEN_PIN", "GPIO19"),
		LEDBluePin:    stringEnv("LED_BLUE_PIN", "GPIO26"),
		StatusAddr:    stringEnv("STATUS_ADDR", ":8080"),
	}

	var err error
	if cfg.BikeID, err = intEnv("BIKE_ID", 117); err != nil {
		return nil, err
	}
	if cfg.Seed, err = hexEnv("BIKE_SEED", defaultSeed); err != nil {
		return nil, err
	}
	if cfg.MasterKey, err = hexEnv("MASTER_KEY", defaultMasterKey); err != nil {
		return nil, err
	}

	baud, err := intEnv("GPS_BAUD_RATE", 115200)
	if err != nil {
		return nil, err
	}
	cfg.GPSBaudRate = uint(baud)

	if cfg.GeofenceInterval, err = durationEnv("GEOFENCE_INTERVAL", 300*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeofenceThresholdKm, err = floatEnv("GEOFENCE_THRESHOLD_KM", 5); err != nil {
		return nil, err
	}
	if cfg.TelemetryInterval, err = durationEnv("TELEMETRY_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReconnectBackoff, err = durationEnv("RECONNECT_BACKOFF", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.DisplayInterval, err = durationEnv("DISPLAY_INTERVAL", 10*time.Millisecond); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks that all required fields are usable.
func (c *Config) validate() error {
	if c.ServerURL == "" || c.ServerURL == "EMPTY" {
		return fmt.Errorf("SERVER_URL is required, contact admin")
	}
	if c.BikeID <= 0 {
		return fmt.Errorf("BIKE_ID must be positive, got %d", c.BikeID)
	}
	if len(c.Seed) != 32 {
		return fmt.Errorf("BIKE_SEED must be 32 bytes, got %d", len(c.Seed))
	}
	if len(c.MasterKey) == 0 {
		return fmt.Errorf("MASTER_KEY is required")
	}
	if c.GPSMode != GPSModeAT && c.GPSMode != GPSModeNMEA {
		return fmt.Errorf("GPS_MODE must be %q or %q, got %q", GPSModeAT, GPSModeNMEA, c.GPSMode)
	}
	if c.GPSBaudRate == 0 {
		return fmt.Errorf("GPS_BAUD_RATE is required")
	}
	if c.GeofenceThresholdKm <= 0 {
		return fmt.Errorf("GEOFENCE_THRESHOLD_KM must be positive, got %g", c.GeofenceThresholdKm)
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"GEOFENCE_INTERVAL", c.GeofenceInterval},
		{"TELEMETRY_INTERVAL", c.TelemetryInterval},
		{"RECONNECT_BACKOFF", c.ReconnectBackoff},
		{"DISPLAY_INTERVAL", c.DisplayInterval},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}
	return nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func hexEnv(key, fallback string) ([]byte, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: not a hex string: %w", key, err)
	}
	return b, nil
}
