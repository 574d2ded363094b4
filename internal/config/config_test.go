package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerURL != defaultServerURL {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
	if cfg.BikeID != 117 {
		t.Errorf("BikeID = %d, want 117", cfg.BikeID)
	}
	if len(cfg.Seed) != 32 {
		t.Errorf("Seed length = %d, want 32", len(cfg.Seed))
	}
	if cfg.GPSMode != GPSModeAT {
		t.Errorf("GPSMode = %q, want %q", cfg.GPSMode, GPSModeAT)
	}
	if cfg.GeofenceInterval != 300*time.Second {
		t.Errorf("GeofenceInterval = %s, want 300s", cfg.GeofenceInterval)
	}
	if cfg.GeofenceThresholdKm != 5 {
		t.Errorf("GeofenceThresholdKm = %g, want 5", cfg.GeofenceThresholdKm)
	}
	if cfg.ReconnectBackoff != 2*time.Second {
		t.Errorf("ReconnectBackoff = %s, want 2s", cfg.ReconnectBackoff)
	}
}

func TestLoadPlaceholderURLFatal(t *testing.T) {
	t.Setenv("SERVER_URL", "EMPTY")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SERVER_URL") {
		t.Fatalf("want SERVER_URL error, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_URL", "http://localhost:9000/api/v1")
	t.Setenv("BIKE_ID", "42")
	t.Setenv("GPS_MODE", "nmea")
	t.Setenv("GEOFENCE_THRESHOLD_KM", "0.5")
	t.Setenv("RECONNECT_BACKOFF", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://localhost:9000/api/v1" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.BikeID != 42 {
		t.Errorf("BikeID = %d, want 42", cfg.BikeID)
	}
	if cfg.GPSMode != GPSModeNMEA {
		t.Errorf("GPSMode = %q, want nmea", cfg.GPSMode)
	}
	if cfg.GeofenceThresholdKm != 0.5 {
		t.Errorf("GeofenceThresholdKm = %g, want 0.5", cfg.GeofenceThresholdKm)
	}
	if cfg.ReconnectBackoff != 250*time.Millisecond {
		t.Errorf("ReconnectBackoff = %s, want 250ms", cfg.ReconnectBackoff)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad bike id", "BIKE_ID", "not-a-number"},
		{"negative bike id", "BIKE_ID", "-1"},
		{"short seed", "BIKE_SEED", "abcd"},
		{"non-hex seed", "BIKE_SEED", "zzzz"},
		{"unknown gps mode", "GPS_MODE", "carrier-pigeon"},
		{"bad interval", "GEOFENCE_INTERVAL", "soon"},
		{"zero threshold", "GEOFENCE_THRESHOLD_KM", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}
