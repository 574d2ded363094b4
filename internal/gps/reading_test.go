package gps

import (
	"errors"
	"math"
	"testing"
	"time"
)

const testLine = "+CGPSINF: 0,11404.2054,2237.7514,187.2,20240815123045.000,30,8,10.0,45.0"

func TestParseReading(t *testing.T) {
	r, err := ParseReading(testLine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	approx := func(name string, got, want float64) {
		t.Helper()
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("%s = %f, want %f", name, got, want)
		}
	}
	approx("Longitude", r.Longitude, 114.07009)
	approx("Latitude", r.Latitude, 22.62919)
	approx("Altitude", r.Altitude, 187.2)
	approx("Speed", r.Speed, 5.144447) // 10 knots
	approx("Course", r.Course, 45)

	if r.Satellites != 8 {
		t.Errorf("Satellites = %d, want 8", r.Satellites)
	}
	want := time.Date(2024, 8, 15, 12, 30, 45, 0, time.UTC)
	if !r.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", r.Time, want)
	}
	if r.Heading() != "NE" {
		t.Errorf("Heading() = %q, want NE", r.Heading())
	}
}

func TestParseReadingMalformed(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantField string
	}{
		{"empty", "", "response"},
		{"no tuple", "+CGPSINF:", "response"},
		{"short tuple", "+CGPSINF: 0,11404.2054,2237.7514", "response"},
		{"bad longitude", "+CGPSINF: 0,abc,2237.7514,187.2,20240815123045.000,30,8,10.0,45.0", "longitude"},
		{"bad latitude", "+CGPSINF: 0,11404.2054,22x7.7514,187.2,20240815123045.000,30,8,10.0,45.0", "latitude"},
		{"bad altitude", "+CGPSINF: 0,11404.2054,2237.7514,high,20240815123045.000,30,8,10.0,45.0", "altitude"},
		{"bad time", "+CGPSINF: 0,11404.2054,2237.7514,187.2,2024-08-15,30,8,10.0,45.0", "utc_time"},
		{"bad satellites", "+CGPSINF: 0,11404.2054,2237.7514,187.2,20240815123045.000,30,many,10.0,45.0", "satellites"},
		{"bad speed", "+CGPSINF: 0,11404.2054,2237.7514,187.2,20240815123045.000,30,8,fast,45.0", "speed"},
		{"bad course", "+CGPSINF: 0,11404.2054,2237.7514,187.2,20240815123045.000,30,8,10.0,north", "course"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReading(tt.line)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("want *ParseError, got %v", err)
			}
			if parseErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", parseErr.Field, tt.wantField)
			}
		})
	}
}

func TestParseDegreesMinutes(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		degDigits int
		want      float64
		wantErr   bool
	}{
		{"latitude", "5213.2354", 2, 52.22059, false},
		{"negative latitude", "-5213.2354", 2, -52.22059, false},
		{"latitude short degrees", "213.2354", 2, 2.22059, false},
		{"longitude", "11404.2054", 3, 114.07009, false},
		{"negative longitude", "-11404.2054", 3, -114.07009, false},
		{"longitude below ten degrees", "904.2054", 3, 9.07009, false},
		{"no decimal point", "5213", 2, 0, true},
		{"not a number", "52x3.2354", 2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDegreesMinutes(tt.value, tt.degDigits, "latitude")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want error, got %f", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("parseDegreesMinutes(%q) = %f, want %f", tt.value, got, tt.want)
			}
		})
	}
}

func TestHeading(t *testing.T) {
	tests := []struct {
		course float64
		want   string
	}{
		{0, "N"},
		{360, "N"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{337.5, "N"},
		{22, "N"},
		{23, "NE"},
	}

	for _, tt := range tests {
		r := Reading{Course: tt.course}
		if got := r.Heading(); got != tt.want {
			t.Errorf("Heading(course=%g) = %q, want %q", tt.course, got, tt.want)
		}
	}
}
