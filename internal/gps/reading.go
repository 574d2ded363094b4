package gps

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Conversion factor from knots to meters per second.
const knotsToMS = 0.5144447

var directions = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// ParseError reports a malformed field in a GPS response line.
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gps: bad %s field %q", e.Field, e.Value)
}

// Reading is a single parsed GPS fix. Values are never mutated after
// parsing.
type Reading struct {
	Longitude  float64   `json:"longitude"` // decimal degrees, WGS84
	Latitude   float64   `json:"latitude"`  // decimal degrees, WGS84
	Altitude   float64   `json:"altitude"`  // meters
	Time       time.Time `json:"utc_time"`
	Satellites int       `json:"satellites"`
	Speed      float64   `json:"speed"`  // m/s
	Course     float64   `json:"course"` // degrees over ground, 0-360
}

// ParseReading parses one AT+CGPSINF=0 response line. The line is
// space-delimited with the second field a comma-separated tuple:
//
//	+CGPSINF: mode,longitude,latitude,altitude,utc_time,ttff,satellites,speed,course
//
// Longitude and latitude are degrees+minutes strings, speed is in knots.
func ParseReading(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	_, values, ok := strings.Cut(line, " ")
	if !ok {
		return Reading{}, &ParseError{Field: "response", Value: line}
	}

	fields := strings.Split(values, ",")
	if len(fields) != 9 {
		return Reading{}, &ParseError{Field: "response", Value: values}
	}

	var (
		r   Reading
		err error
	)
	if r.Longitude, err = parseLongitude(fields[1]); err != nil {
		return Reading{}, err
	}
	if r.Latitude, err = parseLatitude(fields[2]); err != nil {
		return Reading{}, err
	}
	if r.Altitude, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return Reading{}, &ParseError{Field: "altitude", Value: fields[3]}
	}
	if r.Time, err = parseTime(fields[4]); err != nil {
		return Reading{}, err
	}
	if r.Satellites, err = strconv.Atoi(fields[6]); err != nil {
		return Reading{}, &ParseError{Field: "satellites", Value: fields[6]}
	}
	knots, err := strconv.ParseFloat(fields[7], 64)
	if err != nil {
		return Reading{}, &ParseError{Field: "speed", Value: fields[7]}
	}
	r.Speed = knots * knotsToMS
	if r.Course, err = strconv.ParseFloat(fields[8], 64); err != nil {
		return Reading{}, &ParseError{Field: "course", Value: fields[8]}
	}
	return r, nil
}

// Heading classifies the course into one of the eight compass octants.
func (r Reading) Heading() string {
	i := int(math.Round(r.Course/(360/float64(len(directions))))) % len(directions)
	if i < 0 {
		i += len(directions)
	}
	return directions[i]
}

// Point returns the reading as a lon/lat pair in WGS84 projection space.
func (r Reading) Point() (lon, lat float64) {
	return r.Longitude, r.Latitude
}

func (r Reading) String() string {
	return fmt.Sprintf("%f, %f moving %.2fm/s %s", r.Longitude, r.Latitude, r.Speed, r.Heading())
}

// parseLatitude parses a DDMM.MMMMM string, optionally sign-prefixed, into
// decimal degrees.
func parseLatitude(s string) (float64, error) {
	return parseDegreesMinutes(s, 2, "latitude")
}

// parseLongitude parses a DDDMM.MMMMM string, optionally sign-prefixed,
// into decimal degrees.
func parseLongitude(s string) (float64, error) {
	return parseDegreesMinutes(s, 3, "longitude")
}

// parseDegreesMinutes splits a fixed-format degrees+minutes string: the
// leading degDigits digits (left-padded with zeroes) are whole degrees, the
// remainder is minutes. Decimal degrees = sign * (degrees + minutes/60).
func parseDegreesMinutes(s string, degDigits int, field string) (float64, error) {
	raw := s
	sign := 1.0
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0, &ParseError{Field: field, Value: raw}
	}
	whole := s[:dot]
	for len(whole) < degDigits+2 {
		whole = "0" + whole
	}

	degrees, err := strconv.Atoi(whole[:degDigits])
	if err != nil {
		return 0, &ParseError{Field: field, Value: raw}
	}
	minutes, err := strconv.ParseFloat(whole[degDigits:]+s[dot:], 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: raw}
	}
	return sign * (float64(degrees) + minutes/60), nil
}

// parseTime parses the module's YYYYMMDDHHMMSS.000 timestamp as UTC.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse("20060102150405.000", s)
	if err != nil {
		return time.Time{}, &ParseError{Field: "utc_time", Value: s}
	}
	return t, nil
}
