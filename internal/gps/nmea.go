package gps

import (
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// ParseRMC converts one $..RMC sentence into a Reading. Used when the
// module is switched into NMEA passthrough instead of polled AT queries.
// Sentences with a void validity flag fail with ErrNoFix.
func ParseRMC(line string) (Reading, error) {
	s, err := nmea.Parse(line)
	if err != nil {
		return Reading{}, &ParseError{Field: "nmea", Value: line}
	}
	m, ok := s.(nmea.RMC)
	if !ok {
		return Reading{}, &ParseError{Field: "nmea", Value: s.DataType()}
	}
	if m.Validity != nmea.ValidRMC {
		return Reading{}, ErrNoFix
	}

	return Reading{
		Longitude: m.Longitude,
		Latitude:  m.Latitude,
		Time:      rmcTime(m.Date, m.Time),
		Speed:     m.Speed * knotsToMS,
		Course:    m.Course,
	}, nil
}

// rmcTime combines the two-digit RMC date with the time-of-day field.
// Two-digit years map into the 2000s.
func rmcTime(d nmea.Date, t nmea.Time) time.Time {
	return time.Date(2000+d.YY, time.Month(d.MM), d.DD,
		t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}
