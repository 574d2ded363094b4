package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/relabs-tech/bike_client/internal/bike"
	"github.com/relabs-tech/bike_client/internal/gps"
)

// RunGPSPoller keeps the bike's fix status and last reading current. With a
// fix it reads the position every second; without one it backs off to ten
// seconds between status polls. Parse failures discard the reading and
// polling continues.
func RunGPSPoller(ctx context.Context, reader *gps.Reader, b *bike.Bike) {
	for {
		status, err := reader.PollStatus()
		if err != nil {
			log.Printf("gps: status poll error: %v", err)
		}

		wait := 10 * time.Second
		if status.HasFix() {
			wait = time.Second
			reading, err := reader.ReadLocation()
			switch {
			case err == nil:
				b.SetReading(reading)
			case errors.Is(err, gps.ErrNoFix):
				// status flipped between poll and read; re-poll next tick
			default:
				log.Printf("gps: discarding reading: %v", err)
			}
		} else {
			log.Printf("gps: no fix (%s)", status)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// RunNMEAPoller consumes a module switched into NMEA passthrough, feeding
// valid RMC fixes into the bike state. Alternative to RunGPSPoller for
// firmware without the AT query set.
func RunNMEAPoller(ctx context.Context, port io.Reader, b *bike.Bike) {
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}
		reading, err := gps.ParseRMC(line)
		if err != nil {
			continue
		}
		b.SetReading(reading)
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("gps: nmea read error: %v", err)
	}
}
