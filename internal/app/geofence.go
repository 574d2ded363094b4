package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/bike_client/internal/alert"
	"github.com/relabs-tech/bike_client/internal/bike"
	"github.com/relabs-tech/bike_client/internal/geo"
)

// RunGeofence watches a locked bike for unauthorized movement on a fixed
// interval.
func RunGeofence(ctx context.Context, b *bike.Bike, pub alert.Publisher, interval time.Duration, thresholdKm float64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		GeofenceTick(b, pub, thresholdKm)
	}
}

// GeofenceTick runs one geofence evaluation. While locked it compares the
// latest reading against the anchor and raises a theft alert past the
// threshold; the alert does not unlock the bike or stop monitoring. While
// unlocked it refreshes the tracked position instead. With no reading yet
// the anchor comparison is skipped until the next tick.
func GeofenceTick(b *bike.Bike, pub alert.Publisher, thresholdKm float64) {
	publishStatus(b, pub)

	reading, ok := b.LastReading()
	if !ok {
		return
	}
	if !b.Locked() {
		b.UpdatePosition(reading.Longitude, reading.Latitude)
		return
	}

	anchorLon, anchorLat, ok := b.Anchor()
	if !ok {
		return
	}
	dist := geo.Haversine(anchorLon, anchorLat, reading.Longitude, reading.Latitude)
	if dist <= thresholdKm {
		return
	}

	a := alert.TheftAlert{
		BikeID:     b.ID(),
		DistanceKm: dist,
		Longitude:  reading.Longitude,
		Latitude:   reading.Latitude,
		Timestamp:  time.Now().Unix(),
	}
	if err := pub.PublishTheft(a); err != nil {
		log.Printf("geofence: alert publish error: %v", err)
		return
	}
	log.Printf("geofence: bike %d moved %.2f km past its anchor, theft alert raised", b.ID(), dist)
}

func publishStatus(b *bike.Bike, pub alert.Publisher) {
	lon, lat, havePos := b.Position()
	s := alert.Status{
		BikeID:    b.ID(),
		Locked:    b.Locked(),
		Longitude: lon,
		Latitude:  lat,
		HavePos:   havePos,
		Battery:   b.Battery(),
		Timestamp: time.Now().Unix(),
	}
	if err := pub.PublishStatus(s); err != nil {
		log.Printf("geofence: status publish error: %v", err)
	}
}
