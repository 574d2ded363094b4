package app

import (
	"testing"

	"github.com/relabs-tech/bike_client/internal/alert"
	"github.com/relabs-tech/bike_client/internal/bike"
	"github.com/relabs-tech/bike_client/internal/gps"
)

type mockPublisher struct {
	thefts   []alert.TheftAlert
	statuses []alert.Status
	err      error
}

func (m *mockPublisher) PublishTheft(a alert.TheftAlert) error {
	m.thefts = append(m.thefts, a)
	return m.err
}

func (m *mockPublisher) PublishStatus(s alert.Status) error {
	m.statuses = append(m.statuses, s)
	return m.err
}

func testBike() *bike.Bike {
	seed := make([]byte, 32)
	copy(seed, "geofence test seed")
	return bike.New(117, seed, false)
}

func TestGeofenceTickRaisesTheftAlert(t *testing.T) {
	b := testBike()
	b.SetReading(gps.Reading{Longitude: 0, Latitude: 0})
	b.Lock()
	// Bike moves ~11 km while locked.
	b.SetReading(gps.Reading{Longitude: 0, Latitude: 0.1})
	pub := &mockPublisher{}

	GeofenceTick(b, pub, 5)
	if len(pub.thefts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(pub.thefts))
	}
	a := pub.thefts[0]
	if a.BikeID != 117 {
		t.Errorf("BikeID = %d, want 117", a.BikeID)
	}
	if a.DistanceKm < 11 || a.DistanceKm > 11.3 {
		t.Errorf("DistanceKm = %f, want ~11.1", a.DistanceKm)
	}

	// The alert neither unlocks the bike nor stops monitoring: while the
	// condition persists, each tick raises exactly one more.
	if !b.Locked() {
		t.Error("alert unlocked the bike")
	}
	GeofenceTick(b, pub, 5)
	if len(pub.thefts) != 2 {
		t.Errorf("got %d alerts after second tick, want 2", len(pub.thefts))
	}
}

func TestGeofenceTickWithinThreshold(t *testing.T) {
	b := testBike()
	b.SetReading(gps.Reading{Longitude: 0, Latitude: 0})
	b.Lock()
	// ~11 m of GPS jitter.
	b.SetReading(gps.Reading{Longitude: 0, Latitude: 0.0001})
	pub := &mockPublisher{}

	GeofenceTick(b, pub, 5)
	if len(pub.thefts) != 0 {
		t.Errorf("got %d alerts, want none", len(pub.thefts))
	}
}

func TestGeofenceTickNoReading(t *testing.T) {
	b := testBike()
	b.Lock()
	pub := &mockPublisher{}

	// Never-populated reading: the tick is a no-op, not a crash.
	GeofenceTick(b, pub, 5)
	if len(pub.thefts) != 0 {
		t.Errorf("got %d alerts, want none", len(pub.thefts))
	}
}

func TestGeofenceTickUnlockedTracksPosition(t *testing.T) {
	b := testBike()
	b.SetReading(gps.Reading{Longitude: 106.8456, Latitude: -6.2088})
	pub := &mockPublisher{}

	GeofenceTick(b, pub, 5)
	lon, lat, ok := b.Position()
	if !ok || lon != 106.8456 || lat != -6.2088 {
		t.Errorf("Position() = (%f, %f, %t), want the latest reading", lon, lat, ok)
	}
	if len(pub.thefts) != 0 {
		t.Errorf("got %d alerts while unlocked, want none", len(pub.thefts))
	}
}

func TestGeofenceTickPublishesStatus(t *testing.T) {
	b := testBike()
	pub := &mockPublisher{}

	GeofenceTick(b, pub, 5)
	if len(pub.statuses) != 1 {
		t.Fatalf("got %d status snapshots, want 1", len(pub.statuses))
	}
	if pub.statuses[0].Locked {
		t.Error("status reports locked for an unlocked bike")
	}
}
