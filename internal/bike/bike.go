// Package bike holds the device's shared mutable state. Every component is
// handed the same *Bike at construction and goes through its guarded
// accessors; there is no package-level state.
package bike

import (
	"crypto/ed25519"
	"sync"

	"github.com/relabs-tech/bike_client/internal/gps"
)

// Type is the hardware class reported at registration.
type Type string

const TypeRoad Type = "road"

// Bike is the device state shared across the GPS poller, the geofence
// monitor, the protocol engine, and the telemetry pusher. The signing key
// never changes after construction.
type Bike struct {
	id  int
	key ed25519.PrivateKey

	mu         sync.Mutex
	locked     bool
	anchorLon  float64
	anchorLat  float64
	hasAnchor  bool
	battery    int
	reading    gps.Reading
	hasReading bool
	trackedLon float64
	trackedLat float64
	hasTracked bool
}

// New derives the long-lived signing keypair from the 32-byte seed.
func New(id int, seed []byte, locked bool) *Bike {
	return &Bike{
		id:      id,
		key:     ed25519.NewKeyFromSeed(seed),
		locked:  locked,
		battery: 100,
	}
}

func (b *Bike) ID() int { return b.id }

func (b *Bike) PublicKey() ed25519.PublicKey {
	return b.key.Public().(ed25519.PublicKey)
}

// Sign proves key ownership during the challenge-response handshake.
func (b *Bike) Sign(data []byte) []byte {
	return ed25519.Sign(b.key, data)
}

func (b *Bike) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Lock flips the bike to locked and records the most recent reading as the
// geofence anchor, both under one mutex acquisition. Returns the new locked
// value.
func (b *Bike) Lock() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.locked = true
	if b.hasReading {
		b.anchorLon = b.reading.Longitude
		b.anchorLat = b.reading.Latitude
		b.hasAnchor = true
	}
	return b.locked
}

// Unlock clears the locked flag and the anchor.
func (b *Bike) Unlock() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.locked = false
	b.hasAnchor = false
	return b.locked
}

// Anchor reports the position captured at lock time. ok is false while
// unlocked, and while locked if no reading was known at lock time.
func (b *Bike) Anchor() (lon, lat float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.anchorLon, b.anchorLat, b.hasAnchor
}

// SetReading stores the latest parsed GPS fix. Written only by the GPS
// poller.
func (b *Bike) SetReading(r gps.Reading) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reading = r
	b.hasReading = true
}

// LastReading returns the most recent GPS fix, if any.
func (b *Bike) LastReading() (gps.Reading, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reading, b.hasReading
}

// UpdatePosition refreshes the tracked position pushed with telemetry.
func (b *Bike) UpdatePosition(lon, lat float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trackedLon = lon
	b.trackedLat = lat
	b.hasTracked = true
}

// Position returns the tracked position, if one has been recorded.
func (b *Bike) Position() (lon, lat float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trackedLon, b.trackedLat, b.hasTracked
}

// Battery returns the last known charge level, 0-100.
func (b *Bike) Battery() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.battery
}

// SetBattery clamps the level into 0-100.
func (b *Bike) SetBattery(level int) {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.battery = level
}
