package app

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/relabs-tech/bike_client/internal/bike"
)

// bikeStatus is the diagnostics endpoint's response shape.
type bikeStatus struct {
	BikeID     int     `json:"bike_id"`
	Locked     bool    `json:"locked"`
	HasFix     bool    `json:"has_fix"`
	Battery    int     `json:"battery"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	Satellites int     `json:"satellites,omitempty"`
	SpeedMS    float64 `json:"speed_ms,omitempty"`
	Heading    string  `json:"heading,omitempty"`
}

// RunStatusServer exposes a local diagnostics endpoint with the latest fix,
// lock and battery state.
func RunStatusServer(ctx context.Context, b *bike.Bike, hasFix func() bool, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		resp := bikeStatus{
			BikeID:  b.ID(),
			Locked:  b.Locked(),
			HasFix:  hasFix(),
			Battery: b.Battery(),
		}
		if reading, ok := b.LastReading(); ok {
			resp.Latitude = reading.Latitude
			resp.Longitude = reading.Longitude
			resp.Satellites = reading.Satellites
			resp.SpeedMS = reading.Speed
			resp.Heading = reading.Heading()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("status: json encode error: %v", err)
		}
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	log.Printf("status: server listening on %s", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
