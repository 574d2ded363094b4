package main

import (
	"log"
	"os"

	"github.com/relabs-tech/bike_client/internal/app"
)

func main() {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = "tcp://localhost:1883"
	}
	log.Println("starting bike console (MQTT subscriber)")

	if err := app.RunConsole(broker); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
