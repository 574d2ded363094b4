package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/bike_client/internal/alert"
)

// RunConsole subscribes to the bike's MQTT topics and prints status
// snapshots and theft alerts until interrupted. Debugging aid.
func RunConsole(broker string) error {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("bike-console")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", broker)

	statusToken := client.Subscribe(alert.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s alert.Status
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: status unmarshal error: %v", err)
			return
		}
		fmt.Printf(
			"[STAT ] bike=%d locked=%t lat=%.6f lon=%.6f bat=%d%%\n",
			s.BikeID, s.Locked, s.Latitude, s.Longitude, s.Battery,
		)
	})
	statusToken.Wait()
	if statusToken.Error() != nil {
		return statusToken.Error()
	}
	log.Printf("console: subscribed to %s", alert.TopicStatus)

	theftToken := client.Subscribe(alert.TopicTheft, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var a alert.TheftAlert
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			log.Printf("console: alert unmarshal error: %v", err)
			return
		}
		fmt.Printf(
			"[THEFT] bike=%d moved %.2fkm lat=%.6f lon=%.6f\n",
			a.BikeID, a.DistanceKm, a.Latitude, a.Longitude,
		)
	})
	theftToken.Wait()
	if theftToken.Error() != nil {
		return theftToken.Error()
	}
	log.Printf("console: subscribed to %s", alert.TopicTheft)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
