// Package alert publishes theft alerts and status snapshots to the local
// MQTT broker, where the alarm and any debugging console pick them up.
package alert

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	TopicTheft  = "bike/alert/theft"
	TopicStatus = "bike/status"
)

// TheftAlert is raised when a locked bike has moved past its geofence
// threshold.
type TheftAlert struct {
	BikeID     int     `json:"bike_id"`
	DistanceKm float64 `json:"distance_km"`
	Longitude  float64 `json:"longitude"`
	Latitude   float64 `json:"latitude"`
	Timestamp  int64   `json:"timestamp"`
}

// Status is a periodic snapshot of the bike's state.
type Status struct {
	BikeID    int     `json:"bike_id"`
	Locked    bool    `json:"locked"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	HavePos   bool    `json:"have_position"`
	Battery   int     `json:"battery"`
	Timestamp int64   `json:"timestamp"`
}

// Publisher is the output side of the geofence monitor.
type Publisher interface {
	PublishTheft(a TheftAlert) error
	PublishStatus(s Status) error
}

// MQTTPublisher delivers alerts to the local broker.
type MQTTPublisher struct {
	client mqtt.Client
}

// Connect dials the broker.
func Connect(broker, clientID string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Printf("alert: connected to MQTT broker at %s", broker)
	return &MQTTPublisher{client: client}, nil
}

func (p *MQTTPublisher) PublishTheft(a TheftAlert) error {
	return p.publish(TopicTheft, a)
}

func (p *MQTTPublisher) PublishStatus(s Status) error {
	return p.publish(TopicStatus, s)
}

func (p *MQTTPublisher) publish(topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	token := p.client.Publish(topic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("alert: publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
