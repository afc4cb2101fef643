package events

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/islandrides/vehicle-rental/internal/models"
	log "github.com/sirupsen/logrus"
)

// Publisher emits booking lifecycle events for downstream consumers
// (notification workers, audit trail). Emission is fire-and-forget; the
// booking flow never fails because an event could not be delivered.
type Publisher interface {
	PublishBookingEvent(event string, booking models.Booking)
}

// BookingEvent is the payload published for every lifecycle change.
type BookingEvent struct {
	Event     string    `json:"event"`
	BookingID string    `json:"booking_id"`
	Reference string    `json:"reference"`
	VehicleID string    `json:"vehicle_id"`
	TouristID string    `json:"tourist_id"`
	DriverID  string    `json:"driver_id,omitempty"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// MQTTPublisher publishes booking events to an MQTT broker under
// rental/bookings/<event>.
type MQTTPublisher struct {
	client mqtt.Client
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(brokerURL string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("rental-backend-" + uuid.NewString()[:8]).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timed out: %s", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}
	return &MQTTPublisher{client: client}, nil
}

// PublishBookingEvent publishes the event as JSON. Failures are logged,
// never returned.
func (p *MQTTPublisher) PublishBookingEvent(event string, booking models.Booking) {
	payload := BookingEvent{
		Event:     event,
		BookingID: booking.ID.Hex(),
		Reference: booking.Reference,
		VehicleID: booking.VehicleID.Hex(),
		TouristID: booking.TouristID.Hex(),
		Status:    string(booking.Status),
		Timestamp: time.Now(),
	}
	if booking.DriverID != nil {
		payload.DriverID = booking.DriverID.Hex()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Warn("failed to marshal booking event")
		return
	}

	topic := "rental/bookings/" + event
	token := p.client.Publish(topic, 0, false, data)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.WithError(token.Error()).WithField("topic", topic).Warn("failed to publish booking event")
		}
	}()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// NopPublisher drops all events. Used when no broker is configured.
type NopPublisher struct{}

// PublishBookingEvent does nothing.
func (NopPublisher) PublishBookingEvent(event string, booking models.Booking) {}
