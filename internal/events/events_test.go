package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/config"
)

func TestNewSelectsDriver(t *testing.T) {
	p, err := New(config.Config{EventsDriver: config.EventsNone})
	if err != nil {
		t.Fatalf("New(none) error: %v", err)
	}
	if _, ok := p.(Nop); !ok {
		t.Fatalf("New(none) = %T, want Nop", p)
	}
	if err := p.Publish(context.Background(), Event{Type: AppointmentBooked}); err != nil {
		t.Fatalf("Nop.Publish() error: %v", err)
	}

	k, err := New(config.Config{EventsDriver: config.EventsKafka, KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "appointments"})
	if err != nil {
		t.Fatalf("New(kafka) error: %v", err)
	}
	if _, ok := k.(*KafkaPublisher); !ok {
		t.Fatalf("New(kafka) = %T, want *KafkaPublisher", k)
	}
	_ = k.Close()

	if _, err := New(config.Config{EventsDriver: "carrier-pigeon"}); err == nil {
		t.Fatal("New(unknown) should fail")
	}
}

func TestEventJSON(t *testing.T) {
	ev := Event{
		Type:            AppointmentBooked,
		AppointmentID:   uuid.New(),
		AppointmentTime: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if m["type"] != "appointment.booked" {
		t.Fatalf("type = %v, want appointment.booked", m["type"])
	}
	if m["appointment_time"] != "2024-06-01T09:00:00Z" {
		t.Fatalf("appointment_time = %v", m["appointment_time"])
	}
}
