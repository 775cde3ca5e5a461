package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/config"
)

type Type string

const (
	AppointmentBooked    Type = "appointment.booked"
	AppointmentUpdated   Type = "appointment.updated"
	AppointmentCancelled Type = "appointment.cancelled"
	AppointmentCompleted Type = "appointment.completed"
	AppointmentReminder  Type = "appointment.reminder"
)

type Event struct {
	Type            Type      `json:"type"`
	AppointmentID   uuid.UUID `json:"appointment_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	AppointmentTime time.Time `json:"appointment_time"`
	Status          int       `json:"status"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// New returns the publisher selected by EVENTS_DRIVER.
func New(cfg config.Config) (Publisher, error) {
	switch cfg.EventsDriver {
	case config.EventsAMQP:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	case config.EventsKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsNone, "":
		return Nop{}, nil
	}
	return nil, fmt.Errorf("unknown events driver %q", cfg.EventsDriver)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
