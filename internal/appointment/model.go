package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status int

const (
	StatusScheduled Status = 0
	StatusCompleted Status = 1
)

func (s Status) Valid() bool {
	return s == StatusScheduled || s == StatusCompleted
}

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusCompleted:
		return "completed"
	}
	return "unknown"
}

// ConsultationLength is fixed; every appointment ends one hour after it starts.
const ConsultationLength = time.Hour

type Doctor struct {
	ID             uuid.UUID
	Name           string
	Email          string
	Phone          string
	Specialty      string
	AvailableTimes []TimeOfDay
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Patient struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	Address      string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Appointment struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Time      time.Time // zone-naive start
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Appointment) Date() time.Time {
	return DayOf(a.Time)
}

func (a Appointment) TimeOfDay() TimeOfDay {
	return TimeOfDayOf(a.Time)
}

func (a Appointment) EndTime() time.Time {
	return a.Time.Add(ConsultationLength)
}

// AppointmentDetail is an appointment joined with its doctor and patient.
type AppointmentDetail struct {
	Appointment
	DoctorName     string
	PatientName    string
	PatientEmail   string
	PatientPhone   string
	PatientAddress string
}

// AppointmentView is the display projection handed to callers.
type AppointmentView struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	DoctorName      string
	PatientID       uuid.UUID
	PatientName     string
	PatientEmail    string
	PatientPhone    string
	PatientAddress  string
	AppointmentTime time.Time
	Status          Status
	Date            time.Time
	TimeOnly        TimeOfDay
	EndTime         time.Time
}

func NewView(d AppointmentDetail) AppointmentView {
	return AppointmentView{
		ID:              d.ID,
		DoctorID:        d.DoctorID,
		DoctorName:      d.DoctorName,
		PatientID:       d.PatientID,
		PatientName:     d.PatientName,
		PatientEmail:    d.PatientEmail,
		PatientPhone:    d.PatientPhone,
		PatientAddress:  d.PatientAddress,
		AppointmentTime: d.Time,
		Status:          d.Status,
		Date:            d.Date(),
		TimeOnly:        d.TimeOfDay(),
		EndTime:         d.EndTime(),
	}
}

func newViews(details []AppointmentDetail) []AppointmentView {
	views := make([]AppointmentView, 0, len(details))
	for _, d := range details {
		views = append(views, NewView(d))
	}
	return views
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
