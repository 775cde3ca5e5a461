package prescription

import (
	"time"

	"github.com/google/uuid"
)

type Prescription struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	PatientName   string
	Medication    string
	Dosage        string
	DoctorNotes   string
	CreatedAt     time.Time
}
