package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDoctorNotFound      = fmt.Errorf("doctor %w", ErrNotFound)
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)

	// ErrDuplicate is returned by repositories when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")

	// ErrPersistence marks store failures that are not otherwise classified.
	ErrPersistence = errors.New("persistence failure")
)

// DoctorRepository reads and writes doctors. Lookups by id return ErrDoctorNotFound.
type DoctorRepository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetDoctorByEmail(ctx context.Context, email string) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
	FindDoctorsByName(ctx context.Context, nameContains string) ([]Doctor, error)
	FindDoctorsBySpecialty(ctx context.Context, specialty string) ([]Doctor, error)

	CreateDoctor(ctx context.Context, d *Doctor) error
	UpdateDoctor(ctx context.Context, d *Doctor) error
	// DeleteDoctor removes the doctor and every appointment assigned to them.
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
}

type PatientRepository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetPatientByEmail(ctx context.Context, email string) (*Patient, error)
	// FindPatientByEmailOrPhone returns ErrPatientNotFound when neither matches.
	FindPatientByEmailOrPhone(ctx context.Context, email, phone string) (*Patient, error)
	CreatePatient(ctx context.Context, p *Patient) error
}

type AppointmentRepository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// ListAppointmentsByDoctorBetween returns appointments with from <= time < to.
	ListAppointmentsByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)

	CreateAppointment(ctx context.Context, a *Appointment) error
	UpdateAppointment(ctx context.Context, a *Appointment) error
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status Status) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// Joined reads, ordered by appointment time.
	ListDoctorDetailsBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]AppointmentDetail, error)
	ListPatientDetails(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error)
	ListDetailsBetween(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

// storeErr passes classified errors through and tags everything else as a
// persistence failure.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
