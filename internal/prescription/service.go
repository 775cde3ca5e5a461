package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
)

var (
	ErrInvalid   = errors.New("invalid prescription")
	ErrForbidden = errors.New("appointment is assigned to another doctor")
)

// Appointments is the slice of the appointment store a prescription needs.
type Appointments interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*appointment.Patient, error)
}

type StatusChanger interface {
	ChangeStatus(ctx context.Context, id uuid.UUID, status appointment.Status) error
}

type Input struct {
	AppointmentID uuid.UUID
	Medication    string
	Dosage        string
	DoctorNotes   string
}

type Service struct {
	repo         Repository
	appointments Appointments
	status       StatusChanger
	log          zerolog.Logger
}

func NewService(repo Repository, appointments Appointments, status StatusChanger, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		status:       status,
		log:          log.With().Str("component", "prescription").Logger(),
	}
}

// Save records the prescription for one of the doctor's appointments and marks
// that appointment completed. Saving again while the appointment is still
// scheduled finishes the completion and returns the stored prescription.
func (s *Service) Save(ctx context.Context, doctor auth.Doctor, in Input) (*Prescription, error) {
	in.Medication = strings.TrimSpace(in.Medication)
	in.Dosage = strings.TrimSpace(in.Dosage)
	if in.AppointmentID == uuid.Nil || in.Medication == "" || in.Dosage == "" {
		return nil, fmt.Errorf("%w: appointment, medication and dosage are required", ErrInvalid)
	}

	appt, err := s.appointments.GetAppointmentByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.DoctorID != doctor.ID {
		return nil, ErrForbidden
	}

	existing, err := s.repo.GetByAppointmentID(ctx, appt.ID)
	switch {
	case err == nil && appt.Status == appointment.StatusCompleted:
		return nil, ErrExists
	case err == nil:
		// An earlier save stored the prescription but failed to complete the appointment.
		if err := s.complete(ctx, appt.ID); err != nil {
			return nil, err
		}
		s.log.Warn().
			Stringer("prescription_id", existing.ID).
			Stringer("appointment_id", appt.ID).
			Msg("completed appointment for existing prescription")
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	patient, err := s.appointments.GetPatientByID(ctx, appt.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	p := &Prescription{
		ID:            uuid.New(),
		AppointmentID: appt.ID,
		PatientName:   patient.Name,
		Medication:    in.Medication,
		Dosage:        in.Dosage,
		DoctorNotes:   strings.TrimSpace(in.DoctorNotes),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.complete(ctx, appt.ID); err != nil {
		return nil, err
	}

	s.log.Info().
		Stringer("prescription_id", p.ID).
		Stringer("appointment_id", appt.ID).
		Msg("prescription recorded")
	return p, nil
}

func (s *Service) complete(ctx context.Context, appointmentID uuid.UUID) error {
	if err := s.status.ChangeStatus(ctx, appointmentID, appointment.StatusCompleted); err != nil {
		return fmt.Errorf("complete appointment: %w", err)
	}
	return nil
}

// Get returns the prescription of an appointment the doctor owns.
func (s *Service) Get(ctx context.Context, doctor auth.Doctor, appointmentID uuid.UUID) (*Prescription, error) {
	appt, err := s.appointments.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.DoctorID != doctor.ID {
		return nil, ErrForbidden
	}
	return s.repo.GetByAppointmentID(ctx, appointmentID)
}
