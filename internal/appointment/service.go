package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/events"
	redisclient "github.com/hackgods/clinic-appointment-scheduling/internal/redis"
)

// ConflictWindow is how close to another appointment of the same doctor a
// rescheduled appointment may start.
const ConflictWindow = 59 * time.Minute

var (
	ErrForbidden          = errors.New("appointment belongs to another patient")
	ErrSlotUnavailable    = errors.New("requested slot is not available")
	ErrSlotBusy           = errors.New("slot is currently being booked, please retry")
	ErrInvalidAppointment = errors.New("invalid appointment")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

type EventPublisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

type BookRequest struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Time      time.Time
}

type UpdateRequest struct {
	DoctorID uuid.UUID
	Time     time.Time
	Status   Status
}

// Service manages the appointment lifecycle: book, update, cancel and status changes.
type Service struct {
	doctors      DoctorRepository
	patients     PatientRepository
	appointments AppointmentRepository
	calc         *Calculator
	validator    *Validator
	locker       redisclient.Locker
	events       EventPublisher
	log          zerolog.Logger
	now          func() time.Time
}

func NewService(
	doctors DoctorRepository,
	patients PatientRepository,
	appointments AppointmentRepository,
	locker redisclient.Locker,
	publisher EventPublisher,
	log zerolog.Logger,
) *Service {
	calc := NewCalculator(doctors, appointments)
	return &Service{
		doctors:      doctors,
		patients:     patients,
		appointments: appointments,
		calc:         calc,
		validator:    NewValidator(calc),
		locker:       locker,
		events:       publisher,
		log:          log.With().Str("component", "appointment").Logger(),
		now:          func() time.Time { return Naive(time.Now()) },
	}
}

func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]TimeOfDay, error) {
	return s.calc.Availability(ctx, doctorID, date)
}

func (s *Service) Validate(ctx context.Context, doctorID uuid.UUID, date time.Time, at TimeOfDay) (Validation, error) {
	return s.validator.Validate(ctx, doctorID, date, at)
}

// Book validates the requested slot and stores a scheduled appointment.
// Validation and insert run under the doctor's per-day lock, and the
// (doctor_id, appointment_time) unique constraint backs it up.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	if req.DoctorID == uuid.Nil || req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor and patient are required", ErrInvalidAppointment)
	}
	at := Naive(req.Time).Truncate(time.Minute)
	if !at.After(s.now()) {
		return nil, fmt.Errorf("%w: appointment time must be in the future", ErrInvalidAppointment)
	}

	if _, err := s.patients.GetPatientByID(ctx, req.PatientID); err != nil {
		return nil, storeErr("load patient", err)
	}

	var created *Appointment
	err := s.withLock(ctx, req.DoctorID, at, func(lockCtx context.Context) error {
		v, err := s.validator.Validate(lockCtx, req.DoctorID, at, TimeOfDayOf(at))
		if err != nil {
			return err
		}
		if v != Valid {
			return v.Err()
		}

		appt := &Appointment{
			ID:        uuid.New(),
			DoctorID:  req.DoctorID,
			PatientID: req.PatientID,
			Time:      at,
			Status:    StatusScheduled,
		}
		if err := s.appointments.CreateAppointment(lockCtx, appt); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return ErrSlotUnavailable
			}
			return storeErr("create appointment", err)
		}
		created = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, events.AppointmentBooked, *created)
	return created, nil
}

// Update reschedules an appointment owned by patientID. The new time must not
// start within ConflictWindow of any other appointment of the target doctor.
// Ownership is settled before the request itself is looked at, and checked
// again under the lock.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest, patientID uuid.UUID) (*Appointment, error) {
	if _, err := s.ownedBy(ctx, id, patientID); err != nil {
		return nil, err
	}

	if req.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor is required", ErrInvalidAppointment)
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %d", ErrInvalidAppointment, req.Status)
	}
	if req.Status == StatusCompleted {
		return nil, fmt.Errorf("%w: appointments are completed by issuing a prescription", ErrInvalidTransition)
	}
	at := Naive(req.Time).Truncate(time.Minute)
	if !at.After(s.now()) {
		return nil, fmt.Errorf("%w: appointment time must be in the future", ErrInvalidAppointment)
	}

	var updated *Appointment
	err := s.withLock(ctx, req.DoctorID, at, func(lockCtx context.Context) error {
		existing, err := s.ownedBy(lockCtx, id, patientID)
		if err != nil {
			return err
		}
		if existing.Status == StatusCompleted {
			return fmt.Errorf("%w: appointment is already completed", ErrInvalidTransition)
		}

		if _, err := s.doctors.GetDoctorByID(lockCtx, req.DoctorID); err != nil {
			return storeErr("load doctor", err)
		}

		near, err := s.appointments.ListAppointmentsByDoctorBetween(lockCtx, req.DoctorID, at.Add(-time.Hour), at.Add(time.Hour+time.Minute))
		if err != nil {
			return storeErr("list nearby appointments", err)
		}
		if conflictsWithin(near, id, at, ConflictWindow) {
			return ErrSlotUnavailable
		}

		existing.DoctorID = req.DoctorID
		existing.Time = at
		existing.Status = req.Status
		if err := s.appointments.UpdateAppointment(lockCtx, existing); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return ErrSlotUnavailable
			}
			return storeErr("update appointment", err)
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, events.AppointmentUpdated, *updated)
	return updated, nil
}

// ownedBy loads an appointment and fails with ErrForbidden unless patientID booked it.
func (s *Service) ownedBy(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	existing, err := s.appointments.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, storeErr("load appointment", err)
	}
	if existing.PatientID != patientID {
		return nil, ErrForbidden
	}
	return existing, nil
}

// conflictsWithin reports whether any appointment other than self starts within window of at.
func conflictsWithin(appts []Appointment, self uuid.UUID, at time.Time, window time.Duration) bool {
	for _, a := range appts {
		if a.ID == self {
			continue
		}
		d := a.Time.Sub(at)
		if d < 0 {
			d = -d
		}
		if d <= window {
			return true
		}
	}
	return false
}

// Cancel hard-deletes an appointment owned by patientID.
func (s *Service) Cancel(ctx context.Context, id, patientID uuid.UUID) error {
	existing, err := s.ownedBy(ctx, id, patientID)
	if err != nil {
		return err
	}

	if err := s.appointments.DeleteAppointment(ctx, id); err != nil {
		return storeErr("delete appointment", err)
	}

	s.logEvent(ctx, events.AppointmentCancelled, *existing)
	return nil
}

// ChangeStatus overwrites the status without an ownership check. Callers must
// already hold a doctor role. Completed appointments cannot go back to scheduled.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %d", ErrInvalidTransition, status)
	}

	existing, err := s.appointments.GetAppointmentByID(ctx, id)
	if err != nil {
		return storeErr("load appointment", err)
	}
	if existing.Status == status {
		return nil
	}
	if existing.Status == StatusCompleted {
		return fmt.Errorf("%w: appointment is already completed", ErrInvalidTransition)
	}

	if err := s.appointments.UpdateAppointmentStatus(ctx, id, status); err != nil {
		return storeErr("update appointment status", err)
	}

	existing.Status = status
	s.logEvent(ctx, events.AppointmentCompleted, *existing)
	return nil
}

// QueryForDoctorOnDate lists the doctor's appointments on a calendar day,
// optionally narrowed to patients whose name contains patientName.
func (s *Service) QueryForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName string) ([]AppointmentView, error) {
	if _, err := s.doctors.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, storeErr("load doctor", err)
	}

	day := DayOf(date)
	details, err := s.appointments.ListDoctorDetailsBetween(ctx, doctorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, storeErr("list doctor appointments", err)
	}

	if patientName != "" {
		kept := details[:0]
		for _, d := range details {
			if containsFold(d.PatientName, patientName) {
				kept = append(kept, d)
			}
		}
		details = kept
	}

	return newViews(details), nil
}

func (s *Service) withLock(ctx context.Context, doctorID uuid.UUID, at time.Time, fn func(ctx context.Context) error) error {
	err := s.locker.WithDoctorDayLock(ctx, doctorID, DayOf(at), fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrSlotBusy
	}
	if errors.Is(err, ErrPersistence) || isDomainErr(err) {
		return err
	}
	return fmt.Errorf("booking lock: %w: %w", ErrPersistence, err)
}

func isDomainErr(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrForbidden, ErrSlotUnavailable, ErrSlotBusy,
		ErrInvalidAppointment, ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// logEvent writes the audit row and publishes to the broker. Failures are logged, not returned.
func (s *Service) logEvent(ctx context.Context, eventType events.Type, appt Appointment) {
	ev := events.Event{
		Type:            eventType,
		AppointmentID:   appt.ID,
		DoctorID:        appt.DoctorID,
		PatientID:       appt.PatientID,
		AppointmentTime: appt.Time,
		Status:          int(appt.Status),
		OccurredAt:      time.Now().UTC(),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Error().Err(err).Str("event", string(eventType)).Msg("marshal event payload")
		data = nil
	}

	apptID := appt.ID
	if err := s.appointments.InsertEvent(ctx, EventLog{
		EventType:     string(eventType),
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     ev.OccurredAt,
	}); err != nil {
		s.log.Error().Err(err).Str("event", string(eventType)).Stringer("appointment_id", appt.ID).Msg("insert event log")
	}

	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", string(eventType)).Stringer("appointment_id", appt.ID).Msg("publish event")
	}
}
