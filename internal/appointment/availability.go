package appointment

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Calculator computes a doctor's free slots on a date from their daily template.
type Calculator struct {
	doctors      DoctorRepository
	appointments AppointmentRepository
}

func NewCalculator(doctors DoctorRepository, appointments AppointmentRepository) *Calculator {
	return &Calculator{doctors: doctors, appointments: appointments}
}

// Availability returns the doctor's template times not yet booked on date, ascending.
// It fails with ErrDoctorNotFound for an unknown doctor.
func (c *Calculator) Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]TimeOfDay, error) {
	doctor, err := c.doctors.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, storeErr("load doctor", err)
	}

	day := DayOf(date)
	booked, err := c.appointments.ListAppointmentsByDoctorBetween(ctx, doctorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, storeErr("list booked appointments", err)
	}

	taken := make(map[TimeOfDay]struct{}, len(booked))
	for _, a := range booked {
		taken[a.TimeOfDay()] = struct{}{}
	}

	free := make([]TimeOfDay, 0, len(doctor.AvailableTimes))
	seen := make(map[TimeOfDay]struct{}, len(doctor.AvailableTimes))
	for _, t := range doctor.AvailableTimes {
		if _, ok := taken[t]; ok {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		free = append(free, t)
	}

	sort.Slice(free, func(i, j int) bool { return free[i] < free[j] })
	return free, nil
}

// Validation classifies a requested booking.
type Validation int

const (
	Valid Validation = iota
	SlotUnavailable
	DoctorNotFound
)

func (v Validation) String() string {
	switch v {
	case Valid:
		return "valid"
	case SlotUnavailable:
		return "slot_unavailable"
	case DoctorNotFound:
		return "doctor_not_found"
	}
	return "unknown"
}

// Err maps a non-valid result onto its sentinel error.
func (v Validation) Err() error {
	switch v {
	case SlotUnavailable:
		return ErrSlotUnavailable
	case DoctorNotFound:
		return ErrDoctorNotFound
	}
	return nil
}

type Validator struct {
	calc *Calculator
}

func NewValidator(calc *Calculator) *Validator {
	return &Validator{calc: calc}
}

// Validate reports whether at is a free slot of the doctor on date.
// The error is non-nil only for store failures.
func (v *Validator) Validate(ctx context.Context, doctorID uuid.UUID, date time.Time, at TimeOfDay) (Validation, error) {
	free, err := v.calc.Availability(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return DoctorNotFound, nil
		}
		return SlotUnavailable, err
	}

	for _, t := range free {
		if t == at {
			return Valid, nil
		}
	}
	return SlotUnavailable, nil
}
