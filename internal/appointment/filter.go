package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Period selects doctors by whether any template time falls before or after noon.
// Noon itself is neither.
type Period string

const (
	PeriodAny Period = ""
	PeriodAM  Period = "AM"
	PeriodPM  Period = "PM"
)

func ParsePeriod(s string) (Period, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return PeriodAny, nil
	case "AM":
		return PeriodAM, nil
	case "PM":
		return PeriodPM, nil
	}
	return PeriodAny, fmt.Errorf("%w: time must be AM or PM, got %q", ErrInvalidFilter, s)
}

func (p Period) matches(times []TimeOfDay) bool {
	if p == PeriodAny {
		return true
	}
	for _, t := range times {
		if p == PeriodAM && t < Noon {
			return true
		}
		if p == PeriodPM && t > Noon {
			return true
		}
	}
	return false
}

type DoctorFilter struct {
	Name      string // case-insensitive substring
	Specialty string // case-insensitive exact
	Period    Period
}

// Condition narrows a patient's history.
type Condition string

const (
	ConditionAny       Condition = ""
	ConditionPast      Condition = "past"
	ConditionFuture    Condition = "future"
	ConditionScheduled Condition = "scheduled"
)

func ParseCondition(s string) (Condition, error) {
	switch c := Condition(strings.ToLower(strings.TrimSpace(s))); c {
	case ConditionAny, ConditionPast, ConditionFuture, ConditionScheduled:
		return c, nil
	}
	return ConditionAny, fmt.Errorf("%w: condition must be past, future or scheduled, got %q", ErrInvalidFilter, s)
}

// Status maps a condition onto the stored status it selects. Past means completed.
func (c Condition) Status() (Status, bool) {
	switch c {
	case ConditionPast:
		return StatusCompleted, true
	case ConditionFuture, ConditionScheduled:
		return StatusScheduled, true
	}
	return 0, false
}

type HistoryFilter struct {
	Condition  Condition
	DoctorName string // case-insensitive substring
}

// FilterEngine answers doctor searches and patient history queries.
type FilterEngine struct {
	doctors      DoctorRepository
	appointments AppointmentRepository
}

func NewFilterEngine(doctors DoctorRepository, appointments AppointmentRepository) *FilterEngine {
	return &FilterEngine{doctors: doctors, appointments: appointments}
}

// FilterDoctors returns doctors matching every supplied criterion. The store
// narrows by specialty or name first and the rest is applied here.
func (f *FilterEngine) FilterDoctors(ctx context.Context, filter DoctorFilter) ([]Doctor, error) {
	var (
		base []Doctor
		err  error
	)
	switch {
	case filter.Specialty != "":
		base, err = f.doctors.FindDoctorsBySpecialty(ctx, filter.Specialty)
	case filter.Name != "":
		base, err = f.doctors.FindDoctorsByName(ctx, filter.Name)
	default:
		base, err = f.doctors.ListDoctors(ctx)
	}
	if err != nil {
		return nil, storeErr("list doctors", err)
	}

	out := make([]Doctor, 0, len(base))
	for _, d := range base {
		if filter.Name != "" && !containsFold(d.Name, filter.Name) {
			continue
		}
		if filter.Specialty != "" && !strings.EqualFold(d.Specialty, filter.Specialty) {
			continue
		}
		if !filter.Period.matches(d.AvailableTimes) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// FilterHistory lists the caller's own appointments in time order. The patient
// comes from the resolved principal, never from request input.
func (f *FilterEngine) FilterHistory(ctx context.Context, patient auth.Patient, filter HistoryFilter) ([]AppointmentView, error) {
	details, err := f.appointments.ListPatientDetails(ctx, patient.ID)
	if err != nil {
		return nil, storeErr("list patient appointments", err)
	}

	status, byStatus := filter.Condition.Status()
	out := make([]AppointmentView, 0, len(details))
	for _, d := range details {
		if byStatus && d.Status != status {
			continue
		}
		if filter.DoctorName != "" && !containsFold(d.DoctorName, filter.DoctorName) {
			continue
		}
		out = append(out, NewView(d))
	}
	return out, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
