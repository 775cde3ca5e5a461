package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/prescription"
)

// localTimeLayout is the zone-naive wire format for appointment times.
const localTimeLayout = "2006-01-02T15:04"

// LocalTime is a wall-clock timestamp without zone on the wire.
type LocalTime time.Time

func (t LocalTime) Time() time.Time { return time.Time(t) }

func (t LocalTime) MarshalText() ([]byte, error) {
	return []byte(time.Time(t).Format(localTimeLayout)), nil
}

// UnmarshalText accepts "2006-01-02T15:04", optional seconds, or RFC 3339.
// A zone offset, if present, is dropped and the wall clock kept.
func (t *LocalTime) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for _, layout := range []string{localTimeLayout, "2006-01-02T15:04:05", time.RFC3339} {
		if v, err := time.Parse(layout, s); err == nil {
			*t = LocalTime(appointment.Naive(v))
			return nil
		}
	}
	return fmt.Errorf("time %q must look like %s", s, localTimeLayout)
}

func parseStatus(s string) (appointment.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "scheduled":
		return appointment.StatusScheduled, nil
	case "completed":
		return appointment.StatusCompleted, nil
	}
	return 0, fmt.Errorf("%w: status must be scheduled or completed", appointment.ErrInvalidAppointment)
}

type LoginRequest struct {
	Role     string `json:"role"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterPatientRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

type PatientResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone"`
	Address string    `json:"address,omitempty"`
}

func toPatientResponse(p *appointment.Patient) PatientResponse {
	return PatientResponse{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, Address: p.Address}
}

type DoctorRequest struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Specialty      string   `json:"specialty"`
	AvailableTimes []string `json:"available_times"`
	Password       string   `json:"password"`
}

func (r DoctorRequest) toInput() (appointment.DoctorInput, error) {
	times, err := appointment.ParseTimesOfDay(r.AvailableTimes)
	if err != nil {
		return appointment.DoctorInput{}, fmt.Errorf("%w: %v", appointment.ErrInvalidDoctor, err)
	}
	return appointment.DoctorInput{
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		Specialty:      r.Specialty,
		AvailableTimes: times,
		Password:       r.Password,
	}, nil
}

type DoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Specialty      string    `json:"specialty"`
	AvailableTimes []string  `json:"available_times"`
}

func toDoctorResponse(d *appointment.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		Name:           d.Name,
		Email:          d.Email,
		Phone:          d.Phone,
		Specialty:      d.Specialty,
		AvailableTimes: appointment.FormatTimesOfDay(d.AvailableTimes),
	}
}

type AvailabilityResponse struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Date           string    `json:"date"`
	AvailableTimes []string  `json:"available_times"`
}

type BookAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	AppointmentTime LocalTime `json:"appointment_time"`
}

type UpdateAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	AppointmentTime LocalTime `json:"appointment_time"`
	Status          string    `json:"status"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	AppointmentTime LocalTime `json:"appointment_time"`
	EndTime         LocalTime `json:"end_time"`
	Status          string    `json:"status"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		AppointmentTime: LocalTime(a.Time),
		EndTime:         LocalTime(a.EndTime()),
		Status:          a.Status.String(),
	}
}

type AppointmentViewResponse struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	PatientID       uuid.UUID `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	PatientEmail    string    `json:"patient_email"`
	PatientPhone    string    `json:"patient_phone"`
	PatientAddress  string    `json:"patient_address,omitempty"`
	AppointmentTime LocalTime `json:"appointment_time"`
	Status          string    `json:"status"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	EndTime         LocalTime `json:"end_time"`
}

func toViewResponses(views []appointment.AppointmentView) []AppointmentViewResponse {
	out := make([]AppointmentViewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, AppointmentViewResponse{
			ID:              v.ID,
			DoctorID:        v.DoctorID,
			DoctorName:      v.DoctorName,
			PatientID:       v.PatientID,
			PatientName:     v.PatientName,
			PatientEmail:    v.PatientEmail,
			PatientPhone:    v.PatientPhone,
			PatientAddress:  v.PatientAddress,
			AppointmentTime: LocalTime(v.AppointmentTime),
			Status:          v.Status.String(),
			Date:            appointment.FormatDate(v.Date),
			Time:            v.TimeOnly.String(),
			EndTime:         LocalTime(v.EndTime),
		})
	}
	return out
}

type PrescriptionRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Medication    string    `json:"medication"`
	Dosage        string    `json:"dosage"`
	DoctorNotes   string    `json:"doctor_notes"`
}

type PrescriptionResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientName   string    `json:"patient_name"`
	Medication    string    `json:"medication"`
	Dosage        string    `json:"dosage"`
	DoctorNotes   string    `json:"doctor_notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toPrescriptionResponse(p *prescription.Prescription) PrescriptionResponse {
	return PrescriptionResponse{
		ID:            p.ID,
		AppointmentID: p.AppointmentID,
		PatientName:   p.PatientName,
		Medication:    p.Medication,
		Dosage:        p.Dosage,
		DoctorNotes:   p.DoctorNotes,
		CreatedAt:     p.CreatedAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
