package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
	"github.com/hackgods/clinic-appointment-scheduling/internal/prescription"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: specific not-found errors come before the generic one.
var errorMappings = []errorMapping{
	{appointment.ErrInvalidFilter, http.StatusBadRequest, "invalid_filter"},
	{appointment.ErrInvalidAppointment, http.StatusBadRequest, "invalid_appointment"},
	{appointment.ErrInvalidPatient, http.StatusBadRequest, "invalid_patient"},
	{appointment.ErrInvalidDoctor, http.StatusBadRequest, "invalid_doctor"},
	{prescription.ErrInvalid, http.StatusBadRequest, "invalid_prescription"},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{appointment.ErrForbidden, http.StatusForbidden, "forbidden"},
	{prescription.ErrForbidden, http.StatusForbidden, "forbidden"},

	{appointment.ErrDoctorNotFound, http.StatusNotFound, "doctor_not_found"},
	{appointment.ErrPatientNotFound, http.StatusNotFound, "patient_not_found"},
	{appointment.ErrAppointmentNotFound, http.StatusNotFound, "appointment_not_found"},
	{prescription.ErrNotFound, http.StatusNotFound, "prescription_not_found"},
	{appointment.ErrNotFound, http.StatusNotFound, "not_found"},

	{appointment.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
	{appointment.ErrSlotBusy, http.StatusConflict, "slot_being_booked"},
	{appointment.ErrInvalidTransition, http.StatusConflict, "invalid_status_transition"},
	{appointment.ErrPatientExists, http.StatusConflict, "patient_exists"},
	{appointment.ErrDoctorExists, http.StatusConflict, "doctor_exists"},
	{prescription.ErrExists, http.StatusConflict, "prescription_exists"},
}

// writeServiceError translates a service error into its HTTP status. Anything
// unclassified is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}

	zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
}
