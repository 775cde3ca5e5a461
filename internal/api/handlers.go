package api

import (
	"net/http"
	"strings"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
)

func bookAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patient, _ := auth.PatientFromContext(r.Context())

		var req BookAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		appt, err := svc.Book(r.Context(), appointment.BookRequest{
			DoctorID:  req.DoctorID,
			PatientID: patient.ID,
			Time:      req.AppointmentTime.Time(),
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patient, _ := auth.PatientFromContext(r.Context())

		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		status, err := parseStatus(req.Status)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		appt, err := svc.Update(r.Context(), id, appointment.UpdateRequest{
			DoctorID: req.DoctorID,
			Time:     req.AppointmentTime.Time(),
			Status:   status,
		}, patient.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patient, _ := auth.PatientFromContext(r.Context())

		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		if err := svc.Cancel(r.Context(), id, patient.ID); err != nil {
			writeServiceError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func doctorScheduleHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctor, _ := auth.DoctorFromContext(r.Context())

		date, err := appointment.ParseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must look like 2006-01-02")
			return
		}

		views, err := svc.QueryForDoctorOnDate(r.Context(), doctor.ID, date, strings.TrimSpace(r.URL.Query().Get("patient_name")))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toViewResponses(views))
	}
}

func availabilityHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		date, err := appointment.ParseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must look like 2006-01-02")
			return
		}

		free, err := svc.Availability(r.Context(), doctorID, date)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			DoctorID:       doctorID,
			Date:           appointment.FormatDate(date),
			AvailableTimes: appointment.FormatTimesOfDay(free),
		})
	}
}
