package api

import (
	"net/http"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
)

func registerPatientHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.RegisterPatient(r.Context(), appointment.PatientRegistration{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Address:  req.Address,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func getMeHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patient, _ := auth.PatientFromContext(r.Context())

		p, err := svc.GetPatient(r.Context(), patient.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

// historyHandler serves the caller's own appointments; the patient id never comes from the request.
func historyHandler(svc FilterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patient, _ := auth.PatientFromContext(r.Context())
		q := r.URL.Query()

		cond, err := appointment.ParseCondition(q.Get("condition"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		views, err := svc.FilterHistory(r.Context(), patient, appointment.HistoryFilter{
			Condition:  cond,
			DoctorName: q.Get("doctor"),
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toViewResponses(views))
	}
}
