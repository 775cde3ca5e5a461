package api

import (
	"net/http"

	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
	"github.com/hackgods/clinic-appointment-scheduling/internal/prescription"
)

func savePrescriptionHandler(svc PrescriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctor, _ := auth.DoctorFromContext(r.Context())

		var req PrescriptionRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.Save(r.Context(), doctor, prescription.Input{
			AppointmentID: req.AppointmentID,
			Medication:    req.Medication,
			Dosage:        req.Dosage,
			DoctorNotes:   req.DoctorNotes,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPrescriptionResponse(p))
	}
}

func getPrescriptionHandler(svc PrescriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctor, _ := auth.DoctorFromContext(r.Context())

		id, ok := uuidParam(w, r, "appointmentId")
		if !ok {
			return
		}

		p, err := svc.Get(r.Context(), doctor, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toPrescriptionResponse(p))
	}
}
