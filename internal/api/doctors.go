package api

import (
	"net/http"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
)

func listDoctorsHandler(svc FilterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		period, err := appointment.ParsePeriod(q.Get("time"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		doctors, err := svc.FilterDoctors(r.Context(), appointment.DoctorFilter{
			Name:      q.Get("name"),
			Specialty: q.Get("specialty"),
			Period:    period,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for i := range doctors {
			resp = append(resp, toDoctorResponse(&doctors[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createDoctorHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in, err := req.toInput()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		doc, err := svc.CreateDoctor(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDoctorResponse(doc))
	}
}

func updateDoctorHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		var req DoctorRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in, err := req.toInput()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		doc, err := svc.UpdateDoctor(r.Context(), id, in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toDoctorResponse(doc))
	}
}

func deleteDoctorHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteDoctor(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
