package api

import (
	"net/http"

	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
)

func loginHandler(svc LoginService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		role, err := auth.ParseRole(req.Role)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_role", "role must be admin, doctor or patient")
			return
		}

		token, err := svc.Login(r.Context(), role, req.Login, req.Password)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{AccessToken: token, TokenType: "Bearer"})
	}
}
