package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
	"github.com/hackgods/clinic-appointment-scheduling/internal/prescription"
)

type AppointmentService interface {
	Book(ctx context.Context, req appointment.BookRequest) (*appointment.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, req appointment.UpdateRequest, patientID uuid.UUID) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id, patientID uuid.UUID) error
	Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]appointment.TimeOfDay, error)
	QueryForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName string) ([]appointment.AppointmentView, error)
}

type FilterService interface {
	FilterDoctors(ctx context.Context, filter appointment.DoctorFilter) ([]appointment.Doctor, error)
	FilterHistory(ctx context.Context, patient auth.Patient, filter appointment.HistoryFilter) ([]appointment.AppointmentView, error)
}

type DirectoryService interface {
	RegisterPatient(ctx context.Context, in appointment.PatientRegistration) (*appointment.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*appointment.Patient, error)
	CreateDoctor(ctx context.Context, in appointment.DoctorInput) (*appointment.Doctor, error)
	UpdateDoctor(ctx context.Context, id uuid.UUID, in appointment.DoctorInput) (*appointment.Doctor, error)
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
}

type PrescriptionService interface {
	Save(ctx context.Context, doctor auth.Doctor, in prescription.Input) (*prescription.Prescription, error)
	Get(ctx context.Context, doctor auth.Doctor, appointmentID uuid.UUID) (*prescription.Prescription, error)
}

type LoginService interface {
	Login(ctx context.Context, role auth.Role, login, password string) (string, error)
}

type RouterConfig struct {
	Appointments  AppointmentService
	Filters       FilterService
	Directory     DirectoryService
	Prescriptions PrescriptionService
	Login         LoginService
	Tokens        TokenResolver
	Health        *HealthHandler
	Logger        zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware)

	// Health endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	// Public endpoints
	r.Post("/auth/login", loginHandler(cfg.Login))
	r.Post("/patients", registerPatientHandler(cfg.Directory))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))

		r.Get("/doctors", listDoctorsHandler(cfg.Filters))
		r.Get("/doctors/{id}/availability", availabilityHandler(cfg.Appointments))

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(auth.RoleAdmin))
			r.Post("/doctors", createDoctorHandler(cfg.Directory))
			r.Put("/doctors/{id}", updateDoctorHandler(cfg.Directory))
			r.Delete("/doctors/{id}", deleteDoctorHandler(cfg.Directory))
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(auth.RolePatient))
			r.Get("/patients/me", getMeHandler(cfg.Directory))
			r.Get("/patients/me/appointments", historyHandler(cfg.Filters))
			r.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
			r.Put("/appointments/{id}", updateAppointmentHandler(cfg.Appointments))
			r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Appointments))
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(auth.RoleDoctor))
			r.Get("/appointments", doctorScheduleHandler(cfg.Appointments))
			r.Post("/prescriptions", savePrescriptionHandler(cfg.Prescriptions))
			r.Get("/prescriptions/{appointmentId}", getPrescriptionHandler(cfg.Prescriptions))
		})
	})

	return r
}
