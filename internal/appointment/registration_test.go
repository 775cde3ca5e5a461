package appointment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
)

func TestRegisterPatient(t *testing.T) {
	store := newMemStore()
	dir := NewDirectory(store, store, zerolog.Nop())
	ctx := context.Background()

	p, err := dir.RegisterPatient(ctx, PatientRegistration{
		Name: "Bob Jones", Email: "bob@example.com", Phone: "555-0100", Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("RegisterPatient() error: %v", err)
	}
	if !auth.CheckPassword(p.PasswordHash, "s3cret") {
		t.Fatalf("stored hash does not match password")
	}

	tests := []struct {
		name string
		in   PatientRegistration
		want error
	}{
		{"same email other phone", PatientRegistration{Name: "B", Email: "BOB@example.com", Phone: "555-0999", Password: "x"}, ErrPatientExists},
		{"same phone other email", PatientRegistration{Name: "B", Email: "b2@example.com", Phone: "555-0100", Password: "x"}, ErrPatientExists},
		{"bad email", PatientRegistration{Name: "B", Email: "nope", Phone: "555-0101", Password: "x"}, ErrInvalidPatient},
		{"no password", PatientRegistration{Name: "B", Email: "b3@example.com", Phone: "555-0102"}, ErrInvalidPatient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dir.RegisterPatient(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("RegisterPatient() err = %v, want %v", err, tt.want)
			}
		})
	}

	if len(store.patients) != 1 {
		t.Fatalf("store has %d patients, want 1", len(store.patients))
	}

	unique, err := dir.IsPatientUnique(ctx, "new@example.com", "555-0500")
	if err != nil || !unique {
		t.Fatalf("IsPatientUnique() = %v, %v; want true", unique, err)
	}
}

func TestDoctorRoster(t *testing.T) {
	store := newMemStore()
	dir := NewDirectory(store, store, zerolog.Nop())
	ctx := context.Background()

	in := DoctorInput{
		Name:           "Ann Smith",
		Email:          "ann@clinic.test",
		Specialty:      "Cardiology",
		AvailableTimes: []TimeOfDay{NewTimeOfDay(9, 0), NewTimeOfDay(15, 0)},
		Password:       "pw",
	}
	doc, err := dir.CreateDoctor(ctx, in)
	if err != nil {
		t.Fatalf("CreateDoctor() error: %v", err)
	}

	if _, err := dir.CreateDoctor(ctx, in); !errors.Is(err, ErrDoctorExists) {
		t.Fatalf("CreateDoctor(duplicate) err = %v, want ErrDoctorExists", err)
	}

	dup := in
	dup.Email = "other@clinic.test"
	dup.AvailableTimes = []TimeOfDay{NewTimeOfDay(9, 0), NewTimeOfDay(9, 0)}
	if _, err := dir.CreateDoctor(ctx, dup); !errors.Is(err, ErrInvalidDoctor) {
		t.Fatalf("CreateDoctor(repeated time) err = %v, want ErrInvalidDoctor", err)
	}

	oldHash := doc.PasswordHash
	in.Specialty = "Neurology"
	in.Password = ""
	updated, err := dir.UpdateDoctor(ctx, doc.ID, in)
	if err != nil {
		t.Fatalf("UpdateDoctor() error: %v", err)
	}
	if updated.Specialty != "Neurology" || updated.PasswordHash != oldHash {
		t.Fatalf("updated doctor = %+v", updated)
	}

	pat := store.addPatient("Bob", "bob@example.com", "555-0100")
	store.addAppointment(doc.ID, pat.ID, slotAt("2024-06-01", "09:00"), StatusScheduled)
	if err := dir.DeleteDoctor(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDoctor() error: %v", err)
	}
	if len(store.appointments) != 0 {
		t.Fatalf("appointments left after doctor delete: %d", len(store.appointments))
	}
	if err := dir.DeleteDoctor(ctx, uuid.New()); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("DeleteDoctor(missing) err = %v, want ErrDoctorNotFound", err)
	}
}
