package appointment

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
)

var (
	ErrPatientExists  = errors.New("a patient with this email or phone already exists")
	ErrDoctorExists   = errors.New("a doctor with this email already exists")
	ErrInvalidPatient = errors.New("invalid patient")
	ErrInvalidDoctor  = errors.New("invalid doctor")
)

type PatientRegistration struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
}

type DoctorInput struct {
	Name           string
	Email          string
	Phone          string
	Specialty      string
	AvailableTimes []TimeOfDay
	Password       string // empty on update keeps the current password
}

// Directory registers patients and maintains the doctor roster.
type Directory struct {
	doctors  DoctorRepository
	patients PatientRepository
	log      zerolog.Logger
}

func NewDirectory(doctors DoctorRepository, patients PatientRepository, log zerolog.Logger) *Directory {
	return &Directory{
		doctors:  doctors,
		patients: patients,
		log:      log.With().Str("component", "directory").Logger(),
	}
}

// IsPatientUnique reports whether neither email nor phone is registered yet.
func (d *Directory) IsPatientUnique(ctx context.Context, email, phone string) (bool, error) {
	_, err := d.patients.FindPatientByEmailOrPhone(ctx, email, phone)
	if errors.Is(err, ErrPatientNotFound) {
		return true, nil
	}
	if err != nil {
		return false, storeErr("find patient", err)
	}
	return false, nil
}

func (d *Directory) RegisterPatient(ctx context.Context, in PatientRegistration) (*Patient, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Phone == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, phone and password are required", ErrInvalidPatient)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: email %q", ErrInvalidPatient, in.Email)
	}

	unique, err := d.IsPatientUnique(ctx, in.Email, in.Phone)
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, ErrPatientExists
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      strings.TrimSpace(in.Address),
		PasswordHash: hash,
	}
	if err := d.patients.CreatePatient(ctx, p); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrPatientExists
		}
		return nil, storeErr("create patient", err)
	}

	d.log.Info().Stringer("patient_id", p.ID).Msg("patient registered")
	return p, nil
}

func (d *Directory) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := d.patients.GetPatientByID(ctx, id)
	if err != nil {
		return nil, storeErr("load patient", err)
	}
	return p, nil
}

func validateDoctor(in *DoctorInput, requirePassword bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Specialty = strings.TrimSpace(in.Specialty)
	if in.Name == "" || in.Specialty == "" {
		return fmt.Errorf("%w: name and specialty are required", ErrInvalidDoctor)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: email %q", ErrInvalidDoctor, in.Email)
	}
	if requirePassword && in.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidDoctor)
	}

	seen := make(map[TimeOfDay]struct{}, len(in.AvailableTimes))
	for _, t := range in.AvailableTimes {
		if t < 0 || t >= 24*60 {
			return fmt.Errorf("%w: time %d out of range", ErrInvalidDoctor, int(t))
		}
		if _, ok := seen[t]; ok {
			return fmt.Errorf("%w: available time %s listed twice", ErrInvalidDoctor, t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

func (d *Directory) CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	if err := validateDoctor(&in, true); err != nil {
		return nil, err
	}

	if _, err := d.doctors.GetDoctorByEmail(ctx, in.Email); err == nil {
		return nil, ErrDoctorExists
	} else if !errors.Is(err, ErrDoctorNotFound) {
		return nil, storeErr("find doctor", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	doc := &Doctor{
		ID:             uuid.New(),
		Name:           in.Name,
		Email:          in.Email,
		Phone:          strings.TrimSpace(in.Phone),
		Specialty:      in.Specialty,
		AvailableTimes: in.AvailableTimes,
		PasswordHash:   hash,
	}
	if err := d.doctors.CreateDoctor(ctx, doc); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrDoctorExists
		}
		return nil, storeErr("create doctor", err)
	}

	d.log.Info().Stringer("doctor_id", doc.ID).Msg("doctor created")
	return doc, nil
}

func (d *Directory) UpdateDoctor(ctx context.Context, id uuid.UUID, in DoctorInput) (*Doctor, error) {
	if err := validateDoctor(&in, false); err != nil {
		return nil, err
	}

	doc, err := d.doctors.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, storeErr("load doctor", err)
	}

	if !strings.EqualFold(doc.Email, in.Email) {
		other, err := d.doctors.GetDoctorByEmail(ctx, in.Email)
		if err == nil && other.ID != id {
			return nil, ErrDoctorExists
		}
		if err != nil && !errors.Is(err, ErrDoctorNotFound) {
			return nil, storeErr("find doctor", err)
		}
	}

	doc.Name = in.Name
	doc.Email = in.Email
	doc.Phone = strings.TrimSpace(in.Phone)
	doc.Specialty = in.Specialty
	doc.AvailableTimes = in.AvailableTimes
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		doc.PasswordHash = hash
	}

	if err := d.doctors.UpdateDoctor(ctx, doc); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrDoctorExists
		}
		return nil, storeErr("update doctor", err)
	}
	return doc, nil
}

// DeleteDoctor removes the doctor together with their appointments.
func (d *Directory) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := d.doctors.DeleteDoctor(ctx, id); err != nil {
		return storeErr("delete doctor", err)
	}
	d.log.Info().Stringer("doctor_id", id).Msg("doctor deleted")
	return nil
}

func (d *Directory) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	doc, err := d.doctors.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, storeErr("load doctor", err)
	}
	return doc, nil
}
