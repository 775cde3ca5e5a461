package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownRole        = errors.New("unknown role")
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return r, nil
	}
	return "", ErrUnknownRole
}

// Principal is the resolved caller. It is exactly one of Admin, Doctor or Patient.
type Principal interface {
	Role() Role
	isPrincipal()
}

type Admin struct {
	Username string
}

type Doctor struct {
	ID uuid.UUID
}

type Patient struct {
	ID uuid.UUID
}

func (Admin) Role() Role   { return RoleAdmin }
func (Doctor) Role() Role  { return RoleDoctor }
func (Patient) Role() Role { return RolePatient }

func (Admin) isPrincipal()   {}
func (Doctor) isPrincipal()  {}
func (Patient) isPrincipal() {}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func PatientFromContext(ctx context.Context) (Patient, bool) {
	p, _ := FromContext(ctx)
	patient, ok := p.(Patient)
	return patient, ok
}

func DoctorFromContext(ctx context.Context) (Doctor, bool) {
	p, _ := FromContext(ctx)
	doctor, ok := p.(Doctor)
	return doctor, ok
}
