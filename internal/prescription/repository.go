package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("prescription not found")
	ErrExists   = errors.New("appointment already has a prescription")
)

type Repository interface {
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
	Create(ctx context.Context, p *Prescription) error
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	var p Prescription
	err := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, patient_name, medication, dosage, doctor_notes, created_at
		FROM prescriptions
		WHERE appointment_id = $1
	`, appointmentID).Scan(
		&p.ID,
		&p.AppointmentID,
		&p.PatientName,
		&p.Medication,
		&p.Dosage,
		&p.DoctorNotes,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	return &p, nil
}

func (r *PgRepository) Create(ctx context.Context, p *Prescription) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO prescriptions (id, appointment_id, patient_name, medication, dosage, doctor_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at
	`, p.ID, p.AppointmentID, p.PatientName, p.Medication, p.Dosage, p.DoctorNotes).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrExists
		}
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}
