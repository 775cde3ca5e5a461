package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PgRepository implements the doctor, patient and appointment repositories on Postgres.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const doctorColumns = `id, name, email, phone, specialty, available_times, password_hash, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var times []string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Email,
		&d.Phone,
		&d.Specialty,
		&times,
		&d.PasswordHash,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.AvailableTimes, err = ParseTimesOfDay(times)
	if err != nil {
		return nil, fmt.Errorf("doctor %s: %w", d.ID, err)
	}
	return &d, nil
}

const patientColumns = `id, name, email, phone, address, password_hash, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Address,
		&p.PasswordHash,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

const appointmentColumns = `a.id, a.doctor_id, a.patient_id, a.appointment_time, a.status, a.created_at, a.updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status int16

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Time,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Time = Naive(a.Time)
	a.Status = Status(status)
	return &a, nil
}

const detailQuery = `
	SELECT ` + appointmentColumns + `,
	       d.name, p.name, p.email, p.phone, p.address
	FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id
`

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	var status int16

	err := row.Scan(
		&d.ID,
		&d.DoctorID,
		&d.PatientID,
		&d.Time,
		&status,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.DoctorName,
		&d.PatientName,
		&d.PatientEmail,
		&d.PatientPhone,
		&d.PatientAddress,
	)
	if err != nil {
		return nil, err
	}

	d.Time = Naive(d.Time)
	d.Status = Status(status)
	return &d, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()

	var result []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// writeErr classifies unique violations so callers can map them to domain conflicts.
func writeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Doctors

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetDoctorByEmail(ctx context.Context, email string) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE lower(email) = lower($1)`, email)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+doctorColumns+` FROM doctors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDoctor)
}

func (r *PgRepository) FindDoctorsByName(ctx context.Context, nameContains string) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE name ILIKE $1
		ORDER BY name
	`, containsPattern(nameContains))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDoctor)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere in the value.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *PgRepository) FindDoctorsBySpecialty(ctx context.Context, specialty string) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE lower(specialty) = lower($1)
		ORDER BY name
	`, specialty)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDoctor)
}

func (r *PgRepository) CreateDoctor(ctx context.Context, d *Doctor) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, name, email, phone, specialty, available_times, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING created_at, updated_at
	`, d.ID, d.Name, d.Email, d.Phone, d.Specialty, FormatTimesOfDay(d.AvailableTimes), d.PasswordHash)

	if err := row.Scan(&d.CreatedAt, &d.UpdatedAt); err != nil {
		return writeErr("insert doctor", err)
	}
	return nil
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, d *Doctor) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET name = $2,
		    email = $3,
		    phone = $4,
		    specialty = $5,
		    available_times = $6,
		    password_hash = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, d.ID, d.Name, d.Email, d.Phone, d.Specialty, FormatTimesOfDay(d.AvailableTimes), d.PasswordHash)

	if err := row.Scan(&d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDoctorNotFound
		}
		return writeErr("update doctor", err)
	}
	return nil
}

func (r *PgRepository) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, id); err != nil {
			return fmt.Errorf("delete doctor appointments: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete doctor: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrDoctorNotFound
		}
		return nil
	})
}

// Patients

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientByEmail(ctx context.Context, email string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE lower(email) = lower($1)`, email)
	return scanPatient(row)
}

func (r *PgRepository) FindPatientByEmailOrPhone(ctx context.Context, email, phone string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE lower(email) = lower($1) OR phone = $2
		LIMIT 1
	`, email, phone)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, email, phone, address, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Email, p.Phone, p.Address, p.PasswordHash)

	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return writeErr("insert patient", err)
	}
	return nil
}

// Appointments

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments a WHERE a.id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.doctor_id = $1
		  AND a.appointment_time >= $2
		  AND a.appointment_time < $3
		ORDER BY a.appointment_time
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAppointment)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, appointment_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`, a.ID, a.DoctorID, a.PatientID, a.Time, int16(a.Status))

	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return writeErr("insert appointment", err)
	}
	return nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    appointment_time = $3,
		    status = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, a.ID, a.DoctorID, a.Time, int16(a.Status))

	if err := row.Scan(&a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		return writeErr("update appointment", err)
	}
	return nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, int16(status))
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) ListDoctorDetailsBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailQuery+`
		WHERE a.doctor_id = $1
		  AND a.appointment_time >= $2
		  AND a.appointment_time < $3
		ORDER BY a.appointment_time
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDetail)
}

func (r *PgRepository) ListPatientDetails(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailQuery+`
		WHERE a.patient_id = $1
		ORDER BY a.appointment_time
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDetail)
}

func (r *PgRepository) ListDetailsBetween(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailQuery+`
		WHERE a.appointment_time >= $1
		  AND a.appointment_time < $2
		ORDER BY a.appointment_time
	`, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDetail)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
