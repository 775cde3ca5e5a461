package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgCredentialStore struct {
	pool *pgxpool.Pool
}

func NewPgCredentialStore(pool *pgxpool.Pool) *PgCredentialStore {
	return &PgCredentialStore{pool: pool}
}

func (s *PgCredentialStore) LookupCredentials(ctx context.Context, role Role, login string) (*Credentials, error) {
	var query string
	switch role {
	case RoleAdmin:
		query = `SELECT username, '', password_hash FROM admins WHERE username = $1`
	case RoleDoctor:
		query = `SELECT id::text, email, password_hash FROM doctors WHERE lower(email) = lower($1)`
	case RolePatient:
		query = `SELECT id::text, email, password_hash FROM patients WHERE lower(email) = lower($1)`
	default:
		return nil, ErrUnknownRole
	}

	var c Credentials
	err := s.pool.QueryRow(ctx, query, login).Scan(&c.Subject, &c.Email, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialsNotFound
		}
		return nil, err
	}
	return &c, nil
}
