package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrCredentialsNotFound = errors.New("credentials not found")

type Credentials struct {
	Subject      string // admin username, or doctor/patient id
	Email        string
	PasswordHash string
}

type CredentialStore interface {
	LookupCredentials(ctx context.Context, role Role, login string) (*Credentials, error)
}

type Authenticator struct {
	store  CredentialStore
	tokens *Tokens
}

func NewAuthenticator(store CredentialStore, tokens *Tokens) *Authenticator {
	return &Authenticator{store: store, tokens: tokens}
}

// Login checks a password and returns a signed access token.
// Unknown logins and wrong passwords both yield ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, role Role, login, password string) (string, error) {
	creds, err := a.store.LookupCredentials(ctx, role, login)
	if err != nil {
		if errors.Is(err, ErrCredentialsNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup credentials: %w", err)
	}

	if !CheckPassword(creds.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	p, err := principalFor(role, creds.Subject)
	if err != nil {
		return "", err
	}
	return a.tokens.Issue(p, creds.Email)
}

func principalFor(role Role, sub string) (Principal, error) {
	if role == RoleAdmin {
		return Admin{Username: sub}, nil
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}
	if role == RoleDoctor {
		return Doctor{ID: id}, nil
	}
	return Patient{ID: id}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
