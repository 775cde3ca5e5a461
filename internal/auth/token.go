package auth

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "clinic-scheduling"

type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and resolves HS256 access tokens.
type Tokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokens(key []byte, ttl time.Duration) *Tokens {
	return &Tokens{key: key, ttl: ttl, now: time.Now}
}

func subject(p Principal) string {
	switch v := p.(type) {
	case Admin:
		return v.Username
	case Doctor:
		return v.ID.String()
	case Patient:
		return v.ID.String()
	}
	return ""
}

func (t *Tokens) Issue(p Principal, email string) (string, error) {
	now := t.now()
	claims := Claims{
		Role:  string(p.Role()),
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject(p),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Resolve verifies a token and turns its claims into a Principal.
func (t *Tokens) Resolve(token string) (Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, ErrInvalidToken
	}

	switch role {
	case RoleAdmin:
		if claims.Subject == "" {
			return nil, ErrInvalidToken
		}
		return Admin{Username: claims.Subject}, nil
	case RoleDoctor, RolePatient:
		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			return nil, ErrInvalidToken
		}
		if role == RoleDoctor {
			return Doctor{ID: id}, nil
		}
		return Patient{ID: id}, nil
	}
	return nil, ErrInvalidToken
}
