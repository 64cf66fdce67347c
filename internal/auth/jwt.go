package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims are the claims embedded in a signed token
type TokenClaims struct {
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

type jwtClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 tokens signed with a process-wide
// secret.
type JWTService struct {
	secret []byte
}

func NewJWTService(secret []byte) (*JWTService, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret must not be empty")
	}
	return &JWTService{secret: secret}, nil
}

// CreateToken generates a signed token embedding the email claim and an
// absolute expiry ttl from now.
func (s *JWTService) CreateToken(email string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwtClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken checks signature integrity first, then expiry. Tampered or
// malformed tokens fail closed as ErrInvalidToken; a correctly signed but
// expired token is surfaced as ErrExpiredToken so callers can distinguish
// "link expired" from "not a real token".
func (s *JWTService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	claims := new(jwtClaims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	var issuedAt, expiresAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &TokenClaims{
		Email:     claims.Email,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
