package users

import (
	"fmt"
	"time"

	"ride-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	verificationType = "email_confirmation"
	verificationTTL  = 3 * 24 * time.Hour
)

type verificationClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// SignVerificationToken issues the HS256 token embedded in the signup email.
func SignVerificationToken(secret []byte, userID uuid.UUID, now time.Time) (string, error) {
	claims := verificationClaims{
		Type: verificationType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(verificationTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseVerificationToken returns the user the token was issued for.
func ParseVerificationToken(secret []byte, token string, now time.Time) (uuid.UUID, error) {
	var claims verificationClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.Type != verificationType {
		return uuid.Nil, domain.ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}
