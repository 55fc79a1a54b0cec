package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avagut/dynamic-user-menus/internal"
)

// TokenPurpose scopes an email token to one flow, so a confirmation token
// can never be replayed as a password reset.
type TokenPurpose string

const (
	PurposeEmailConfirmation TokenPurpose = "email-confirmation"
	PurposePasswordReset     TokenPurpose = "password-reset"
)

type emailClaims struct {
	Email   string       `json:"email"`
	Purpose TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// EmailTokenGenerator signs short-lived tokens embedded in confirmation
// and password-reset links.
type EmailTokenGenerator struct {
	Secret []byte
	TTL    time.Duration
}

func NewEmailTokenGenerator(secret string, ttl time.Duration) *EmailTokenGenerator {
	return &EmailTokenGenerator{
		Secret: []byte(secret),
		TTL:    ttl,
	}
}

// Generate returns a signed token binding the email address to one purpose.
func (g *EmailTokenGenerator) Generate(email string, purpose TokenPurpose) (string, error) {
	now := time.Now()
	claims := &emailClaims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(g.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   email,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.Secret)
}

// Verify checks the signature, expiry and purpose, and returns the email
// the token was issued for.
func (g *EmailTokenGenerator) Verify(tokenString string, purpose TokenPurpose) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &emailClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return g.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", internal.ErrTokenExpired
		}
		return "", internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*emailClaims)
	if !ok || !token.Valid {
		return "", internal.ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return "", internal.ErrInvalidToken
	}
	return claims.Email, nil
}
