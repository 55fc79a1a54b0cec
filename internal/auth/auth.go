package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenGeneratorAPI creates and validates access/refresh tokens.
type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, userName string, roles []string) (string, error)
	GenerateRefreshToken(userID int64, userName string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims carries the authenticated identity in the access token. Roles are
// the user's active role names at login time.
type Claims struct {
	UserID   int64    `json:"user_id"`
	UserName string   `json:"user_name"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}
