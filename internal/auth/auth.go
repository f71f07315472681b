package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenGeneratorAPI creates and validates signed tokens.
type TokenGeneratorAPI interface {
	GenerateAccessToken(user *User) (token string, err error)
	GenerateRefreshToken(user *User) (token string, err error)
	ValidateToken(tokenString string, kind TokenKind) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims carries the identity boundary: who the caller is and which role they hold.
type Claims struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	Kind   TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}
