package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/gearguard/internal"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	Register(dto RegisterDTO) (*User, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ResolveUser(claims *Claims) (*User, error)
}

type RepositoryAPI interface {
	GetCredentials(email string) (passwordHash string, user *User, err error)
	GetUserByID(userID int64) (*User, error)
	EmailExists(email string) (bool, error)
	CreateUser(user *User, passwordHash string) error
}

type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	storedHash, user, err := s.repo.GetCredentials(dto.Email)
	if err != nil {
		s.logger.Warn("login failed: unknown email", "email", dto.Email)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(storedHash, dto.Password); err != nil {
		s.logger.Warn("login failed: wrong password", "user_id", user.ID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Register creates a REQUESTER unless another non-admin role is asked for.
// Admins are provisioned by seeding only.
func (s *Service) Register(dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role := coreUser.RoleRequester
	if dto.Role != "" {
		role = coreUser.Role(dto.Role)
	}
	if role == coreUser.RoleAdmin {
		return nil, internal.ErrRoleNotAllowed.WithDetails(map[string]string{"field": "role"})
	}

	exists, err := s.repo.EmailExists(dto.Email)
	if err != nil {
		return nil, internal.NewPersistenceError("failed to check email", err)
	}
	if exists {
		return nil, internal.NewConflictError("email is already registered", internal.ErrCodeDuplicate)
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	user := &User{Name: dto.Name, Email: dto.Email, Role: role, IsActive: true}
	if err := s.repo.CreateUser(user, hash); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, internal.NewPersistenceError("failed to create user", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken, TokenKindRefresh)
	if err != nil {
		return AuthTokens{}, err
	}

	user, err := s.ResolveUser(claims)
	if err != nil {
		return AuthTokens{}, err
	}

	return s.issue(user)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString, TokenKindAccess)
}

// ResolveUser reloads the user behind a token so that deactivated accounts
// and role changes take effect before the token expires.
func (s *Service) ResolveUser(claims *Claims) (*User, error) {
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	user, err := s.repo.GetUserByID(id)
	if err != nil {
		if internal.IsNotFound(err) {
			return nil, internal.ErrInvalidToken
		}
		return nil, internal.NewPersistenceError("failed to load user", err)
	}
	if !user.IsActive {
		return nil, internal.ErrInvalidToken
	}
	return user, nil
}

func (s *Service) issue(user *User) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(user)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(user)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	var expiresIn int64
	if gen, ok := s.tokenGenerator.(*JWTTokenGenerator); ok {
		expiresIn = int64(gen.AccessTokenTTL.Seconds())
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func (j *JWTTokenGenerator) GenerateAccessToken(user *User) (string, error) {
	return j.sign(user, TokenKindAccess, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(user *User) (string, error) {
	return j.sign(user, TokenKindRefresh, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(user *User, kind TokenKind, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	userID := strconv.FormatInt(user.ID, 10)

	claims := &Claims{
		UserID: userID,
		Email:  user.Email,
		Role:   string(user.Role),
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (j *JWTTokenGenerator) ValidateToken(tokenString string, kind TokenKind) (*Claims, error) {
	secret := j.AccessTokenSecret
	if kind == TokenKindRefresh {
		secret = j.RefreshTokenSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Kind != kind {
		return nil, internal.ErrInvalidToken
	}
	if _, valid := coreUser.ParseRole(claims.Role); !valid {
		return nil, internal.ErrInvalidToken
	}

	return claims, nil
}
