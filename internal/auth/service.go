package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/avagut/dynamic-user-menus/internal"
	"github.com/avagut/dynamic-user-menus/internal/authz"
	"github.com/avagut/dynamic-user-menus/internal/core/events"
	userDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/user"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	Logout(userID int64)
	ConfirmEmail(ctx context.Context, token, newPassword string) error
	ResendConfirmation(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	HashPassword(password string) (string, error)
}

// RepositoryAPI is the credential/lifecycle slice of user storage the auth
// service needs. Lookups return nil without error when no row matches.
type RepositoryAPI interface {
	GetByUserName(ctx context.Context, userName string) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	StampLogin(ctx context.Context, userID int64, at time.Time) error
	ConfirmUser(ctx context.Context, userID int64, passwordHash string, at time.Time) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string, at time.Time) error
	StampConfirmationSent(ctx context.Context, userID int64, at time.Time) error
}

// RoleSource supplies the active role names of a user at login.
type RoleSource interface {
	RoleNamesForUser(ctx context.Context, userID int64) ([]string, error)
}

type Service struct {
	repo        RepositoryAPI
	roles       RoleSource
	sessions    *authz.SessionStore
	builder     *authz.IndexBuilder
	tokenGen    TokenGeneratorAPI
	emailTokens *EmailTokenGenerator
	bus         *events.EventBus
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	roles RoleSource,
	sessions *authz.SessionStore,
	builder *authz.IndexBuilder,
	tokenGen TokenGeneratorAPI,
	emailTokens *EmailTokenGenerator,
	bus *events.EventBus,
	bcryptCost int,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		roles:       roles,
		sessions:    sessions,
		builder:     builder,
		tokenGen:    tokenGen,
		emailTokens: emailTokens,
		bus:         bus,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// Authenticate validates credentials, stamps the login, seeds a fresh
// session with the user's roles and a newly built authorization index,
// and returns token pair.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	user, err := s.repo.GetByUserName(ctx, dto.UserName)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to look up user", err)
	}
	if user == nil || user.IsDeleted {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !user.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}
	if !user.IsConfirmed {
		return AuthTokens{}, internal.ErrUserUnconfirmed
	}

	if err := s.repo.StampLogin(ctx, user.ID, time.Now()); err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to stamp login", err)
	}

	roleNames, err := s.roles.RoleNamesForUser(ctx, user.ID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to load user roles", err)
	}

	// Seed the per-login session: fresh roles plus a freshly built index,
	// replacing any cache left over from a previous login.
	session := authz.NewSession(user.ID, roleNames)
	idx, err := s.builder.Build(ctx)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to build authorization index", err)
	}
	session.ReplaceIndex(idx)
	s.sessions.Put(session)

	accessToken, err := s.tokenGen.GenerateAccessToken(user.ID, user.UserName, roleNames)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate access token", err)
	}
	refreshToken, err := s.tokenGen.GenerateRefreshToken(user.ID, user.UserName)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate refresh token", err)
	}

	s.logger.Info("user authenticated", "user_id", user.ID, "user_name", user.UserName, "roles", roleNames)
	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RefreshTokens validates a refresh token and issues a new pair with the
// user's current role set.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.validateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	user, err := s.repo.GetByUserName(ctx, claims.UserName)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to look up user", err)
	}
	if user == nil || user.IsDeleted || !user.IsActive {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	roleNames, err := s.roles.RoleNamesForUser(ctx, user.ID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to load user roles", err)
	}

	accessToken, err := s.tokenGen.GenerateAccessToken(user.ID, user.UserName, roleNames)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate access token", err)
	}
	newRefreshToken, err := s.tokenGen.GenerateRefreshToken(user.ID, user.UserName)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate refresh token", err)
	}

	return AuthTokens{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGen.ValidateToken(tokenString)
}

func (s *Service) validateRefreshToken(tokenString string) (*Claims, error) {
	return s.tokenGen.ValidateRefreshToken(tokenString)
}

// Logout drops the user's session and its cached index. Dropping an absent
// session is a no-op.
func (s *Service) Logout(userID int64) {
	s.sessions.Remove(userID)
}

// ConfirmEmail finishes registration: the token proves ownership of the
// email address, the user sets their first password.
func (s *Service) ConfirmEmail(ctx context.Context, token, newPassword string) error {
	email, err := s.emailTokens.Verify(token, PurposeEmailConfirmation)
	if err != nil {
		return err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return internal.NewInternalError("failed to look up user", err)
	}
	if user == nil || user.IsDeleted {
		return internal.ErrUserNotFound
	}
	if user.IsConfirmed {
		return internal.ErrAlreadyConfirmed
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.ConfirmUser(ctx, user.ID, hash, time.Now()); err != nil {
		return internal.NewInternalError("failed to confirm user", err)
	}

	s.logger.Info("email confirmed", "user_id", user.ID, "email", email)
	return nil
}

// ResendConfirmation issues a fresh confirmation token for an unconfirmed
// account and publishes the notification event.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return internal.NewInternalError("failed to look up user", err)
	}
	if user == nil || user.IsDeleted {
		return internal.ErrUserNotFound
	}
	if user.IsConfirmed {
		return internal.ErrAlreadyConfirmed
	}

	token, err := s.emailTokens.Generate(user.Email, PurposeEmailConfirmation)
	if err != nil {
		return internal.NewInternalError("failed to generate confirmation token", err)
	}
	if err := s.repo.StampConfirmationSent(ctx, user.ID, time.Now()); err != nil {
		return internal.NewInternalError("failed to stamp confirmation", err)
	}

	fullName := fmt.Sprintf("%s %s", user.FirstName, user.LastName)
	event := events.NewConfirmationResentEvent(user.UserName, fullName, user.Email, token)
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish confirmation resent event", "error", err)
	}
	return nil
}

// RequestPasswordReset starts the forgotten-password flow. Only confirmed
// accounts qualify; anything else reports no matching confirmed address.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return internal.NewInternalError("failed to look up user", err)
	}
	if user == nil || user.IsDeleted || !user.IsConfirmed {
		return internal.NewNotFoundError("Email entered doesn't match any confirmed email address", internal.ErrCodeUserNotFound)
	}

	token, err := s.emailTokens.Generate(user.Email, PurposePasswordReset)
	if err != nil {
		return internal.NewInternalError("failed to generate reset token", err)
	}

	fullName := fmt.Sprintf("%s %s", user.FirstName, user.LastName)
	event := events.NewPasswordResetRequestedEvent(user.UserName, fullName, user.Email, token)
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish password reset event", "error", err)
	}
	return nil
}

// ResetPassword completes the forgotten-password flow from a valid token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.emailTokens.Verify(token, PurposePasswordReset)
	if err != nil {
		return err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return internal.NewInternalError("failed to look up user", err)
	}
	if user == nil || user.IsDeleted || !user.IsConfirmed {
		return internal.ErrInvalidToken
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash, time.Now()); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}

	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// HashPassword creates a bcrypt hash of the password.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateAccessToken creates a new access token carrying the role names.
func (j *JWTTokenGenerator) GenerateAccessToken(userID int64, userName string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		UserName: userName,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userName,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token.
func (j *JWTTokenGenerator) GenerateRefreshToken(userID int64, userName string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		UserName: userName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userName,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.RefreshTokenSecret)
}

// ValidateToken validates an access token and returns its claims.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.AccessTokenSecret)
}

// ValidateRefreshToken validates a refresh token and returns its claims.
func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) validate(tokenString string, secret []byte) (*Claims, error) {
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

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, internal.ErrInvalidToken
}
