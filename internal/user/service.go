package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avagut/dynamic-user-menus/internal"
	"github.com/avagut/dynamic-user-menus/internal/auth"
	"github.com/avagut/dynamic-user-menus/internal/core/events"
	userDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/user"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateUserDTO, actor int64) (*User, error)
	Update(ctx context.Context, id int64, dto UpdateUserDTO, actor int64) (*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	Search(ctx context.Context, params SearchParams) ([]*User, error)
	Delete(ctx context.Context, id, actor int64) error
	ActiveRoles(ctx context.Context, userID int64) ([]RoleSummary, error)
}

type Service struct {
	repo        RepositoryAPI
	emailTokens *auth.EmailTokenGenerator
	bus         *events.EventBus
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, emailTokens *auth.EmailTokenGenerator, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		emailTokens: emailTokens,
		bus:         bus,
		logger:      logger,
	}
}

// Create registers an account with no password; the welcome notification
// carries a confirmation token the user follows to set one.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO, actor int64) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	model := &userDatamodel.User{
		UserName:           dto.UserName,
		FirstName:          dto.FirstName,
		LastName:           dto.LastName,
		Email:              dto.Email,
		IsActive:           true,
		ConfirmationSentAt: &now,
		CreatedBy:          &actor,
		CreatedAt:          now,
	}

	if err := s.repo.Create(ctx, model); err != nil {
		var appErr *internal.AppError
		if errors.As(err, &appErr) && appErr.Code == internal.ErrCodeDuplicateKey {
			return nil, internal.NewConflictError("A user with that username or email already exists", internal.ErrCodeDuplicateKey)
		}
		s.logger.Error("failed to create user", "user_name", dto.UserName, "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	token, err := s.emailTokens.Generate(model.Email, auth.PurposeEmailConfirmation)
	if err != nil {
		s.logger.Error("failed to generate confirmation token", "user_id", model.ID, "error", err)
	} else {
		fullName := fmt.Sprintf("%s %s", model.FirstName, model.LastName)
		event := events.NewUserCreatedEvent(model.ID, model.UserName, fullName, model.Email, token)
		if err := s.bus.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish user created event", "user_id", model.ID, "error", err)
		}
	}

	s.logger.Info("user created", "user_id", model.ID, "user_name", model.UserName, "created_by", actor)
	return FromDataModel(model), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO, actor int64) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if model == nil || model.IsDeleted {
		return nil, internal.ErrUserNotFound
	}

	now := time.Now()
	model.FirstName = dto.FirstName
	model.LastName = dto.LastName
	model.Email = dto.Email
	if dto.IsActive != nil {
		model.IsActive = *dto.IsActive
	}
	model.ModifiedBy = &actor
	model.LastModifiedAt = &now

	if err := s.repo.Update(ctx, model); err != nil {
		var appErr *internal.AppError
		if errors.As(err, &appErr) && appErr.Code == internal.ErrCodeDuplicateKey {
			return nil, internal.NewConflictError("A user with that email already exists", internal.ErrCodeDuplicateKey)
		}
		s.logger.Error("failed to update user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update user", err)
	}

	return FromDataModel(model), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if model == nil || model.IsDeleted {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(model), nil
}

func (s *Service) Search(ctx context.Context, params SearchParams) ([]*User, error) {
	models, err := s.repo.Search(ctx, params)
	if err != nil {
		s.logger.Error("failed to search users", "error", err)
		return nil, internal.NewInternalError("failed to search users", err)
	}

	users := make([]*User, 0, len(models))
	for _, m := range models {
		users = append(users, FromDataModel(m))
	}
	return users, nil
}

// Delete soft-deletes the account. The row is kept for audit history.
func (s *Service) Delete(ctx context.Context, id, actor int64) error {
	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to look up user", err)
	}
	if model == nil || model.IsDeleted {
		return internal.ErrUserNotFound
	}

	if err := s.repo.SoftDelete(ctx, id, actor, time.Now()); err != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", err)
		return internal.NewInternalError("failed to delete user", err)
	}

	s.logger.Info("user deleted", "user_id", id, "deleted_by", actor)
	return nil
}

// ActiveRoles lists the user's active role assignments with descriptions.
func (s *Service) ActiveRoles(ctx context.Context, userID int64) ([]RoleSummary, error) {
	model, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if model == nil || model.IsDeleted {
		return nil, internal.ErrUserNotFound
	}

	roles, err := s.repo.ActiveRoles(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user roles", err)
	}
	return roles, nil
}
