package role

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avagut/dynamic-user-menus/internal"
	roleDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/role"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateRoleDTO, actor int64) (*Role, error)
	Update(ctx context.Context, id int64, dto UpdateRoleDTO, actor int64) (*Role, error)
	Get(ctx context.Context, id int64) (*Role, error)
	Search(ctx context.Context, params SearchParams) ([]*Role, error)
	AssignableForUser(ctx context.Context, userID int64) ([]*Role, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, dto CreateRoleDTO, actor int64) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	model := &roleDatamodel.Role{
		RoleName:        dto.RoleName,
		RoleDescription: dto.RoleDescription,
		IsActive:        true,
		IsDefault:       dto.IsDefault,
		CreatedBy:       &actor,
		CreatedAt:       now,
	}

	if err := s.repo.Create(ctx, model); err != nil {
		var appErr *internal.AppError
		if errors.As(err, &appErr) && appErr.Code == internal.ErrCodeDuplicateKey {
			return nil, internal.NewConflictError("A role with that name already exists", internal.ErrCodeDuplicateKey)
		}
		s.logger.Error("failed to create role", "role_name", dto.RoleName, "error", err)
		return nil, internal.NewInternalError("failed to create role", err)
	}

	s.logger.Info("role created", "role_id", model.ID, "role_name", model.RoleName, "created_by", actor)
	return FromDataModel(model), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateRoleDTO, actor int64) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up role", err)
	}
	if model == nil {
		return nil, internal.ErrRoleNotFound
	}

	now := time.Now()
	model.RoleName = dto.RoleName
	model.RoleDescription = dto.RoleDescription
	if dto.IsActive != nil {
		model.IsActive = *dto.IsActive
	}
	if dto.IsDefault != nil {
		model.IsDefault = *dto.IsDefault
	}
	model.ModifiedBy = &actor
	model.LastModifiedAt = &now

	if err := s.repo.Update(ctx, model); err != nil {
		var appErr *internal.AppError
		if errors.As(err, &appErr) && appErr.Code == internal.ErrCodeDuplicateKey {
			return nil, internal.NewConflictError("A role with that name already exists", internal.ErrCodeDuplicateKey)
		}
		s.logger.Error("failed to update role", "role_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update role", err)
	}

	return FromDataModel(model), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up role", err)
	}
	if model == nil {
		return nil, internal.ErrRoleNotFound
	}
	return FromDataModel(model), nil
}

func (s *Service) Search(ctx context.Context, params SearchParams) ([]*Role, error) {
	models, err := s.repo.Search(ctx, params)
	if err != nil {
		s.logger.Error("failed to search roles", "error", err)
		return nil, internal.NewInternalError("failed to search roles", err)
	}

	roles := make([]*Role, 0, len(models))
	for _, m := range models {
		roles = append(roles, FromDataModel(m))
	}
	return roles, nil
}

// AssignableForUser lists active roles the user could still be assigned:
// default roles and roles already held are excluded.
func (s *Service) AssignableForUser(ctx context.Context, userID int64) ([]*Role, error) {
	models, err := s.repo.AssignableForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list assignable roles", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to list assignable roles", err)
	}

	roles := make([]*Role, 0, len(models))
	for _, m := range models {
		roles = append(roles, FromDataModel(m))
	}
	return roles, nil
}
