package menu

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avagut/dynamic-user-menus/internal"
	menuDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/menu"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateMenuDTO, actor int64) (*Menu, error)
	Update(ctx context.Context, id int64, dto UpdateMenuDTO, actor int64) (*Menu, error)
	Get(ctx context.Context, id int64) (*Menu, error)
	Search(ctx context.Context, params SearchParams) ([]*Menu, error)
	ListActive(ctx context.Context) ([]*Menu, error)
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

func (s *Service) Create(ctx context.Context, dto CreateMenuDTO, actor int64) (*Menu, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	model := &menuDatamodel.Menu{
		MenuURL:   dto.MenuURL,
		MenuName:  dto.MenuName,
		MenuText:  dto.MenuText,
		IsActive:  true,
		CreatedBy: &actor,
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, model); err != nil {
		var appErr *internal.AppError
		if errors.As(err, &appErr) && appErr.Code == internal.ErrCodeDuplicateKey {
			return nil, internal.NewConflictError("A menu with that url or name already exists", internal.ErrCodeDuplicateKey)
		}
		s.logger.Error("failed to create menu", "menu_url", dto.MenuURL, "error", err)
		return nil, internal.NewInternalError("failed to create menu", err)
	}

	s.logger.Info("menu created", "menu_id", model.ID, "menu_url", model.MenuURL, "created_by", actor)
	return FromDataModel(model), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateMenuDTO, actor int64) (*Menu, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up menu", err)
	}
	if model == nil {
		return nil, internal.ErrMenuNotFound
	}

	now := time.Now()
	model.MenuURL = dto.MenuURL
	model.MenuName = dto.MenuName
	model.MenuText = dto.MenuText
	if dto.IsActive != nil {
		model.IsActive = *dto.IsActive
	}
	model.ModifiedBy = &actor
	model.LastModifiedAt = &now

	if err := s.repo.Update(ctx, model); err != nil {
		var appErr *internal.AppError
		if errors.As(err, &appErr) && appErr.Code == internal.ErrCodeDuplicateKey {
			return nil, internal.NewConflictError("A menu with that url or name already exists", internal.ErrCodeDuplicateKey)
		}
		s.logger.Error("failed to update menu", "menu_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update menu", err)
	}

	return FromDataModel(model), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Menu, error) {
	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up menu", err)
	}
	if model == nil {
		return nil, internal.ErrMenuNotFound
	}
	return FromDataModel(model), nil
}

func (s *Service) Search(ctx context.Context, params SearchParams) ([]*Menu, error) {
	models, err := s.repo.Search(ctx, params)
	if err != nil {
		s.logger.Error("failed to search menus", "error", err)
		return nil, internal.NewInternalError("failed to search menus", err)
	}

	menus := make([]*Menu, 0, len(models))
	for _, m := range models {
		menus = append(menus, FromDataModel(m))
	}
	return menus, nil
}

// ListActive lists the menus currently eligible for role grants.
func (s *Service) ListActive(ctx context.Context) ([]*Menu, error) {
	models, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list active menus", "error", err)
		return nil, internal.NewInternalError("failed to list active menus", err)
	}

	menus := make([]*Menu, 0, len(models))
	for _, m := range models {
		menus = append(menus, FromDataModel(m))
	}
	return menus, nil
}
