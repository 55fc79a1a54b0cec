package authz

import (
	"context"
	"log/slog"
	"time"

	"github.com/avagut/dynamic-user-menus/internal"
	"github.com/avagut/dynamic-user-menus/internal/core/datamodel/grant"
)

// RepositoryAPI is the storage contract for grants. Uniqueness violations
// surface as AppErrors with code DUPLICATE_KEY; the service maps them to
// the user-facing conflict errors instead of leaking storage detail.
type RepositoryAPI interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	RoleExists(ctx context.Context, roleID int64) (bool, error)
	MenuExists(ctx context.Context, menuID int64) (bool, error)

	ActiveUserRole(ctx context.Context, userID, roleID int64) (*grant.UserRole, error)
	CreateUserRole(ctx context.Context, ur *grant.UserRole) error
	DeactivateUserRoles(ctx context.Context, userID, roleID, actor int64, at time.Time) error

	ActiveRoleMenu(ctx context.Context, roleID, menuID int64) (*grant.RoleMenu, error)
	CreateRoleMenu(ctx context.Context, rm *grant.RoleMenu) error
	GetRoleMenu(ctx context.Context, grantID int64) (*grant.RoleMenu, error)
	SaveRoleMenu(ctx context.Context, rm *grant.RoleMenu) error

	RoleMenusForRole(ctx context.Context, roleID int64) ([]RoleMenuDetail, error)
	RoleMenuDetail(ctx context.Context, grantID int64) (*RoleMenuDetail, error)
	RoleNamesForUser(ctx context.Context, userID int64) ([]string, error)
	ViewableMenuRoles(ctx context.Context) ([]MenuRoleEntry, error)
}

// IndexInvalidator drops cached authorization indexes after grant changes.
type IndexInvalidator interface {
	InvalidateIndexes()
}

// RoleMenuDetail is the administrative matrix row: one grant joined to its
// role and menu names.
type RoleMenuDetail struct {
	GrantID   int64  `json:"grant_id" gorm:"column:role_menu_id"`
	RoleID    int64  `json:"role_id" gorm:"column:role_id"`
	RoleName  string `json:"role_name" gorm:"column:role_name"`
	MenuID    int64  `json:"menu_id" gorm:"column:menu_id"`
	MenuName  string `json:"menu_name" gorm:"column:menu_name"`
	CanView   bool   `json:"can_view" gorm:"column:can_view"`
	CanCreate bool   `json:"can_create" gorm:"column:can_create"`
	CanEdit   bool   `json:"can_edit" gorm:"column:can_edit"`
	CanDelete bool   `json:"can_delete" gorm:"column:can_delete"`
}

// GrantService applies grant mutations, enforcing the one-active-grant
// invariants and invalidating cached indexes when view rights change.
type GrantService struct {
	repo        RepositoryAPI
	invalidator IndexInvalidator
	logger      *slog.Logger
}

func NewGrantService(repo RepositoryAPI, invalidator IndexInvalidator, logger *slog.Logger) *GrantService {
	return &GrantService{
		repo:        repo,
		invalidator: invalidator,
		logger:      logger,
	}
}

// checkExists resolves a referenced id before a mutation so a stale or
// mistyped user, role or menu id comes back as not-found instead of a
// storage failure.
func (s *GrantService) checkExists(ctx context.Context, lookup func(context.Context, int64) (bool, error), id int64, notFound *internal.AppError) error {
	exists, err := lookup(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to check referenced record", err)
	}
	if !exists {
		return notFound
	}
	return nil
}

// AssignRole creates an active user-role grant stamped with the actor.
// A second active grant for the same pair is rejected, whether caught by
// the pre-check or by the store's uniqueness constraint under a race.
func (s *GrantService) AssignRole(ctx context.Context, userID, roleID, actor int64) error {
	if err := s.checkExists(ctx, s.repo.UserExists, userID, internal.ErrUserNotFound); err != nil {
		return err
	}
	if err := s.checkExists(ctx, s.repo.RoleExists, roleID, internal.ErrRoleNotFound); err != nil {
		return err
	}

	existing, err := s.repo.ActiveUserRole(ctx, userID, roleID)
	if err != nil {
		return internal.NewInternalError("failed to check existing assignment", err)
	}
	if existing != nil {
		return internal.ErrAlreadyAssigned
	}

	ur := &grant.UserRole{
		UserID:    userID,
		RoleID:    roleID,
		IsActive:  true,
		CreatedBy: &actor,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateUserRole(ctx, ur); err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			if appErr.Code == internal.ErrCodeDuplicateKey {
				return internal.ErrAlreadyAssigned
			}
			return appErr
		}
		return internal.NewInternalError("failed to assign role", err)
	}

	s.logger.Info("role assigned", "user_id", userID, "role_id", roleID, "actor", actor)
	return nil
}

// UnassignRole deactivates every active grant for the pair. Idempotent:
// unassigning an unassigned role succeeds with nothing to do.
func (s *GrantService) UnassignRole(ctx context.Context, userID, roleID, actor int64) error {
	if err := s.repo.DeactivateUserRoles(ctx, userID, roleID, actor, time.Now()); err != nil {
		return internal.NewInternalError("failed to unassign role", err)
	}
	s.logger.Info("role unassigned", "user_id", userID, "role_id", roleID, "actor", actor)
	return nil
}

// CreateRoleMenu grants a role access to a menu. The grant always starts
// viewable; create/edit/delete flags come from the caller. Cached indexes
// are invalidated so every session sees the new grant on its next check.
func (s *GrantService) CreateRoleMenu(ctx context.Context, roleID, menuID int64, flags Capabilities, actor int64) (*grant.RoleMenu, error) {
	if err := s.checkExists(ctx, s.repo.RoleExists, roleID, internal.ErrRoleNotFound); err != nil {
		return nil, err
	}
	if err := s.checkExists(ctx, s.repo.MenuExists, menuID, internal.ErrMenuNotFound); err != nil {
		return nil, err
	}

	existing, err := s.repo.ActiveRoleMenu(ctx, roleID, menuID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check existing grant", err)
	}
	if existing != nil {
		return nil, internal.ErrAlreadyGranted
	}

	rm := &grant.RoleMenu{
		RoleID:    roleID,
		MenuID:    menuID,
		CanView:   true,
		CanCreate: flags.CanCreate,
		CanEdit:   flags.CanEdit,
		CanDelete: flags.CanDelete,
		IsActive:  true,
		CreatedBy: &actor,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateRoleMenu(ctx, rm); err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			if appErr.Code == internal.ErrCodeDuplicateKey {
				return nil, internal.ErrAlreadyGranted
			}
			return nil, appErr
		}
		return nil, internal.NewInternalError("failed to create role menu", err)
	}

	s.invalidator.InvalidateIndexes()
	s.logger.Info("role menu created", "role_id", roleID, "menu_id", menuID, "actor", actor)
	return rm, nil
}

// UpdateRoleMenu applies new capability flags to an existing grant by its
// identifier and stamps the actor.
func (s *GrantService) UpdateRoleMenu(ctx context.Context, grantID int64, flags Capabilities, actor int64) (*grant.RoleMenu, error) {
	rm, err := s.repo.GetRoleMenu(ctx, grantID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load role menu", err)
	}
	if rm == nil {
		return nil, internal.ErrGrantNotFound
	}

	now := time.Now()
	rm.CanView = flags.CanView
	rm.CanCreate = flags.CanCreate
	rm.CanEdit = flags.CanEdit
	rm.CanDelete = flags.CanDelete
	rm.ModifiedBy = &actor
	rm.LastModifiedAt = &now

	if err := s.repo.SaveRoleMenu(ctx, rm); err != nil {
		return nil, internal.NewInternalError("failed to update role menu", err)
	}

	s.invalidator.InvalidateIndexes()
	s.logger.Info("role menu updated", "grant_id", grantID, "actor", actor)
	return rm, nil
}

// RoleMenus lists the grant matrix for one role.
func (s *GrantService) RoleMenus(ctx context.Context, roleID int64) ([]RoleMenuDetail, error) {
	details, err := s.repo.RoleMenusForRole(ctx, roleID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list role menus", err)
	}
	return details, nil
}

// RoleMenuDetail fetches one grant with its role and menu names.
func (s *GrantService) RoleMenuDetail(ctx context.Context, grantID int64) (*RoleMenuDetail, error) {
	detail, err := s.repo.RoleMenuDetail(ctx, grantID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load role menu detail", err)
	}
	if detail == nil {
		return nil, internal.ErrGrantNotFound
	}
	return detail, nil
}

// RoleNamesForUser returns the active role names of a user, used when
// seeding a session at login.
func (s *GrantService) RoleNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	names, err := s.repo.RoleNamesForUser(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user roles", err)
	}
	return names, nil
}
