package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/avagut/dynamic-user-menus/internal"
	"github.com/avagut/dynamic-user-menus/internal/authz"
	grantDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/grant"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) authz.RepositoryAPI {
	return &GrantRepository{db: db}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// isDuplicateKey recognizes unique-constraint violations from postgres and
// from the sqlite driver used in tests.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation recognizes referential-integrity failures, again
// from both drivers. They reach the store only when a referenced row is
// deleted between the service's existence check and the insert.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func (r *GrantRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	return r.rowExists(ctx, "sec_users", "user_id", userID)
}

func (r *GrantRepository) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	return r.rowExists(ctx, "sec_roles", "role_id", roleID)
}

func (r *GrantRepository) MenuExists(ctx context.Context, menuID int64) (bool, error) {
	return r.rowExists(ctx, "nav_menus", "menu_id", menuID)
}

func (r *GrantRepository) rowExists(ctx context.Context, table, column string, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table(table).
		Where(column+" = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GrantRepository) ActiveUserRole(ctx context.Context, userID, roleID int64) (*grantDatamodel.UserRole, error) {
	var ur grantDatamodel.UserRole
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ? AND is_active = ?", userID, roleID, true).
		First(&ur).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &ur, nil
}

func (r *GrantRepository) CreateUserRole(ctx context.Context, ur *grantDatamodel.UserRole) error {
	if err := r.db.WithContext(ctx).Create(ur).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.NewConflictError("user role already exists", internal.ErrCodeDuplicateKey).WithCause(err)
		}
		if isForeignKeyViolation(err) {
			return internal.NewNotFoundError("User or role does not exist", internal.ErrCodeInvalidReference).WithCause(err)
		}
		return err
	}
	return nil
}

func (r *GrantRepository) DeactivateUserRoles(ctx context.Context, userID, roleID, actor int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&grantDatamodel.UserRole{}).
		Where("user_id = ? AND role_id = ? AND is_active = ?", userID, roleID, true).
		Updates(map[string]interface{}{
			"is_active":              false,
			"modified_by":            actor,
			"last_modified_datetime": at,
		}).Error
}

func (r *GrantRepository) ActiveRoleMenu(ctx context.Context, roleID, menuID int64) (*grantDatamodel.RoleMenu, error) {
	var rm grantDatamodel.RoleMenu
	err := r.db.WithContext(ctx).
		Where("role_id = ? AND menu_id = ? AND is_active = ?", roleID, menuID, true).
		First(&rm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rm, nil
}

func (r *GrantRepository) CreateRoleMenu(ctx context.Context, rm *grantDatamodel.RoleMenu) error {
	if err := r.db.WithContext(ctx).Create(rm).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.NewConflictError("role menu already exists", internal.ErrCodeDuplicateKey).WithCause(err)
		}
		if isForeignKeyViolation(err) {
			return internal.NewNotFoundError("Role or menu does not exist", internal.ErrCodeInvalidReference).WithCause(err)
		}
		return err
	}
	return nil
}

func (r *GrantRepository) GetRoleMenu(ctx context.Context, grantID int64) (*grantDatamodel.RoleMenu, error) {
	var rm grantDatamodel.RoleMenu
	err := r.db.WithContext(ctx).
		Where("role_menu_id = ?", grantID).
		First(&rm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rm, nil
}

func (r *GrantRepository) SaveRoleMenu(ctx context.Context, rm *grantDatamodel.RoleMenu) error {
	return r.db.WithContext(ctx).Save(rm).Error
}

func (r *GrantRepository) RoleMenusForRole(ctx context.Context, roleID int64) ([]authz.RoleMenuDetail, error) {
	var details []authz.RoleMenuDetail
	query := `SELECT rm.role_menu_id, rm.role_id, r.role_name, rm.menu_id, m.menu_name,
	                 rm.can_view, rm.can_create, rm.can_edit, rm.can_delete
	          FROM nav_roles_menus rm
	          JOIN sec_roles r ON rm.role_id = r.role_id
	          JOIN nav_menus m ON rm.menu_id = m.menu_id
	          WHERE rm.role_id = ?`
	if err := r.db.WithContext(ctx).Raw(query, roleID).Scan(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}

func (r *GrantRepository) RoleMenuDetail(ctx context.Context, grantID int64) (*authz.RoleMenuDetail, error) {
	var detail authz.RoleMenuDetail
	query := `SELECT rm.role_menu_id, rm.role_id, r.role_name, rm.menu_id, m.menu_name,
	                 rm.can_view, rm.can_create, rm.can_edit, rm.can_delete
	          FROM nav_roles_menus rm
	          JOIN sec_roles r ON rm.role_id = r.role_id
	          JOIN nav_menus m ON rm.menu_id = m.menu_id
	          WHERE rm.role_menu_id = ?`
	res := r.db.WithContext(ctx).Raw(query, grantID).Scan(&detail)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &detail, nil
}

func (r *GrantRepository) RoleNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	query := `SELECT r.role_name
	          FROM sec_users_roles ur
	          JOIN sec_roles r ON ur.role_id = r.role_id
	          WHERE ur.user_id = ? AND ur.is_active = ? AND r.is_active = ?
	          ORDER BY r.role_name`
	if err := r.db.WithContext(ctx).Raw(query, userID, true, true).Scan(&names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *GrantRepository) ViewableMenuRoles(ctx context.Context) ([]authz.MenuRoleEntry, error) {
	var entries []authz.MenuRoleEntry
	query := `SELECT m.menu_url, r.role_name
	          FROM nav_roles_menus rm
	          JOIN nav_menus m ON rm.menu_id = m.menu_id
	          JOIN sec_roles r ON rm.role_id = r.role_id
	          WHERE rm.can_view = ? AND rm.is_active = ?`
	if err := r.db.WithContext(ctx).Raw(query, true, true).Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
