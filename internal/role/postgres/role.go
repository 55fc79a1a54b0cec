package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/avagut/dynamic-user-menus/internal"
	roleDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/role"
	roleDomain "github.com/avagut/dynamic-user-menus/internal/role"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) roleDomain.RepositoryAPI {
	return &Repository{db: db}
}

const pgUniqueViolation = "23505"

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error) {
	var role roleDatamodel.Role
	err := r.db.WithContext(ctx).
		Where("role_id = ?", id).
		First(&role).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *Repository) Search(ctx context.Context, params roleDomain.SearchParams) ([]*roleDatamodel.Role, error) {
	q := r.db.WithContext(ctx).Model(&roleDatamodel.Role{})

	if params.Search != "" {
		term := "%" + strings.ToLower(params.Search) + "%"
		q = q.Where("LOWER(role_name) LIKE ? OR LOWER(role_description) LIKE ?", term, term)
	}

	order := params.SortColumn()
	if params.SortDesc {
		order += " DESC"
	}

	var roles []*roleDatamodel.Role
	if err := q.Order(order).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *Repository) Create(ctx context.Context, role *roleDatamodel.Role) error {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.NewConflictError("role already exists", internal.ErrCodeDuplicateKey).WithCause(err)
		}
		return err
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, role *roleDatamodel.Role) error {
	if err := r.db.WithContext(ctx).Save(role).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.NewConflictError("role already exists", internal.ErrCodeDuplicateKey).WithCause(err)
		}
		return err
	}
	return nil
}

// AssignableForUser lists active non-default roles the user does not
// already hold, ordered by name.
func (r *Repository) AssignableForUser(ctx context.Context, userID int64) ([]*roleDatamodel.Role, error) {
	var roles []*roleDatamodel.Role
	err := r.db.WithContext(ctx).
		Raw(`SELECT r.*
		     FROM sec_roles r
		     WHERE r.is_active = ? AND r.is_default = ?
		       AND r.role_id NOT IN (
		         SELECT ur.role_id FROM sec_users_roles ur
		         WHERE ur.user_id = ? AND ur.is_active = ?
		       )
		     ORDER BY r.role_name`, true, false, userID, true).
		Scan(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}
