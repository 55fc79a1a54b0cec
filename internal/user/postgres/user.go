package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/avagut/dynamic-user-menus/internal"
	userDomain "github.com/avagut/dynamic-user-menus/internal/user"
	userDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) userDomain.RepositoryAPI {
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

func (r *Repository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Search lists non-deleted accounts, optionally filtered by a
// case-insensitive substring over username, names and email, ordered by
// the whitelisted sort column.
func (r *Repository) Search(ctx context.Context, params userDomain.SearchParams) ([]*userDatamodel.User, error) {
	q := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("is_deleted = ?", false)

	if params.Search != "" {
		term := "%" + strings.ToLower(params.Search) + "%"
		q = q.Where(
			"LOWER(user_name) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?",
			term, term, term, term,
		)
	}

	order := params.SortColumn()
	if params.SortDesc {
		order += " DESC"
	}

	var users []*userDatamodel.User
	if err := q.Order(order).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Repository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.NewConflictError("user already exists", internal.ErrCodeDuplicateKey).WithCause(err)
		}
		return err
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Save(u).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.NewConflictError("user already exists", internal.ErrCodeDuplicateKey).WithCause(err)
		}
		return err
	}
	return nil
}

// SoftDelete flags the row; account history is preserved for audit.
func (r *Repository) SoftDelete(ctx context.Context, id, actor int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"is_deleted":             true,
			"is_active":              false,
			"modified_by":            actor,
			"last_modified_datetime": at,
		}).Error
}

// ActiveRoles returns the user's active role assignments joined to active
// roles, ordered by role name.
func (r *Repository) ActiveRoles(ctx context.Context, userID int64) ([]userDomain.RoleSummary, error) {
	var roles []userDomain.RoleSummary
	err := r.db.WithContext(ctx).
		Raw(`SELECT r.role_id, r.role_name, r.role_description
		     FROM sec_users_roles ur
		     JOIN sec_roles r ON r.role_id = ur.role_id
		     WHERE ur.user_id = ? AND ur.is_active = ? AND r.is_active = ?
		     ORDER BY r.role_name`, userID, true, true).
		Scan(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}
