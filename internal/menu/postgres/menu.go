package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/avagut/dynamic-user-menus/internal"
	menuDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/menu"
	menuDomain "github.com/avagut/dynamic-user-menus/internal/menu"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) menuDomain.RepositoryAPI {
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

func (r *Repository) GetByID(ctx context.Context, id int64) (*menuDatamodel.Menu, error) {
	var m menuDatamodel.Menu
	err := r.db.WithContext(ctx).
		Where("menu_id = ?", id).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repository) Search(ctx context.Context, params menuDomain.SearchParams) ([]*menuDatamodel.Menu, error) {
	q := r.db.WithContext(ctx).Model(&menuDatamodel.Menu{})

	if params.Search != "" {
		term := "%" + strings.ToLower(params.Search) + "%"
		q = q.Where("LOWER(menu_url) LIKE ? OR LOWER(menu_text) LIKE ?", term, term)
	}

	order := params.SortColumn()
	if params.SortDesc {
		order += " DESC"
	}

	var menus []*menuDatamodel.Menu
	if err := q.Order(order).Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]*menuDatamodel.Menu, error) {
	var menus []*menuDatamodel.Menu
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("menu_name").
		Find(&menus).Error
	if err != nil {
		return nil, err
	}
	return menus, nil
}

func (r *Repository) Create(ctx context.Context, m *menuDatamodel.Menu) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.NewConflictError("menu already exists", internal.ErrCodeDuplicateKey).WithCause(err)
		}
		return err
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, m *menuDatamodel.Menu) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.NewConflictError("menu already exists", internal.ErrCodeDuplicateKey).WithCause(err)
		}
		return err
	}
	return nil
}
