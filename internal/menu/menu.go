package menu

import (
	"context"
	"time"

	menuDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/menu"
)

// Menu is the domain view of a protected URL in the navigation catalog.
type Menu struct {
	ID        int64     `json:"menu_id"`
	MenuURL   string    `json:"menu_url"`
	MenuName  string    `json:"menu_name"`
	MenuText  string    `json:"menu_text"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_datetime"`
}

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*menuDatamodel.Menu, error)
	Search(ctx context.Context, params SearchParams) ([]*menuDatamodel.Menu, error)
	ListActive(ctx context.Context) ([]*menuDatamodel.Menu, error)
	Create(ctx context.Context, m *menuDatamodel.Menu) error
	Update(ctx context.Context, m *menuDatamodel.Menu) error
}

func FromDataModel(m *menuDatamodel.Menu) *Menu {
	return &Menu{
		ID:        m.ID,
		MenuURL:   m.MenuURL,
		MenuName:  m.MenuName,
		MenuText:  m.MenuText,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
}
