package role

import (
	"context"
	"time"

	roleDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/role"
)

// Role is the domain view of a permission group.
type Role struct {
	ID              int64     `json:"role_id"`
	RoleName        string    `json:"role_name"`
	RoleDescription string    `json:"role_description"`
	IsActive        bool      `json:"is_active"`
	IsDefault       bool      `json:"is_default"`
	CreatedAt       time.Time `json:"created_datetime"`
}

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error)
	Search(ctx context.Context, params SearchParams) ([]*roleDatamodel.Role, error)
	Create(ctx context.Context, r *roleDatamodel.Role) error
	Update(ctx context.Context, r *roleDatamodel.Role) error
	AssignableForUser(ctx context.Context, userID int64) ([]*roleDatamodel.Role, error)
}

func FromDataModel(r *roleDatamodel.Role) *Role {
	return &Role{
		ID:              r.ID,
		RoleName:        r.RoleName,
		RoleDescription: r.RoleDescription,
		IsActive:        r.IsActive,
		IsDefault:       r.IsDefault,
		CreatedAt:       r.CreatedAt,
	}
}
