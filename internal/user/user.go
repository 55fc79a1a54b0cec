package user

import (
	"context"
	"time"

	userDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/user"
)

// User is the domain view of an administered account. Passwords are never
// set here; accounts are confirmed (and passworded) through the emailed
// confirmation flow.
type User struct {
	ID              int64      `json:"user_id"`
	UserName        string     `json:"user_name"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	IsConfirmed     bool       `json:"is_confirmed"`
	IsActive        bool       `json:"is_active"`
	HasEverLoggedIn bool       `json:"has_ever_logged_in"`
	LoginAt         *time.Time `json:"login_datetime,omitempty"`
	CreatedAt       time.Time  `json:"created_datetime"`
}

// RoleSummary is one active role of a user, as shown on the user detail
// screen.
type RoleSummary struct {
	RoleID          int64  `json:"role_id" gorm:"column:role_id"`
	RoleName        string `json:"role_name" gorm:"column:role_name"`
	RoleDescription string `json:"role_description" gorm:"column:role_description"`
}

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	Search(ctx context.Context, params SearchParams) ([]*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	SoftDelete(ctx context.Context, id, actor int64, at time.Time) error
	ActiveRoles(ctx context.Context, userID int64) ([]RoleSummary, error)
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:              u.ID,
		UserName:        u.UserName,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		IsConfirmed:     u.IsConfirmed,
		IsActive:        u.IsActive,
		HasEverLoggedIn: u.HasEverLoggedIn,
		LoginAt:         u.LoginAt,
		CreatedAt:       u.CreatedAt,
	}
}
