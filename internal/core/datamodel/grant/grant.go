package grant

import "time"

// UserRole links a user to a role. Unassignment flips is_active rather
// than deleting the row so assignment history survives for audit.
type UserRole struct {
	ID             int64      `gorm:"column:user_role_id;primaryKey"`
	UserID         int64      `gorm:"column:user_id;not null;index:idx_user_role_pair"`
	RoleID         int64      `gorm:"column:role_id;not null;index:idx_user_role_pair"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true"`
	CreatedBy      *int64     `gorm:"column:created_by"`
	CreatedAt      time.Time  `gorm:"column:created_datetime"`
	ModifiedBy     *int64     `gorm:"column:modified_by"`
	LastModifiedAt *time.Time `gorm:"column:last_modified_datetime"`
}

func (UserRole) TableName() string {
	return "sec_users_roles"
}

// RoleMenu gives a role capabilities over a menu. A grant always implies
// at least view access; can_view is forced true at creation.
type RoleMenu struct {
	ID             int64      `gorm:"column:role_menu_id;primaryKey"`
	RoleID         int64      `gorm:"column:role_id;not null;index:idx_role_menu_pair"`
	MenuID         int64      `gorm:"column:menu_id;not null;index:idx_role_menu_pair"`
	CanView        bool       `gorm:"column:can_view;not null;default:true"`
	CanCreate      bool       `gorm:"column:can_create;not null;default:false"`
	CanEdit        bool       `gorm:"column:can_edit;not null;default:false"`
	CanDelete      bool       `gorm:"column:can_delete;not null;default:false"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true"`
	CreatedBy      *int64     `gorm:"column:created_by"`
	CreatedAt      time.Time  `gorm:"column:created_datetime"`
	ModifiedBy     *int64     `gorm:"column:modified_by"`
	LastModifiedAt *time.Time `gorm:"column:last_modified_datetime"`
}

func (RoleMenu) TableName() string {
	return "nav_roles_menus"
}
