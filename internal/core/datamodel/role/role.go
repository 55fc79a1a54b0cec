package role

import "time"

// Role is the persistence model for a permission group. Default roles are
// excluded from manual assignment listings.
type Role struct {
	ID              int64      `gorm:"column:role_id;primaryKey"`
	RoleName        string     `gorm:"column:role_name;uniqueIndex;not null"`
	RoleDescription string     `gorm:"column:role_description;not null"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true"`
	IsDefault       bool       `gorm:"column:is_default;not null;default:false"`
	CreatedBy       *int64     `gorm:"column:created_by"`
	CreatedAt       time.Time  `gorm:"column:created_datetime"`
	ModifiedBy      *int64     `gorm:"column:modified_by"`
	LastModifiedAt  *time.Time `gorm:"column:last_modified_datetime"`
}

func (Role) TableName() string {
	return "sec_roles"
}
