package menu

import "time"

// Menu is the persistence model for a protected URL in the navigation
// catalog.
type Menu struct {
	ID             int64      `gorm:"column:menu_id;primaryKey"`
	MenuURL        string     `gorm:"column:menu_url;uniqueIndex;not null"`
	MenuName       string     `gorm:"column:menu_name;uniqueIndex;not null"`
	MenuText       string     `gorm:"column:menu_text;not null"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true"`
	CreatedBy      *int64     `gorm:"column:created_by"`
	CreatedAt      time.Time  `gorm:"column:created_datetime"`
	ModifiedBy     *int64     `gorm:"column:modified_by"`
	LastModifiedAt *time.Time `gorm:"column:last_modified_datetime"`
}

func (Menu) TableName() string {
	return "nav_menus"
}
