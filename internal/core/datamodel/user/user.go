package user

import "time"

// User is the persistence model for an administered account. Accounts are
// never hard-deleted, only flagged with is_deleted.
type User struct {
	ID                 int64      `gorm:"column:user_id;primaryKey"`
	UserName           string     `gorm:"column:user_name;uniqueIndex;not null"`
	FirstName          string     `gorm:"column:first_name;not null"`
	LastName           string     `gorm:"column:last_name;not null"`
	Email              string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash       string     `gorm:"column:password_hash"`
	IsConfirmed        bool       `gorm:"column:is_confirmed;not null;default:false"`
	ConfirmedAt        *time.Time `gorm:"column:confirmed_at"`
	ConfirmationSentAt *time.Time `gorm:"column:confirmation_sent_at"`
	IsActive           bool       `gorm:"column:is_active;not null;default:true"`
	IsDeleted          bool       `gorm:"column:is_deleted;not null;default:false"`
	HasEverLoggedIn    bool       `gorm:"column:has_ever_logged_in;not null;default:false"`
	LoginAt            *time.Time `gorm:"column:login_datetime"`
	PasswordChangedAt  *time.Time `gorm:"column:password_last_change_datetime"`
	CreatedBy          *int64     `gorm:"column:created_by"`
	CreatedAt          time.Time  `gorm:"column:created_datetime"`
	ModifiedBy         *int64     `gorm:"column:modified_by"`
	LastModifiedAt     *time.Time `gorm:"column:last_modified_datetime"`
}

func (User) TableName() string {
	return "sec_users"
}
