package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/avagut/dynamic-user-menus/internal/auth"
	userDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) GetByUserName(ctx context.Context, userName string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("user_name = ?", userName).
		First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// StampLogin records a successful login. has_ever_logged_in latches true
// on the first login and stays set.
func (r *Repository) StampLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"login_datetime":     at,
			"has_ever_logged_in": true,
		}).Error
}

// ConfirmUser marks the account confirmed and stores its first password.
func (r *Repository) ConfirmUser(ctx context.Context, userID int64, passwordHash string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"is_confirmed":                  true,
			"confirmed_at":                  at,
			"password_hash":                 passwordHash,
			"password_last_change_datetime": at,
		}).Error
}

func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash":                 passwordHash,
			"password_last_change_datetime": at,
		}).Error
}

func (r *Repository) StampConfirmationSent(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("user_id = ?", userID).
		Update("confirmation_sent_at", at).Error
}
