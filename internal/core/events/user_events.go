package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserCreated            = "user.created"
	EventTypeConfirmationResent     = "user.confirmation_resent"
	EventTypePasswordResetRequested = "user.password_reset_requested"
)

type UserCreatedEvent struct {
	BaseEvent
	UserID       int64  `json:"user_id"`
	UserName     string `json:"user_name"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	ConfirmToken string `json:"-"`
}

func NewUserCreatedEvent(userID int64, userName, fullName, email, confirmToken string) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":   userID,
				"user_name": userName,
				"email":     email,
			},
		},
		UserID:       userID,
		UserName:     userName,
		FullName:     fullName,
		Email:        email,
		ConfirmToken: confirmToken,
	}
}

type ConfirmationResentEvent struct {
	BaseEvent
	UserName     string `json:"user_name"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	ConfirmToken string `json:"-"`
}

func NewConfirmationResentEvent(userName, fullName, email, confirmToken string) *ConfirmationResentEvent {
	return &ConfirmationResentEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeConfirmationResent,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_name": userName,
				"email":     email,
			},
		},
		UserName:     userName,
		FullName:     fullName,
		Email:        email,
		ConfirmToken: confirmToken,
	}
}

type PasswordResetRequestedEvent struct {
	BaseEvent
	UserName   string `json:"user_name"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	ResetToken string `json:"-"`
}

func NewPasswordResetRequestedEvent(userName, fullName, email, resetToken string) *PasswordResetRequestedEvent {
	return &PasswordResetRequestedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePasswordResetRequested,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_name": userName,
				"email":     email,
			},
		},
		UserName:   userName,
		FullName:   fullName,
		Email:      email,
		ResetToken: resetToken,
	}
}
