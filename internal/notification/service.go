package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/avagut/dynamic-user-menus/internal/core/events"
)

// Service renders notification bodies for account lifecycle events and
// hands them to the configured Sender. Delivery is fire-and-forget: a
// failed send is logged, never propagated back to the flow that raised
// the event.
type Service struct {
	sender  Sender
	baseURL string
	logger  *slog.Logger
}

func NewService(sender Sender, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		sender:  sender,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Register subscribes the notification handlers on the event bus.
func (s *Service) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeUserCreated, s.handleUserCreated)
	bus.Subscribe(events.EventTypeConfirmationResent, s.handleConfirmationResent)
	bus.Subscribe(events.EventTypePasswordResetRequested, s.handlePasswordReset)
}

func (s *Service) confirmationLink(token string) string {
	return fmt.Sprintf("%s/auth/confirm?token=%s", s.baseURL, url.QueryEscape(token))
}

func (s *Service) resetLink(token string) string {
	return fmt.Sprintf("%s/auth/password/reset?token=%s", s.baseURL, url.QueryEscape(token))
}

func (s *Service) deliver(ctx context.Context, msg Message) {
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send notification", "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	s.logger.Info("notification sent", "to", msg.To, "subject", msg.Subject)
}

func (s *Service) handleUserCreated(ctx context.Context, event events.Event) error {
	created, ok := event.(*events.UserCreatedEvent)
	if !ok {
		s.logger.Warn("unexpected payload for user created event", "event_id", event.EventID())
		return nil
	}

	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"An account with username %q has been created for you.\n"+
			"Confirm your email address and choose a password by following this link:\n\n%s\n\n"+
			"The link expires; ask an administrator to re-send it if needed.\n",
		created.FullName, created.UserName, s.confirmationLink(created.ConfirmToken))

	s.deliver(ctx, Message{
		To:      created.Email,
		Subject: "Your new account: confirm your email",
		Body:    body,
	})
	return nil
}

func (s *Service) handleConfirmationResent(ctx context.Context, event events.Event) error {
	resent, ok := event.(*events.ConfirmationResentEvent)
	if !ok {
		s.logger.Warn("unexpected payload for confirmation resent event", "event_id", event.EventID())
		return nil
	}

	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Here is a fresh confirmation link for your account %q:\n\n%s\n",
		resent.FullName, resent.UserName, s.confirmationLink(resent.ConfirmToken))

	s.deliver(ctx, Message{
		To:      resent.Email,
		Subject: "Confirm your email",
		Body:    body,
	})
	return nil
}

func (s *Service) handlePasswordReset(ctx context.Context, event events.Event) error {
	reset, ok := event.(*events.PasswordResetRequestedEvent)
	if !ok {
		s.logger.Warn("unexpected payload for password reset event", "event_id", event.EventID())
		return nil
	}

	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"A password reset was requested for your account %q.\n"+
			"Set a new password by following this link:\n\n%s\n\n"+
			"If you did not request this, you can ignore this message.\n",
		reset.FullName, reset.UserName, s.resetLink(reset.ResetToken))

	s.deliver(ctx, Message{
		To:      reset.Email,
		Subject: "Password reset requested",
		Body:    body,
	})
	return nil
}
