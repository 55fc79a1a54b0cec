package notification

import (
	"context"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/avagut/dynamic-user-menus/internal/core/events"
)

func TestNotification(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Notification Module Suite")
}

type captureSender struct {
	messages chan Message
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	c.messages <- msg
	return nil
}

var _ = ginkgo.Describe("NotificationService", func() {
	var (
		service *Service
		sender  *captureSender
		bus     *events.EventBus
	)

	ginkgo.BeforeEach(func() {
		sender = &captureSender{messages: make(chan Message, 1)}
		bus = events.NewEventBus(slog.Default())
		service = NewService(sender, "https://admin.example.com", slog.Default())
		service.Register(bus)
	})

	ginkgo.It("sends a confirmation link when a user is created", func() {
		event := events.NewUserCreatedEvent(1, "jdoe", "Jane Doe", "jdoe@example.com", "tok123")
		gomega.Expect(bus.Publish(context.Background(), event)).To(gomega.Succeed())

		var msg Message
		gomega.Eventually(sender.messages).Should(gomega.Receive(&msg))
		gomega.Expect(msg.To).To(gomega.Equal("jdoe@example.com"))
		gomega.Expect(msg.Body).To(gomega.ContainSubstring("https://admin.example.com/auth/confirm?token=tok123"))
		gomega.Expect(msg.Body).To(gomega.ContainSubstring("Jane Doe"))
	})

	ginkgo.It("sends a reset link when a password reset is requested", func() {
		event := events.NewPasswordResetRequestedEvent("jdoe", "Jane Doe", "jdoe@example.com", "tok456")
		gomega.Expect(bus.Publish(context.Background(), event)).To(gomega.Succeed())

		var msg Message
		gomega.Eventually(sender.messages).Should(gomega.Receive(&msg))
		gomega.Expect(msg.Subject).To(gomega.ContainSubstring("Password reset"))
		gomega.Expect(msg.Body).To(gomega.ContainSubstring("/auth/password/reset?token=tok456"))
	})

	ginkgo.It("query-escapes tokens in links", func() {
		event := events.NewConfirmationResentEvent("jdoe", "Jane Doe", "jdoe@example.com", "a+b/c")
		gomega.Expect(bus.Publish(context.Background(), event)).To(gomega.Succeed())

		var msg Message
		gomega.Eventually(sender.messages).Should(gomega.Receive(&msg))
		gomega.Expect(msg.Body).To(gomega.ContainSubstring("token=a%2Bb%2Fc"))
	})
})
