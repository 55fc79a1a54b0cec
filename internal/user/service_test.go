package user

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/avagut/dynamic-user-menus/internal"
	"github.com/avagut/dynamic-user-menus/internal/auth"
	"github.com/avagut/dynamic-user-menus/internal/core/events"
	userDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/user"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Module Suite")
}

type mockRepository struct {
	users    map[int64]*userDatamodel.User
	existing map[string]bool
	nextID   int64

	deleted []int64
	roles   map[int64][]RoleSummary
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:    map[int64]*userDatamodel.User{},
		existing: map[string]bool{},
		nextID:   1,
		roles:    map[int64][]RoleSummary{},
	}
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*userDatamodel.User, error) {
	return m.users[id], nil
}

func (m *mockRepository) Search(_ context.Context, _ SearchParams) ([]*userDatamodel.User, error) {
	var out []*userDatamodel.User
	for _, u := range m.users {
		if !u.IsDeleted {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockRepository) Create(_ context.Context, u *userDatamodel.User) error {
	if m.existing[u.UserName] || m.existing[u.Email] {
		return internal.NewConflictError("user already exists", internal.ErrCodeDuplicateKey)
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	m.existing[u.UserName] = true
	m.existing[u.Email] = true
	return nil
}

func (m *mockRepository) Update(_ context.Context, u *userDatamodel.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockRepository) SoftDelete(_ context.Context, id, actor int64, at time.Time) error {
	m.deleted = append(m.deleted, id)
	if u, ok := m.users[id]; ok {
		u.IsDeleted = true
		u.IsActive = false
		u.ModifiedBy = &actor
		u.LastModifiedAt = &at
	}
	return nil
}

func (m *mockRepository) ActiveRoles(_ context.Context, userID int64) ([]RoleSummary, error) {
	return m.roles[userID], nil
}

var _ = ginkgo.Describe("UserService", func() {
	var (
		service     *Service
		repo        *mockRepository
		emailTokens *auth.EmailTokenGenerator
		bus         *events.EventBus
	)

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		emailTokens = auth.NewEmailTokenGenerator("test-email-secret", time.Hour)
		bus = events.NewEventBus(slog.Default())
		service = NewService(repo, emailTokens, bus, slog.Default())
	})

	ginkgo.Describe("Create", func() {
		validDTO := CreateUserDTO{
			UserName:  "jdoe",
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jdoe@example.com",
		}

		ginkgo.It("creates an unconfirmed account without a password", func() {
			created, err := service.Create(context.Background(), validDTO, 42)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(created.ID).To(gomega.Equal(int64(1)))
			gomega.Expect(created.IsConfirmed).To(gomega.BeFalse())
			gomega.Expect(created.IsActive).To(gomega.BeTrue())

			stored := repo.users[1]
			gomega.Expect(stored.PasswordHash).To(gomega.BeEmpty())
			gomega.Expect(*stored.CreatedBy).To(gomega.Equal(int64(42)))
			gomega.Expect(stored.ConfirmationSentAt).NotTo(gomega.BeNil())
		})

		ginkgo.It("publishes a created event carrying a confirmation token", func() {
			published := make(chan events.Event, 1)
			bus.Subscribe(events.EventTypeUserCreated, func(_ context.Context, e events.Event) error {
				published <- e
				return nil
			})

			_, err := service.Create(context.Background(), validDTO, 42)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			var event events.Event
			gomega.Eventually(published).Should(gomega.Receive(&event))
			created, ok := event.(*events.UserCreatedEvent)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(created.Email).To(gomega.Equal("jdoe@example.com"))

			email, err := emailTokens.Verify(created.ConfirmToken, auth.PurposeEmailConfirmation)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(email).To(gomega.Equal("jdoe@example.com"))
		})

		ginkgo.It("surfaces duplicates as a conflict", func() {
			_, err := service.Create(context.Background(), validDTO, 42)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.Create(context.Background(), validDTO, 42)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateKey))
		})

		ginkgo.It("rejects missing fields", func() {
			_, err := service.Create(context.Background(), CreateUserDTO{UserName: "x"}, 42)
			_, isValidation := err.(ValidationError)
			gomega.Expect(isValidation).To(gomega.BeTrue())
		})

		ginkgo.It("rejects a malformed email", func() {
			dto := validDTO
			dto.Email = "not-an-email"
			_, err := service.Create(context.Background(), dto, 42)
			_, isValidation := err.(ValidationError)
			gomega.Expect(isValidation).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.BeforeEach(func() {
			_, err := service.Create(context.Background(), CreateUserDTO{
				UserName: "jdoe", FirstName: "Jane", LastName: "Doe", Email: "jdoe@example.com",
			}, 42)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("updates details and stamps the actor", func() {
			updated, err := service.Update(context.Background(), 1, UpdateUserDTO{
				FirstName: "Janet", LastName: "Doe", Email: "janet@example.com",
			}, 7)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.FirstName).To(gomega.Equal("Janet"))

			stored := repo.users[1]
			gomega.Expect(*stored.ModifiedBy).To(gomega.Equal(int64(7)))
			gomega.Expect(stored.LastModifiedAt).NotTo(gomega.BeNil())
		})

		ginkgo.It("can deactivate an account", func() {
			inactive := false
			updated, err := service.Update(context.Background(), 1, UpdateUserDTO{
				FirstName: "Jane", LastName: "Doe", Email: "jdoe@example.com", IsActive: &inactive,
			}, 7)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.IsActive).To(gomega.BeFalse())
		})

		ginkgo.It("reports not found for an unknown id", func() {
			_, err := service.Update(context.Background(), 99, UpdateUserDTO{
				FirstName: "Jane", LastName: "Doe", Email: "jdoe@example.com",
			}, 7)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserNotFound))
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.BeforeEach(func() {
			_, err := service.Create(context.Background(), CreateUserDTO{
				UserName: "jdoe", FirstName: "Jane", LastName: "Doe", Email: "jdoe@example.com",
			}, 42)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("soft-deletes the account", func() {
			err := service.Delete(context.Background(), 1, 7)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(repo.deleted).To(gomega.Equal([]int64{1}))
			gomega.Expect(repo.users[1].IsDeleted).To(gomega.BeTrue())
		})

		ginkgo.It("reports not found for an already-deleted account", func() {
			gomega.Expect(service.Delete(context.Background(), 1, 7)).To(gomega.Succeed())
			err := service.Delete(context.Background(), 1, 7)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserNotFound))
		})
	})

	ginkgo.Describe("ActiveRoles", func() {
		ginkgo.It("returns the user's active roles", func() {
			_, err := service.Create(context.Background(), CreateUserDTO{
				UserName: "jdoe", FirstName: "Jane", LastName: "Doe", Email: "jdoe@example.com",
			}, 42)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			repo.roles[1] = []RoleSummary{{RoleID: 3, RoleName: "admins", RoleDescription: "Administrators"}}

			roles, err := service.ActiveRoles(context.Background(), 1)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(roles).To(gomega.HaveLen(1))
			gomega.Expect(roles[0].RoleName).To(gomega.Equal("admins"))
		})

		ginkgo.It("reports not found for an unknown user", func() {
			_, err := service.ActiveRoles(context.Background(), 99)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserNotFound))
		})
	})

	ginkgo.Describe("SearchParams", func() {
		ginkgo.It("resolves whitelisted sort keys", func() {
			gomega.Expect(SearchParams{SortBy: "email"}.SortColumn()).To(gomega.Equal("email"))
			gomega.Expect(SearchParams{SortBy: "last_login"}.SortColumn()).To(gomega.Equal("login_datetime"))
		})

		ginkgo.It("falls back to the default for unknown sort keys", func() {
			gomega.Expect(SearchParams{SortBy: "password_hash"}.SortColumn()).To(gomega.Equal("user_name"))
			gomega.Expect(SearchParams{}.SortColumn()).To(gomega.Equal("user_name"))
		})
	})
})
