package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/avagut/dynamic-user-menus/internal"
	grantDatamodel "github.com/avagut/dynamic-user-menus/internal/core/datamodel/grant"
)

func TestAuthz(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Authz Module Suite")
}

type mockGrantRepository struct {
	entries     []MenuRoleEntry
	userRoles   map[string]*grantDatamodel.UserRole
	roleMenus   map[string]*grantDatamodel.RoleMenu
	roleMenusID map[int64]*grantDatamodel.RoleMenu
	nextID      int64

	deactivated    []string
	buildCalls     int
	createErr      error
	sourceErr      error
	savedRoleMenus []*grantDatamodel.RoleMenu

	missingUsers map[int64]bool
	missingRoles map[int64]bool
	missingMenus map[int64]bool
}

func newMockGrantRepository() *mockGrantRepository {
	return &mockGrantRepository{
		userRoles:   map[string]*grantDatamodel.UserRole{},
		roleMenus:   map[string]*grantDatamodel.RoleMenu{},
		roleMenusID: map[int64]*grantDatamodel.RoleMenu{},
		nextID:      1,
	}
}

func pairKey(a, b int64) string {
	return fmt.Sprintf("%d:%d", a, b)
}

func (m *mockGrantRepository) UserExists(_ context.Context, userID int64) (bool, error) {
	return !m.missingUsers[userID], nil
}

func (m *mockGrantRepository) RoleExists(_ context.Context, roleID int64) (bool, error) {
	return !m.missingRoles[roleID], nil
}

func (m *mockGrantRepository) MenuExists(_ context.Context, menuID int64) (bool, error) {
	return !m.missingMenus[menuID], nil
}

func (m *mockGrantRepository) ActiveUserRole(_ context.Context, userID, roleID int64) (*grantDatamodel.UserRole, error) {
	ur := m.userRoles[pairKey(userID, roleID)]
	if ur == nil || !ur.IsActive {
		return nil, nil
	}
	return ur, nil
}

func (m *mockGrantRepository) CreateUserRole(_ context.Context, ur *grantDatamodel.UserRole) error {
	if m.createErr != nil {
		return m.createErr
	}
	ur.ID = m.nextID
	m.nextID++
	m.userRoles[pairKey(ur.UserID, ur.RoleID)] = ur
	return nil
}

func (m *mockGrantRepository) DeactivateUserRoles(_ context.Context, userID, roleID, _ int64, _ time.Time) error {
	m.deactivated = append(m.deactivated, pairKey(userID, roleID))
	if ur, ok := m.userRoles[pairKey(userID, roleID)]; ok {
		ur.IsActive = false
	}
	return nil
}

func (m *mockGrantRepository) ActiveRoleMenu(_ context.Context, roleID, menuID int64) (*grantDatamodel.RoleMenu, error) {
	rm := m.roleMenus[pairKey(roleID, menuID)]
	if rm == nil || !rm.IsActive {
		return nil, nil
	}
	return rm, nil
}

func (m *mockGrantRepository) CreateRoleMenu(_ context.Context, rm *grantDatamodel.RoleMenu) error {
	if m.createErr != nil {
		return m.createErr
	}
	rm.ID = m.nextID
	m.nextID++
	m.roleMenus[pairKey(rm.RoleID, rm.MenuID)] = rm
	m.roleMenusID[rm.ID] = rm
	return nil
}

func (m *mockGrantRepository) GetRoleMenu(_ context.Context, grantID int64) (*grantDatamodel.RoleMenu, error) {
	return m.roleMenusID[grantID], nil
}

func (m *mockGrantRepository) SaveRoleMenu(_ context.Context, rm *grantDatamodel.RoleMenu) error {
	m.savedRoleMenus = append(m.savedRoleMenus, rm)
	return nil
}

func (m *mockGrantRepository) RoleMenusForRole(_ context.Context, _ int64) ([]RoleMenuDetail, error) {
	return nil, nil
}

func (m *mockGrantRepository) RoleMenuDetail(_ context.Context, _ int64) (*RoleMenuDetail, error) {
	return nil, nil
}

func (m *mockGrantRepository) RoleNamesForUser(_ context.Context, _ int64) ([]string, error) {
	return nil, nil
}

func (m *mockGrantRepository) ViewableMenuRoles(_ context.Context) ([]MenuRoleEntry, error) {
	m.buildCalls++
	if m.sourceErr != nil {
		return nil, m.sourceErr
	}
	return m.entries, nil
}

func testLogger() *slog.Logger {
	return slog.Default()
}

var _ = ginkgo.Describe("RoleSet", func() {
	ginkgo.It("reports membership and intersection", func() {
		s := NewRoleSet("admins", "auditors")
		gomega.Expect(s.Has("admins")).To(gomega.BeTrue())
		gomega.Expect(s.Has("users")).To(gomega.BeFalse())
		gomega.Expect(s.Intersects([]string{"users", "auditors"})).To(gomega.BeTrue())
		gomega.Expect(s.Intersects([]string{"users"})).To(gomega.BeFalse())
		gomega.Expect(s.Intersects(nil)).To(gomega.BeFalse())
	})

	ginkgo.It("returns names sorted", func() {
		s := NewRoleSet("zeta", "alpha", "mid")
		gomega.Expect(s.Names()).To(gomega.Equal([]string{"alpha", "mid", "zeta"}))
	})
})

var _ = ginkgo.Describe("IndexBuilder", func() {
	var repo *mockGrantRepository
	var builder *IndexBuilder

	ginkgo.BeforeEach(func() {
		repo = newMockGrantRepository()
		builder = NewIndexBuilder(repo, testLogger())
	})

	ginkgo.It("groups distinct role names per menu url", func() {
		repo.entries = []MenuRoleEntry{
			{MenuURL: "/users", RoleName: "admins"},
			{MenuURL: "/users", RoleName: "auditors"},
			{MenuURL: "/users", RoleName: "admins"},
			{MenuURL: "/dashboard", RoleName: "users"},
		}

		idx, err := builder.Build(context.Background())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(idx).To(gomega.HaveLen(2))
		gomega.Expect(idx.AuthorizedRoles("/users").Names()).To(gomega.Equal([]string{"admins", "auditors"}))
		gomega.Expect(idx.AuthorizedRoles("/dashboard").Names()).To(gomega.Equal([]string{"users"}))
	})

	ginkgo.It("builds an empty index when no grants exist", func() {
		idx, err := builder.Build(context.Background())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(idx).To(gomega.BeEmpty())
		gomega.Expect(idx.AuthorizedRoles("/anything")).To(gomega.BeNil())
	})

	ginkgo.It("propagates source errors", func() {
		repo.sourceErr = errors.New("db down")
		_, err := builder.Build(context.Background())
		gomega.Expect(err).To(gomega.HaveOccurred())
	})
})

var _ = ginkgo.Describe("Engine", func() {
	var repo *mockGrantRepository
	var engine *Engine

	ginkgo.BeforeEach(func() {
		repo = newMockGrantRepository()
		repo.entries = []MenuRoleEntry{
			{MenuURL: "/users", RoleName: "admins"},
			{MenuURL: "/dashboard", RoleName: "admins"},
			{MenuURL: "/dashboard", RoleName: "users"},
		}
		engine = NewEngine(NewIndexBuilder(repo, testLogger()), repo, testLogger())
	})

	ginkgo.Describe("CheckAccess", func() {
		ginkgo.It("denies when no session exists", func() {
			decision, err := engine.CheckAccess(context.Background(), nil, "/users")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(Deny))
		})

		ginkgo.It("allows when the user holds an authorized role", func() {
			session := NewSession(1, []string{"users"})
			decision, err := engine.CheckAccess(context.Background(), session, "/dashboard")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(Allow))
		})

		ginkgo.It("denies when the user's roles do not intersect", func() {
			session := NewSession(1, []string{"users"})
			decision, err := engine.CheckAccess(context.Background(), session, "/users")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(Deny))
		})

		ginkgo.It("denies unmapped urls without error", func() {
			session := NewSession(1, []string{"admins"})
			decision, err := engine.CheckAccess(context.Background(), session, "/nowhere")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(Deny))
		})

		ginkgo.It("denies users with no roles at all", func() {
			session := NewSession(1, nil)
			decision, err := engine.CheckAccess(context.Background(), session, "/dashboard")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(Deny))
		})

		ginkgo.It("builds the index once and reuses the cached copy", func() {
			session := NewSession(1, []string{"admins"})

			_, err := engine.CheckAccess(context.Background(), session, "/users")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			_, err = engine.CheckAccess(context.Background(), session, "/dashboard")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(repo.buildCalls).To(gomega.Equal(1))
		})

		ginkgo.It("rebuilds after the cached index is cleared", func() {
			session := NewSession(1, []string{"users"})

			decision, err := engine.CheckAccess(context.Background(), session, "/users")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(Deny))

			repo.entries = append(repo.entries, MenuRoleEntry{MenuURL: "/users", RoleName: "users"})
			session.ClearIndex()

			decision, err = engine.CheckAccess(context.Background(), session, "/users")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(Allow))
			gomega.Expect(repo.buildCalls).To(gomega.Equal(2))
		})

		ginkgo.It("denies and reports the error when the index cannot be built", func() {
			repo.sourceErr = errors.New("db down")
			session := NewSession(1, []string{"admins"})

			decision, err := engine.CheckAccess(context.Background(), session, "/users")
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(Deny))
		})
	})

	ginkgo.Describe("Capabilities", func() {
		ginkgo.It("returns the flags of the active grant", func() {
			repo.roleMenus[pairKey(2, 3)] = &grantDatamodel.RoleMenu{
				RoleID: 2, MenuID: 3,
				CanView: true, CanEdit: true, IsActive: true,
			}

			caps, err := engine.Capabilities(context.Background(), 2, 3)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(caps).To(gomega.Equal(Capabilities{CanView: true, CanEdit: true}))
		})

		ginkgo.It("returns all-false flags when no active grant exists", func() {
			caps, err := engine.Capabilities(context.Background(), 2, 3)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(caps).To(gomega.Equal(Capabilities{}))
		})
	})
})

var _ = ginkgo.Describe("SessionStore", func() {
	ginkgo.It("clears every cached index on invalidation", func() {
		store := NewSessionStore()
		a := NewSession(1, []string{"admins"})
		b := NewSession(2, []string{"users"})
		a.ReplaceIndex(Index{"/users": NewRoleSet("admins")})
		b.ReplaceIndex(Index{"/users": NewRoleSet("admins")})
		store.Put(a)
		store.Put(b)

		store.InvalidateIndexes()

		_, ok := a.Index()
		gomega.Expect(ok).To(gomega.BeFalse())
		_, ok = b.Index()
		gomega.Expect(ok).To(gomega.BeFalse())
	})

	ginkgo.It("removes sessions on logout", func() {
		store := NewSessionStore()
		store.Put(NewSession(1, nil))
		store.Remove(1)

		_, ok := store.Get(1)
		gomega.Expect(ok).To(gomega.BeFalse())
	})
})

var _ = ginkgo.Describe("GrantService", func() {
	var repo *mockGrantRepository
	var store *SessionStore
	var service *GrantService
	var session *Session

	ginkgo.BeforeEach(func() {
		repo = newMockGrantRepository()
		store = NewSessionStore()
		session = NewSession(1, []string{"admins"})
		session.ReplaceIndex(Index{})
		store.Put(session)
		service = NewGrantService(repo, store, testLogger())
	})

	indexCleared := func() bool {
		_, ok := session.Index()
		return !ok
	}

	ginkgo.Describe("AssignRole", func() {
		ginkgo.It("creates an active assignment stamped with the actor", func() {
			err := service.AssignRole(context.Background(), 5, 2, 99)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			ur := repo.userRoles[pairKey(5, 2)]
			gomega.Expect(ur).NotTo(gomega.BeNil())
			gomega.Expect(ur.IsActive).To(gomega.BeTrue())
			gomega.Expect(*ur.CreatedBy).To(gomega.Equal(int64(99)))
		})

		ginkgo.It("rejects a second active assignment for the same pair", func() {
			gomega.Expect(service.AssignRole(context.Background(), 5, 2, 99)).To(gomega.Succeed())

			err := service.AssignRole(context.Background(), 5, 2, 99)
			gomega.Expect(err).To(gomega.Equal(internal.ErrAlreadyAssigned))
		})

		ginkgo.It("maps a storage uniqueness violation to the same conflict", func() {
			repo.createErr = internal.NewConflictError("duplicate key", internal.ErrCodeDuplicateKey)

			err := service.AssignRole(context.Background(), 5, 2, 99)
			gomega.Expect(err).To(gomega.Equal(internal.ErrAlreadyAssigned))
		})

		ginkgo.It("does not touch cached indexes", func() {
			gomega.Expect(service.AssignRole(context.Background(), 5, 2, 99)).To(gomega.Succeed())
			gomega.Expect(indexCleared()).To(gomega.BeFalse())
		})

		ginkgo.It("reports an unknown user as not found", func() {
			repo.missingUsers = map[int64]bool{5: true}

			err := service.AssignRole(context.Background(), 5, 2, 99)
			gomega.Expect(err).To(gomega.Equal(internal.ErrUserNotFound))
			gomega.Expect(repo.userRoles).To(gomega.BeEmpty())
		})

		ginkgo.It("reports an unknown role as not found", func() {
			repo.missingRoles = map[int64]bool{2: true}

			err := service.AssignRole(context.Background(), 5, 2, 99)
			gomega.Expect(err).To(gomega.Equal(internal.ErrRoleNotFound))
		})
	})

	ginkgo.Describe("UnassignRole", func() {
		ginkgo.It("deactivates the assignment", func() {
			gomega.Expect(service.AssignRole(context.Background(), 5, 2, 99)).To(gomega.Succeed())
			gomega.Expect(service.UnassignRole(context.Background(), 5, 2, 99)).To(gomega.Succeed())

			gomega.Expect(repo.userRoles[pairKey(5, 2)].IsActive).To(gomega.BeFalse())
		})

		ginkgo.It("succeeds when nothing is assigned", func() {
			gomega.Expect(service.UnassignRole(context.Background(), 5, 2, 99)).To(gomega.Succeed())
		})
	})

	ginkgo.Describe("CreateRoleMenu", func() {
		ginkgo.It("forces view access on and invalidates cached indexes", func() {
			rm, err := service.CreateRoleMenu(context.Background(), 2, 3, Capabilities{CanEdit: true}, 99)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(rm.CanView).To(gomega.BeTrue())
			gomega.Expect(rm.CanEdit).To(gomega.BeTrue())
			gomega.Expect(rm.CanCreate).To(gomega.BeFalse())
			gomega.Expect(indexCleared()).To(gomega.BeTrue())
		})

		ginkgo.It("reports an unknown role as not found", func() {
			repo.missingRoles = map[int64]bool{2: true}

			_, err := service.CreateRoleMenu(context.Background(), 2, 3, Capabilities{}, 99)
			gomega.Expect(err).To(gomega.Equal(internal.ErrRoleNotFound))
			gomega.Expect(indexCleared()).To(gomega.BeFalse())
		})

		ginkgo.It("reports an unknown menu as not found", func() {
			repo.missingMenus = map[int64]bool{3: true}

			_, err := service.CreateRoleMenu(context.Background(), 2, 3, Capabilities{}, 99)
			gomega.Expect(err).To(gomega.Equal(internal.ErrMenuNotFound))
		})

		ginkgo.It("rejects a second active grant for the same pair", func() {
			_, err := service.CreateRoleMenu(context.Background(), 2, 3, Capabilities{}, 99)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.CreateRoleMenu(context.Background(), 2, 3, Capabilities{}, 99)
			gomega.Expect(err).To(gomega.Equal(internal.ErrAlreadyGranted))
		})

		ginkgo.It("maps a storage uniqueness violation to the same conflict", func() {
			repo.createErr = internal.NewConflictError("duplicate key", internal.ErrCodeDuplicateKey)

			_, err := service.CreateRoleMenu(context.Background(), 2, 3, Capabilities{}, 99)
			gomega.Expect(err).To(gomega.Equal(internal.ErrAlreadyGranted))
		})
	})

	ginkgo.Describe("UpdateRoleMenu", func() {
		ginkgo.It("applies new flags, stamps the actor and invalidates", func() {
			rm, err := service.CreateRoleMenu(context.Background(), 2, 3, Capabilities{}, 99)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			session.ReplaceIndex(Index{})

			updated, err := service.UpdateRoleMenu(context.Background(), rm.ID, Capabilities{CanView: true, CanDelete: true}, 42)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.CanDelete).To(gomega.BeTrue())
			gomega.Expect(*updated.ModifiedBy).To(gomega.Equal(int64(42)))
			gomega.Expect(repo.savedRoleMenus).To(gomega.HaveLen(1))
			gomega.Expect(indexCleared()).To(gomega.BeTrue())
		})

		ginkgo.It("returns not found for an unknown grant id", func() {
			_, err := service.UpdateRoleMenu(context.Background(), 777, Capabilities{}, 42)
			gomega.Expect(err).To(gomega.Equal(internal.ErrGrantNotFound))
		})

		ginkgo.It("can revoke view access, hiding the menu from the role", func() {
			rm, err := service.CreateRoleMenu(context.Background(), 2, 3, Capabilities{}, 99)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			updated, err := service.UpdateRoleMenu(context.Background(), rm.ID, Capabilities{CanView: false}, 42)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.CanView).To(gomega.BeFalse())
		})
	})
})

var _ = ginkgo.Describe("Guard", func() {
	var repo *mockGrantRepository
	var store *SessionStore
	var guard *Guard

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ginkgo.BeforeEach(func() {
		repo = newMockGrantRepository()
		repo.entries = []MenuRoleEntry{
			{MenuURL: "/users", RoleName: "admins"},
		}
		store = NewSessionStore()
		engine := NewEngine(NewIndexBuilder(repo, testLogger()), repo, testLogger())
		guard = NewGuard(engine, store, testLogger())
	})

	request := func(user *internal.CurrentUser) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		if user != nil {
			req = req.WithContext(internal.ContextWithUser(req.Context(), user))
		}
		rec := httptest.NewRecorder()
		guard.Require("/users")(okHandler).ServeHTTP(rec, req)
		return rec
	}

	envelope := func(rec *httptest.ResponseRecorder) map[string]any {
		gomega.Expect(rec.Header().Get("Content-Type")).To(gomega.Equal("application/json"))
		var body map[string]any
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		return body
	}

	ginkgo.It("returns 401 with the error envelope when no user is authenticated", func() {
		rec := request(nil)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))

		body := envelope(rec)
		gomega.Expect(body["code"]).To(gomega.BeEquivalentTo(http.StatusUnauthorized))
		gomega.Expect(body["message"]).To(gomega.Equal("Unauthorized"))
	})

	ginkgo.It("returns 403 with the error envelope when the user's roles are not authorized", func() {
		rec := request(&internal.CurrentUser{ID: 1, UserName: "bob", Roles: []string{"users"}})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))

		body := envelope(rec)
		gomega.Expect(body["code"]).To(gomega.BeEquivalentTo(http.StatusForbidden))
		gomega.Expect(body["message"]).To(gomega.ContainSubstring("insufficient permissions"))
	})

	ginkgo.It("passes through when the user holds an authorized role", func() {
		rec := request(&internal.CurrentUser{ID: 1, UserName: "alice", Roles: []string{"admins"}})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("registers a session from the token claims when none is live", func() {
		request(&internal.CurrentUser{ID: 7, UserName: "alice", Roles: []string{"admins"}})

		s, ok := store.Get(7)
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(s.Roles).To(gomega.Equal([]string{"admins"}))
	})

	ginkgo.It("returns 500 with the error envelope when the index cannot be built", func() {
		repo.sourceErr = errors.New("db down")
		rec := request(&internal.CurrentUser{ID: 1, UserName: "alice", Roles: []string{"admins"}})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
		gomega.Expect(envelope(rec)["code"]).To(gomega.BeEquivalentTo(http.StatusInternalServerError))
	})
})
