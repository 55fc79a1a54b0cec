package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/avagut/dynamic-user-menus/internal/auth"
	"github.com/avagut/dynamic-user-menus/internal/authz"
	"github.com/avagut/dynamic-user-menus/internal/menu"
	"github.com/avagut/dynamic-user-menus/internal/role"
	"github.com/avagut/dynamic-user-menus/internal/transport/middleware"
	"github.com/avagut/dynamic-user-menus/internal/transport/swagger"
	"github.com/avagut/dynamic-user-menus/internal/user"
)

// Menu URLs guarding the admin route groups. These are the rows seeded
// into nav_menus; granting a role can_view on one of them opens the
// matching group.
const (
	MenuUsers           = "/users"
	MenuUserRoles       = "/users/roles"
	MenuNavMenus        = "/nav/menus"
	MenuMenusManagement = "/nav/menus_management"
)

// RegisterAllRoutes mounts the admin API under /api/v1. Every admin group
// sits behind the auth middleware plus the URL guard for its menu.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	roleHandler *role.Handler,
	menuHandler *menu.Handler,
	authzHandler *authz.Handler,
	guard *authz.Guard,
	allowedOrigins string,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TraceID)
	router.Use(middleware.RequestLogging(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes, no token required
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/confirm", authHandler.ConfirmEmail)
			sr.Post("/confirm/resend", authHandler.ResendConfirmation)
			sr.Post("/password/forgot", authHandler.ForgotPassword)
			sr.Post("/password/reset", authHandler.ResetPassword)
		})

		// Everything below requires a valid access token
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Post("/auth/logout", authHandler.Logout)

			// User administration
			pr.Group(func(ur chi.Router) {
				ur.Use(guard.Require(MenuUsers))
				ur.Get("/users", userHandler.SearchUsers)
				ur.Post("/users", userHandler.CreateUser)
				ur.Get("/users/{userID}", userHandler.GetUser)
				ur.Put("/users/{userID}", userHandler.UpdateUser)
				ur.Delete("/users/{userID}", userHandler.DeleteUser)
			})

			// Role administration and user-role assignment
			pr.Group(func(rr chi.Router) {
				rr.Use(guard.Require(MenuUserRoles))
				rr.Get("/roles", roleHandler.SearchRoles)
				rr.Post("/roles", roleHandler.CreateRole)
				rr.Get("/roles/{roleID}", roleHandler.GetRole)
				rr.Put("/roles/{roleID}", roleHandler.UpdateRole)

				rr.Get("/users/{userID}/roles", userHandler.GetUserRoles)
				rr.Get("/users/{userID}/roles/assignable", roleHandler.GetAssignableRoles)
				rr.Post("/users/{userID}/roles", authzHandler.AssignRole)
				rr.Delete("/users/{userID}/roles/{roleID}", authzHandler.UnassignRole)
			})

			// Menu catalog
			pr.Group(func(mr chi.Router) {
				mr.Use(guard.Require(MenuNavMenus))
				mr.Get("/menus", menuHandler.SearchMenus)
				mr.Post("/menus", menuHandler.CreateMenu)
				mr.Get("/menus/active", menuHandler.GetActiveMenus)
				mr.Get("/menus/{menuID}", menuHandler.GetMenu)
				mr.Put("/menus/{menuID}", menuHandler.UpdateMenu)
			})

			// Role-menu grants
			pr.Group(func(gr chi.Router) {
				gr.Use(guard.Require(MenuMenusManagement))
				gr.Get("/roles/{roleID}/menus", authzHandler.GetRoleMenus)
				gr.Get("/roles/{roleID}/menus/{menuID}/capabilities", authzHandler.GetCapabilities)
				gr.Post("/role-menus", authzHandler.CreateRoleMenu)
				gr.Get("/role-menus/{grantID}", authzHandler.GetRoleMenuDetail)
				gr.Patch("/role-menus/{grantID}", authzHandler.UpdateRoleMenu)
			})
		})
	})
}
