package authz

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/avagut/dynamic-user-menus/internal"
)

// Guard wraps protected handlers with the URL access check so the decision
// is applied uniformly before any handler body runs.
type Guard struct {
	engine *Engine
	store  *SessionStore
	logger *slog.Logger
}

func NewGuard(engine *Engine, store *SessionStore, logger *slog.Logger) *Guard {
	return &Guard{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

// Require returns middleware gating the route behind the menu registered
// under menuURL. No authenticated user means 401; a user whose roles do
// not intersect the URL's authorized roles gets 403. A session without a
// cached index gets one built before the decision, never a silent deny.
func (g *Guard) Require(menuURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok || user == nil {
				g.logger.Warn("access check failed: user not found in context", "url", menuURL)
				g.deny(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			session := g.sessionFor(user)

			decision, err := g.engine.CheckAccess(r.Context(), session, menuURL)
			if err != nil {
				g.logger.Error("access check failed", "error", err, "user_id", user.ID, "url", menuURL)
				g.deny(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			if decision == Deny {
				g.deny(w, http.StatusForbidden, "Forbidden: insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// deny writes the standard error envelope so guarded routes fail with the
// same JSON shape the handlers use.
func (g *Guard) deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    status,
		"message": message,
	}); err != nil {
		g.logger.Error("failed to encode JSON response", "error", err)
	}
}

// sessionFor returns the live session for the user, registering one from
// the token's role claims when the login predates this process.
func (g *Guard) sessionFor(user *internal.CurrentUser) *Session {
	if s, ok := g.store.Get(user.ID); ok {
		return s
	}
	s := NewSession(user.ID, user.Roles)
	g.store.Put(s)
	return s
}
