package authz

import (
	"context"
	"log/slog"

	"github.com/avagut/dynamic-user-menus/internal/core/datamodel/grant"
)

// CapabilityReader loads the active grant for a role-menu pair, nil when
// none exists.
type CapabilityReader interface {
	ActiveRoleMenu(ctx context.Context, roleID, menuID int64) (*grant.RoleMenu, error)
}

// Engine makes the allow/deny decisions. URL decisions read the session's
// cached index, building it first when missing; absence of an index entry
// is a deny, never an error.
type Engine struct {
	builder *IndexBuilder
	caps    CapabilityReader
	logger  *slog.Logger
}

func NewEngine(builder *IndexBuilder, caps CapabilityReader, logger *slog.Logger) *Engine {
	return &Engine{
		builder: builder,
		caps:    caps,
		logger:  logger,
	}
}

// CheckAccess decides whether the session's user may reach the URL. The
// decision is the intersection of the user's roles with the URL's
// authorized roles; an unmapped URL is denied.
func (e *Engine) CheckAccess(ctx context.Context, session *Session, url string) (Decision, error) {
	if session == nil {
		return Deny, nil
	}

	idx, ok := session.Index()
	if !ok {
		fresh, err := e.builder.Build(ctx)
		if err != nil {
			return Deny, err
		}
		session.ReplaceIndex(fresh)
		idx = fresh
	}

	authorized := idx.AuthorizedRoles(url)
	if authorized == nil {
		e.logger.Debug("no authorized roles for url", "url", url)
		return Deny, nil
	}

	if authorized.Intersects(session.Roles) {
		return Allow, nil
	}

	e.logger.Warn("access denied",
		"user_id", session.UserID,
		"url", url,
		"user_roles", session.Roles,
		"authorized_roles", authorized.Names())
	return Deny, nil
}

// Capabilities returns the four flags of the active grant for a role-menu
// pair, or all-false when no active grant exists. Used by administrative
// screens, not for gating routes.
func (e *Engine) Capabilities(ctx context.Context, roleID, menuID int64) (Capabilities, error) {
	rm, err := e.caps.ActiveRoleMenu(ctx, roleID, menuID)
	if err != nil {
		return Capabilities{}, err
	}
	if rm == nil {
		return Capabilities{}, nil
	}
	return Capabilities{
		CanView:   rm.CanView,
		CanCreate: rm.CanCreate,
		CanEdit:   rm.CanEdit,
		CanDelete: rm.CanDelete,
	}, nil
}
