package authz

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/avagut/dynamic-user-menus/internal"
	"github.com/avagut/dynamic-user-menus/internal/transport"
	"github.com/avagut/dynamic-user-menus/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Grants *GrantService
	Engine *Engine
}

func NewHandler(grants *GrantService, engine *Engine) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Grants:      grants,
		Engine:      engine,
	}
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		status, body := appErr.ToHTTPResponse()
		h.WriteJSON(w, status, body)
		return
	}
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}

func urlParamInt64(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// AssignRole handles POST /users/{userID}/roles
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, ok := urlParamInt64(r, "userID")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var dto AssignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Grants.AssignRole(r.Context(), userID, dto.RoleID, actor.ID); err != nil {
		h.writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// UnassignRole handles DELETE /users/{userID}/roles/{roleID}
func (h *Handler) UnassignRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, ok := urlParamInt64(r, "userID")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	roleID, ok := urlParamInt64(r, "roleID")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}

	if err := h.Grants.UnassignRole(r.Context(), userID, roleID, actor.ID); err != nil {
		h.writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateRoleMenu handles POST /role-menus
func (h *Handler) CreateRoleMenu(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateRoleMenuDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	flags := Capabilities{
		CanCreate: dto.CanCreate,
		CanEdit:   dto.CanEdit,
		CanDelete: dto.CanDelete,
	}
	rm, err := h.Grants.CreateRoleMenu(r.Context(), dto.RoleID, dto.MenuID, flags, actor.ID)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, rm)
}

// UpdateRoleMenu handles PATCH /role-menus/{grantID}
func (h *Handler) UpdateRoleMenu(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	grantID, ok := urlParamInt64(r, "grantID")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid grant id")
		return
	}

	var dto UpdateRoleMenuDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flags := Capabilities{
		CanView:   dto.CanView,
		CanCreate: dto.CanCreate,
		CanEdit:   dto.CanEdit,
		CanDelete: dto.CanDelete,
	}
	rm, err := h.Grants.UpdateRoleMenu(r.Context(), grantID, flags, actor.ID)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rm)
}

// GetRoleMenus handles GET /roles/{roleID}/menus
func (h *Handler) GetRoleMenus(w http.ResponseWriter, r *http.Request) {
	roleID, ok := urlParamInt64(r, "roleID")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}

	details, err := h.Grants.RoleMenus(r.Context(), roleID)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, details)
}

// GetRoleMenuDetail handles GET /role-menus/{grantID}
func (h *Handler) GetRoleMenuDetail(w http.ResponseWriter, r *http.Request) {
	grantID, ok := urlParamInt64(r, "grantID")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid grant id")
		return
	}

	detail, err := h.Grants.RoleMenuDetail(r.Context(), grantID)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, detail)
}

// GetCapabilities handles GET /roles/{roleID}/menus/{menuID}/capabilities
func (h *Handler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	roleID, ok := urlParamInt64(r, "roleID")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	menuID, ok := urlParamInt64(r, "menuID")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid menu id")
		return
	}

	caps, err := h.Engine.Capabilities(r.Context(), roleID, menuID)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, caps)
}
