package authz

// AssignRoleDTO is the transport shape for assigning a role to a user.
type AssignRoleDTO struct {
	RoleID int64 `json:"role_id"`
}

func (d AssignRoleDTO) Validate() error {
	if d.RoleID <= 0 {
		return ValidationError{Msg: "role_id is required"}
	}
	return nil
}

// CreateRoleMenuDTO creates a grant; view access is implied and not
// accepted from the caller.
type CreateRoleMenuDTO struct {
	RoleID    int64 `json:"role_id"`
	MenuID    int64 `json:"menu_id"`
	CanCreate bool  `json:"can_create"`
	CanEdit   bool  `json:"can_edit"`
	CanDelete bool  `json:"can_delete"`
}

func (d CreateRoleMenuDTO) Validate() error {
	if d.RoleID <= 0 {
		return ValidationError{Msg: "role_id is required"}
	}
	if d.MenuID <= 0 {
		return ValidationError{Msg: "menu_id is required"}
	}
	return nil
}

// UpdateRoleMenuDTO replaces the capability flags of an existing grant.
type UpdateRoleMenuDTO struct {
	CanView   bool `json:"can_view"`
	CanCreate bool `json:"can_create"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }
