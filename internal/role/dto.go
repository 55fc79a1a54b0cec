package role

import "strings"

type CreateRoleDTO struct {
	RoleName        string `json:"role_name"`
	RoleDescription string `json:"role_description"`
	IsDefault       bool   `json:"is_default"`
}

type UpdateRoleDTO struct {
	RoleName        string `json:"role_name"`
	RoleDescription string `json:"role_description"`
	IsActive        *bool  `json:"is_active,omitempty"`
	IsDefault       *bool  `json:"is_default,omitempty"`
}

// SearchParams filters and orders a role listing. Search is a
// case-insensitive substring matched against name and description.
type SearchParams struct {
	Search   string
	SortBy   string
	SortDesc bool
}

var sortColumns = map[string]string{
	"role_name":        "role_name",
	"role_description": "role_description",
	"created":          "created_datetime",
}

const defaultSortColumn = "role_name"

func (p SearchParams) SortColumn() string {
	if col, ok := sortColumns[strings.ToLower(p.SortBy)]; ok {
		return col
	}
	return defaultSortColumn
}

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d CreateRoleDTO) Validate() error {
	if d.RoleName == "" {
		return ValidationError{Msg: "role_name is required"}
	}
	if d.RoleDescription == "" {
		return ValidationError{Msg: "role_description is required"}
	}
	return nil
}

func (d UpdateRoleDTO) Validate() error {
	if d.RoleName == "" {
		return ValidationError{Msg: "role_name is required"}
	}
	if d.RoleDescription == "" {
		return ValidationError{Msg: "role_description is required"}
	}
	return nil
}
