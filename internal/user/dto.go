package user

import "strings"

type CreateUserDTO struct {
	UserName  string `json:"user_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type UpdateUserDTO struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

// SearchParams filters and orders a user listing. Search is a
// case-insensitive substring matched against username, first/last name
// and email.
type SearchParams struct {
	Search   string
	SortBy   string
	SortDesc bool
}

// sortColumns maps accepted sort keys to their storage columns. Unknown
// keys fall back to the default ordering.
var sortColumns = map[string]string{
	"user_name":  "user_name",
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"created":    "created_datetime",
	"last_login": "login_datetime",
}

const defaultSortColumn = "user_name"

// SortColumn resolves the whitelisted storage column for the requested
// sort key.
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

func (d CreateUserDTO) Validate() error {
	if d.UserName == "" {
		return ValidationError{Msg: "user_name is required"}
	}
	if d.FirstName == "" {
		return ValidationError{Msg: "first_name is required"}
	}
	if d.LastName == "" {
		return ValidationError{Msg: "last_name is required"}
	}
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	return nil
}

func (d UpdateUserDTO) Validate() error {
	if d.FirstName == "" {
		return ValidationError{Msg: "first_name is required"}
	}
	if d.LastName == "" {
		return ValidationError{Msg: "last_name is required"}
	}
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	return nil
}
