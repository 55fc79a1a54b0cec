package menu

import "strings"

type CreateMenuDTO struct {
	MenuURL  string `json:"menu_url"`
	MenuName string `json:"menu_name"`
	MenuText string `json:"menu_text"`
}

type UpdateMenuDTO struct {
	MenuURL  string `json:"menu_url"`
	MenuName string `json:"menu_name"`
	MenuText string `json:"menu_text"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// SearchParams filters and orders a menu listing. Search is a
// case-insensitive substring matched against url and display text.
type SearchParams struct {
	Search   string
	SortBy   string
	SortDesc bool
}

var sortColumns = map[string]string{
	"menu_name": "menu_name",
	"menu_url":  "menu_url",
	"menu_text": "menu_text",
	"created":   "created_datetime",
}

const defaultSortColumn = "menu_name"

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

func validateMenuFields(url, name, text string) error {
	if url == "" || !strings.HasPrefix(url, "/") {
		return ValidationError{Msg: "menu_url must start with /"}
	}
	if name == "" {
		return ValidationError{Msg: "menu_name is required"}
	}
	if text == "" {
		return ValidationError{Msg: "menu_text is required"}
	}
	return nil
}

func (d CreateMenuDTO) Validate() error {
	return validateMenuFields(d.MenuURL, d.MenuName, d.MenuText)
}

func (d UpdateMenuDTO) Validate() error {
	return validateMenuFields(d.MenuURL, d.MenuName, d.MenuText)
}
