package authz

import "sort"

// Decision is the outcome of a URL access check. Deny is a regular result,
// never an error.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// Capabilities carries the four independent flags of a role-menu grant.
type Capabilities struct {
	CanView   bool `json:"can_view"`
	CanCreate bool `json:"can_create"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// RoleSet is a set of role names.
type RoleSet map[string]struct{}

func NewRoleSet(names ...string) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s RoleSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s RoleSet) Add(name string) {
	s[name] = struct{}{}
}

// Intersects reports whether any of the given role names is in the set.
func (s RoleSet) Intersects(names []string) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// Names returns the set members sorted, for stable logging and responses.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Index maps a menu URL to the set of role names allowed to view it. It is
// derived state: rebuilt from the store on demand, never edited in place.
type Index map[string]RoleSet

// AuthorizedRoles returns the role set for a URL. An unmapped URL has no
// authorized roles.
func (i Index) AuthorizedRoles(url string) RoleSet {
	return i[url]
}

// MenuRoleEntry is one row of the index source query: an active viewable
// grant joined to its role and menu.
type MenuRoleEntry struct {
	MenuURL  string `gorm:"column:menu_url"`
	RoleName string `gorm:"column:role_name"`
}
