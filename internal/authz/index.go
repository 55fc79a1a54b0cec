package authz

import (
	"context"
	"log/slog"
)

// IndexSource supplies the rows the Authorization Index is derived from.
type IndexSource interface {
	ViewableMenuRoles(ctx context.Context) ([]MenuRoleEntry, error)
}

// IndexBuilder recomputes the URL to allowed-roles mapping from the store.
type IndexBuilder struct {
	source IndexSource
	logger *slog.Logger
}

func NewIndexBuilder(source IndexSource, logger *slog.Logger) *IndexBuilder {
	return &IndexBuilder{
		source: source,
		logger: logger,
	}
}

// Build scans every active role-menu grant with can_view set, grouping the
// distinct role names per menu URL. The result is a fresh map; callers swap
// it into the session cache wholesale.
func (b *IndexBuilder) Build(ctx context.Context) (Index, error) {
	entries, err := b.source.ViewableMenuRoles(ctx)
	if err != nil {
		b.logger.Error("failed to load viewable menu roles", "error", err)
		return nil, err
	}

	idx := make(Index)
	for _, e := range entries {
		roles, ok := idx[e.MenuURL]
		if !ok {
			roles = make(RoleSet)
			idx[e.MenuURL] = roles
		}
		roles.Add(e.RoleName)
	}

	b.logger.Debug("authorization index built", "urls", len(idx), "entries", len(entries))
	return idx, nil
}
