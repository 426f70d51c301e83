package pipeline

import (
	"context"
	"fmt"

	"salesetl/internal/storage"
)

// Lookup maps a normalized natural key (e.g. "Western Europe", or a
// customer's rebuilt "First Last" name) to the surrogate id storage assigned
// in an earlier stage.
//
// Lookups are always rebuilt by querying storage fresh at a stage boundary.
// The extraction set of the producing stage is never reused: the ids exist
// only in the database, and reading them back is what guarantees the foreign
// keys actually resolve.
type Lookup map[string]int64

// ID resolves the id for a (possibly composite) key. Parts are joined the
// same way SelectKeyValue builds its map keys.
func (l Lookup) ID(parts ...string) (int64, bool) {
	id, ok := l[storage.JoinKey(parts...)]
	return id, ok
}

// BuildLookup queries table and returns the key -> id mapping.
func BuildLookup(ctx context.Context, repo storage.Repository, table string, keyColumns []string, valueColumn string) (Lookup, error) {
	m, err := repo.SelectKeyValue(ctx, table, keyColumns, valueColumn)
	if err != nil {
		return nil, fmt.Errorf("build %s lookup: %w", table, err)
	}
	return Lookup(m), nil
}
