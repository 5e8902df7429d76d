package resolver

import (
	"context"
	"fmt"

	"github.com/philly/edge-permissions/internal/permissions"
)

type overrideKey struct {
	Relation      permissions.Relation
	ID            string
	ScopeRelation permissions.Relation
}

// MemoryResolver is an in-memory, persistent ScopeResolver reference
// implementation for tests. It resolves a scope id from a declared
// one-hop foreign-key column on the row, consulting its overrides map
// first so that ApplyChange can re-parent a row without mutating the
// predecessor resolver.
type MemoryResolver struct {
	edges     map[edgeKey]string // (relation, scopeRelation) -> FK column
	overrides map[overrideKey]string
}

type edgeKey struct {
	Relation      permissions.Relation
	ScopeRelation permissions.Relation
}

// NewMemoryResolver builds a MemoryResolver from a static table of
// foreign-key paths.
func NewMemoryResolver(edges ...ScopeEdge) *MemoryResolver {
	m := &MemoryResolver{
		edges:     make(map[edgeKey]string, len(edges)),
		overrides: map[overrideKey]string{},
	}
	for _, e := range edges {
		m.edges[edgeKey{Relation: e.Relation, ScopeRelation: e.ScopeRelation}] = e.Column
	}
	return m
}

// ScopeID implements permissions.ScopeResolver.
func (m *MemoryResolver) ScopeID(ctx context.Context, scopeRelation permissions.Relation, change permissions.Change) (string, bool, error) {
	if change.Relation == scopeRelation {
		id, ok := rowString(change.Row(), "id")
		return id, ok, nil
	}

	rowID, ok := rowString(change.Row(), "id")
	if !ok {
		return "", false, nil
	}
	if ov, ok := m.overrides[overrideKey{Relation: change.Relation, ID: rowID, ScopeRelation: scopeRelation}]; ok {
		return ov, true, nil
	}

	column, ok := m.edges[edgeKey{Relation: change.Relation, ScopeRelation: scopeRelation}]
	if !ok {
		return "", false, nil
	}
	id, ok := rowString(change.Row(), column)
	return id, ok, nil
}

// ModifiesFK implements permissions.ScopeResolver.
func (m *MemoryResolver) ModifiesFK(ctx context.Context, scopeRelation permissions.Relation, change permissions.Change) (bool, error) {
	if change.Kind != permissions.ChangeKindUpdate {
		return false, nil
	}
	column, ok := m.edges[edgeKey{Relation: change.Relation, ScopeRelation: scopeRelation}]
	if !ok {
		return false, nil
	}
	_, changed := change.ChangedColumns[column]
	return changed, nil
}

// ApplyChange implements permissions.ScopeResolver. It returns a
// shallow-copied successor resolver with the row's new scope id recorded
// as an override, so the predecessor resolver is never observably
// mutated. Insert establishes a row's initial scope placement; Update
// re-places it only for the foreign-key columns in its ChangedColumns;
// ScopeMove, which carries no changed-column set, re-places it for every
// foreign-key column present on its new row; Delete has no successor
// state to record.
func (m *MemoryResolver) ApplyChange(ctx context.Context, change permissions.Change) (permissions.ScopeResolver, error) {
	if change.Kind == permissions.ChangeKindDelete {
		return m, nil
	}

	rowID, ok := changeRowID(change)
	if !ok {
		return m, nil
	}

	var dirty map[overrideKey]string
	for key, column := range m.edges {
		if key.Relation != change.Relation {
			continue
		}
		if change.Kind == permissions.ChangeKindUpdate {
			if _, changed := change.ChangedColumns[column]; !changed {
				continue
			}
		}
		newID, ok := rowString(change.Record, column)
		if !ok {
			continue
		}
		if dirty == nil {
			dirty = make(map[overrideKey]string, len(m.overrides)+1)
			for k, v := range m.overrides {
				dirty[k] = v
			}
		}
		dirty[overrideKey{Relation: change.Relation, ID: rowID, ScopeRelation: key.ScopeRelation}] = newID
	}
	if dirty == nil {
		return m, nil
	}

	return &MemoryResolver{edges: m.edges, overrides: dirty}, nil
}

// changeRowID extracts the row's "id" column, preferring the new record
// (present on Insert/Update/ScopeMove) and falling back to the old
// record (present on Delete).
func changeRowID(change permissions.Change) (string, bool) {
	if change.Record != nil {
		if id, ok := rowString(change.Record, "id"); ok {
			return id, true
		}
	}
	if change.OldRecord != nil {
		return rowString(change.OldRecord, "id")
	}
	return "", false
}

func rowString(row map[string]any, column string) (string, bool) {
	v, ok := row[column]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", v), true
}
