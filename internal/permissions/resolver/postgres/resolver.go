// Package postgres implements permissions.ScopeResolver against a
// Postgres schema, walking a declared table of foreign-key paths with
// squirrel-built queries over a pgx connection.
package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/philly/edge-permissions/internal/permissions"
	"github.com/philly/edge-permissions/internal/permissions/resolver"
	"github.com/philly/edge-permissions/internal/platform/postgres"
)

type edgeKey struct {
	Relation      permissions.Relation
	ScopeRelation permissions.Relation
}

type overrideKey struct {
	Relation      permissions.Relation
	ID            string
	ScopeRelation permissions.Relation
}

// ScopeResolver is the reference Postgres-backed permissions.ScopeResolver.
// It declares a static table of one-hop foreign-key paths and walks it
// with a query per unresolved row, memoising ApplyChange overrides in a
// persistent map so the predecessor value is never observably mutated.
type ScopeResolver struct {
	postgres.BaseRepository
	edges     map[edgeKey]string
	overrides map[overrideKey]string
}

// New builds a ScopeResolver from a base repository and a declared
// foreign-key path table.
func New(base postgres.BaseRepository, edges ...resolver.ScopeEdge) *ScopeResolver {
	m := make(map[edgeKey]string, len(edges))
	for _, e := range edges {
		m[edgeKey{Relation: e.Relation, ScopeRelation: e.ScopeRelation}] = e.Column
	}
	return &ScopeResolver{BaseRepository: base, edges: m, overrides: map[overrideKey]string{}}
}

// ScopeID implements permissions.ScopeResolver.
func (r *ScopeResolver) ScopeID(ctx context.Context, scopeRelation permissions.Relation, change permissions.Change) (string, bool, error) {
	rowID, ok := rowString(change.Row(), "id")
	if !ok {
		return "", false, nil
	}
	if change.Relation == scopeRelation {
		return rowID, true, nil
	}

	if ov, ok := r.overrides[overrideKey{Relation: change.Relation, ID: rowID, ScopeRelation: scopeRelation}]; ok {
		return ov, true, nil
	}

	column, ok := r.edges[edgeKey{Relation: change.Relation, ScopeRelation: scopeRelation}]
	if !ok {
		return "", false, nil
	}

	// Prefer the value already present on change.Row() (the new row for
	// Insert/ScopeMove, the old row for Update/Delete) and fall back to a
	// lookup query when that row does not carry the column.
	if v, ok := rowString(change.Row(), column); ok {
		return v, true, nil
	}

	query := r.SB.
		Select(column).
		From(change.Relation.String()).
		Where(sq.Eq{"id": rowID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build scope query for %s: %w", change.Relation, err)
	}

	var value string
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&value); err != nil {
		return "", false, fmt.Errorf("query scope for %s id=%s: %w", change.Relation, rowID, err)
	}
	return value, true, nil
}

// ModifiesFK implements permissions.ScopeResolver.
func (r *ScopeResolver) ModifiesFK(ctx context.Context, scopeRelation permissions.Relation, change permissions.Change) (bool, error) {
	if change.Kind != permissions.ChangeKindUpdate {
		return false, nil
	}
	column, ok := r.edges[edgeKey{Relation: change.Relation, ScopeRelation: scopeRelation}]
	if !ok {
		return false, nil
	}
	_, changed := change.ChangedColumns[column]
	return changed, nil
}

// ApplyChange implements permissions.ScopeResolver, returning a
// shallow-copied successor with the row's new scope ids recorded as
// overrides. Insert establishes a row's initial scope placement; Update
// re-places it only for the foreign-key columns in its ChangedColumns;
// ScopeMove, which carries no changed-column set, re-places it for every
// foreign-key column present on its new row; Delete has no successor
// state to record.
func (r *ScopeResolver) ApplyChange(ctx context.Context, change permissions.Change) (permissions.ScopeResolver, error) {
	if change.Kind == permissions.ChangeKindDelete {
		return r, nil
	}

	rowID, ok := changeRowID(change)
	if !ok {
		return r, nil
	}

	var dirty map[overrideKey]string
	for key, column := range r.edges {
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
			dirty = make(map[overrideKey]string, len(r.overrides)+1)
			for k, v := range r.overrides {
				dirty[k] = v
			}
		}
		dirty[overrideKey{Relation: change.Relation, ID: rowID, ScopeRelation: key.ScopeRelation}] = newID
	}
	if dirty == nil {
		return r, nil
	}

	return &ScopeResolver{BaseRepository: r.BaseRepository, edges: r.edges, overrides: dirty}, nil
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
