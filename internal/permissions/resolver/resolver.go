// Package resolver provides reference ScopeResolver implementations: an
// in-memory persistent double for tests, and (in resolver/postgres) a
// pgx/squirrel-backed implementation walking a declared foreign-key path.
package resolver

import "github.com/philly/edge-permissions/internal/permissions"

// ScopeEdge declares, for one (row relation, scope relation) pair, the
// column on the row that holds the scope's primary key directly. The
// reference implementations only walk one hop: a row resolves to a scope
// only through an edge registered for exactly that (relation, scope
// relation) pair, and edges are not chained through intermediate
// relations.
type ScopeEdge struct {
	Relation      permissions.Relation
	ScopeRelation permissions.Relation
	Column        string
}
