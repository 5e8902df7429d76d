package permissions

import "context"

// ScopeResolver resolves the scope-root row owning an arbitrary change,
// and detects foreign-key edits that re-parent a row across scopes.
// Implementations must be persistent/functional: ApplyChange returns a
// successor value without observably mutating the receiver, so a rejected
// transaction can discard its intermediate resolvers for free.
type ScopeResolver interface {
	// ScopeID returns the primary key of the scope-root row that owns
	// change's row within scopeRelation, walking foreign keys as needed.
	// The second return value is false if the row lies outside that
	// scope (not an error).
	ScopeID(ctx context.Context, scopeRelation Relation, change Change) (id string, ok bool, err error)

	// ModifiesFK reports whether change edits a foreign key that
	// participates in the path from change.Relation up to scopeRelation.
	ModifiesFK(ctx context.Context, scopeRelation Relation, change Change) (bool, error)

	// ApplyChange returns a successor resolver reflecting change's effect
	// on scope state, e.g. a row's new parent.
	ApplyChange(ctx context.Context, change Change) (ScopeResolver, error)
}

// changeInScope reports whether change's scope-root under scopeRelation
// resolves to exactly scopeID.
func changeInScope(ctx context.Context, resolver ScopeResolver, scopeRelation Relation, scopeID string, change Change) (bool, error) {
	id, ok, err := resolver.ScopeID(ctx, scopeRelation, change)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return id == scopeID, nil
}
