package permissions

import (
	"context"

	"github.com/philly/edge-permissions/internal/platform/logger"
)

// ValidateWrite admits or rejects an entire transaction of edge writes.
// It expands scope-crossing updates into a doubled (Update, ScopeMove)
// pair, then folds over the expanded sequence threading the scope
// resolver forward. The fold short-circuits: the first rejection aborts
// and no later ApplyChange runs, so a rejected transaction leaves no
// resolver side effects visible to the caller.
func ValidateWrite(ctx context.Context, log logger.Logger, perms *CompiledPermissions, tx Transaction) error {
	expanded, err := expandScopeMoves(ctx, perms.ScopeResolver, perms.scopes, tx.Changes)
	if err != nil {
		return err
	}

	resolver := perms.ScopeResolver
	for _, change := range expanded {
		privilege := change.RequiredPrivilege()
		bucket, ok := perms.bucket(change.Relation, privilege)
		if !ok {
			return newDeniedError(privilege, change.Relation)
		}

		rg, err := RoleGrantForChange(ctx, bucket, perms, resolver, change, tx.LSN, modeWrite)
		if err != nil {
			return err
		}
		if rg == nil {
			return newDeniedError(privilege, change.Relation)
		}
		log.Debug(ctx, "write admitted", "relation", change.Relation.String(), "privilege", privilege, "role", rg.Role.Name)

		if resolver != nil {
			resolver, err = resolver.ApplyChange(ctx, change)
			if err != nil {
				return newResolverError(err, change.Relation)
			}
		}
	}

	return nil
}

// expandScopeMoves walks changes in order, emitting a synthetic
// ScopeMove immediately after every Update that modifies a foreign key
// participating in the path to one of scopes.
func expandScopeMoves(ctx context.Context, resolver ScopeResolver, scopes []Relation, changes []Change) ([]Change, error) {
	if resolver == nil || len(scopes) == 0 {
		return changes, nil
	}
	expanded := make([]Change, 0, len(changes))
	for _, change := range changes {
		expanded = append(expanded, change)
		if change.Kind != ChangeKindUpdate {
			continue
		}
		for _, scopeRelation := range scopes {
			modifies, err := resolver.ModifiesFK(ctx, scopeRelation, change)
			if err != nil {
				return nil, newResolverError(err, change.Relation)
			}
			if modifies {
				expanded = append(expanded, newScopeMove(change.Relation, change.Record))
				break
			}
		}
	}
	return expanded, nil
}
