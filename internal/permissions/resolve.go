package permissions

import "context"

// mode discriminates the grant-condition check applied by
// RoleGrantForChange: write mode checks both column subset and the check
// expression, read mode checks only the check expression.
type mode int

const (
	modeWrite mode = iota
	modeRead
)

// RoleGrantForChange is the shared resolution core consulted by both the
// write validator and the read filter. It walks a bucket's unscoped,
// then scoped, then transient role-grants in that fixed order and
// returns the first one admitting change, or nil if none does.
func RoleGrantForChange(ctx context.Context, bucket AssignedRoles, perms *CompiledPermissions, resolver ScopeResolver, change Change, lsn uint64, m mode) (*RoleGrant, error) {
	for i := range bucket.Unscoped {
		rg := bucket.Unscoped[i]
		if grantConditionsHold(rg.Grant, change, m) {
			return &rg, nil
		}
	}

	for i := range bucket.Scoped {
		rg := bucket.Scoped[i]
		if !grantConditionsHold(rg.Grant, change, m) {
			continue
		}
		in, err := changeInScope(ctx, resolver, rg.Role.Scope.Relation, rg.Role.Scope.ID, change)
		if err != nil {
			return nil, newResolverError(err, change.Relation)
		}
		if in {
			return &rg, nil
		}
	}

	if perms.TransientLookup != nil && len(bucket.Scoped) > 0 {
		matches, err := perms.TransientLookup.ForRoles(ctx, bucket.Scoped, lsn)
		if err != nil {
			return nil, newResolverError(err, change.Relation)
		}
		for _, match := range matches {
			if !grantConditionsHold(match.RoleGrant.Grant, change, m) {
				continue
			}
			in, err := changeInScope(ctx, resolver, match.Record.TargetRelation, match.Record.TargetID, change)
			if err != nil {
				return nil, newResolverError(err, change.Relation)
			}
			if in {
				rg := match.RoleGrant
				return &rg, nil
			}
		}
	}

	return nil, nil
}

// grantConditionsHold applies the mode-specific grant conditions: write
// mode requires both a valid column subset and a passing check; read
// mode requires only a passing check.
func grantConditionsHold(grant *Grant, change Change, m mode) bool {
	if m == modeWrite && !ColumnsValid(grant, change.writeColumns()) {
		return false
	}
	return CheckPasses(grant, change)
}
