package permissions

import (
	"context"

	"github.com/philly/edge-permissions/internal/platform/logger"
)

// Update folds grantRecords and roleRecords into a fresh
// CompiledPermissions, carrying forward prev's identity, scope resolver
// and transient lookup handle. The compiler is a pure function of its
// inputs: repeated invocations with equal inputs produce structurally
// equal outputs, with bucket order following the input order of roles
// then grants.
func Update(ctx context.Context, log logger.Logger, prev *CompiledPermissions, grantRecords []GrantRecord, roleRecords []RoleRecord) (*CompiledPermissions, error) {
	roles := make([]*Role, 0, len(roleRecords)+2)
	if prev.Identity.Authenticated() {
		roles = append(roles, NewAuthenticatedRole())
	}
	roles = append(roles, NewAnyoneRole())
	for _, rec := range roleRecords {
		role, err := RoleFromRecord(rec)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}

	grants := make([]*Grant, 0, len(grantRecords))
	for _, rec := range grantRecords {
		grant, err := GrantFromRecord(rec)
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}

	lookup := map[lookupKey][]RoleGrant{}
	var lookupOrder []lookupKey
	scopedRoles := map[Relation][]*Role{}
	var scopeOrder []Relation

	for _, role := range roles {
		matches := MatchingGrants(role, grants)
		if len(matches) == 0 {
			continue
		}
		if HasScope(role) {
			if _, seen := scopedRoles[role.Scope.Relation]; !seen {
				scopeOrder = append(scopeOrder, role.Scope.Relation)
			}
			scopedRoles[role.Scope.Relation] = append(scopedRoles[role.Scope.Relation], role)
		}
		for _, grant := range matches {
			for privilege := range grant.Privileges {
				key := lookupKey{Relation: grant.Relation, Privilege: privilege}
				if _, seen := lookup[key]; !seen {
					lookupOrder = append(lookupOrder, key)
				}
				lookup[key] = append(lookup[key], RoleGrant{Role: role, Grant: grant})
			}
		}
	}

	roleLookup := make(map[lookupKey]AssignedRoles, len(lookup))
	for _, key := range lookupOrder {
		var bucket AssignedRoles
		for _, rg := range lookup[key] {
			if HasScope(rg.Role) {
				bucket.Scoped = append(bucket.Scoped, rg)
			} else {
				bucket.Unscoped = append(bucket.Unscoped, rg)
			}
		}
		roleLookup[key] = bucket
	}

	compiled := &CompiledPermissions{
		Identity:        prev.Identity,
		roleLookup:      roleLookup,
		scopedRoles:     scopedRoles,
		scopes:          scopeOrder,
		ScopeResolver:   prev.ScopeResolver,
		TransientLookup: prev.TransientLookup,
	}

	log.Debug(ctx, "compiled permissions", "roles", len(roles), "grants", len(grants), "keys", len(roleLookup))

	return compiled, nil
}
