package permissions

import "fmt"

// RoleFromRecord decodes one RoleRecord into an Assigned Role. Anyone and
// Authenticated are never represented as records; they are injected
// directly by the compiler.
func RoleFromRecord(rec RoleRecord) (*Role, error) {
	if rec.Kind != "assigned" {
		return nil, newConfigError(fmt.Sprintf("unknown role kind %q", rec.Kind))
	}
	if rec.Name == "" {
		return nil, newConfigError("assigned role record is missing a name")
	}

	var scope *Scope
	if rec.ScopeTable != "" {
		scope = &Scope{
			Relation: Relation{Schema: rec.ScopeSchema, Table: rec.ScopeTable},
			ID:       rec.ScopeID,
		}
	}

	return NewAssignedRole(rec.Name, rec.UserID, rec.AssignmentID, scope), nil
}

// MatchingGrants returns every grant whose RoleName equals this role's
// matching name: the reserved tokens for Anyone/Authenticated, or the
// role's own name for Assigned roles.
func MatchingGrants(role *Role, grants []*Grant) []*Grant {
	name := roleMatchName(role)

	var matches []*Grant
	for _, g := range grants {
		if g.RoleName == name {
			matches = append(matches, g)
		}
	}
	return matches
}

func roleMatchName(role *Role) string {
	switch role.Kind {
	case RoleKindAnyone:
		return RoleNameAnyone
	case RoleKindAuthenticated:
		return RoleNameAuthenticated
	default:
		return role.Name
	}
}
