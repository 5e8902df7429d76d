package permissions

// GrantFromRecord validates and normalises a GrantRecord. Privileges must
// be non-empty; a missing Columns list means all columns are permitted.
func GrantFromRecord(rec GrantRecord) (*Grant, error) {
	if len(rec.Privileges) == 0 {
		return nil, newConfigError("grant for role " + rec.RoleName + " has no privileges")
	}

	privileges := make(map[Privilege]struct{}, len(rec.Privileges))
	for _, p := range rec.Privileges {
		privileges[p] = struct{}{}
	}

	var columns map[string]struct{}
	if len(rec.Columns) > 0 {
		columns = make(map[string]struct{}, len(rec.Columns))
		for _, c := range rec.Columns {
			columns[c] = struct{}{}
		}
	}

	return &Grant{
		RoleName:   rec.RoleName,
		Relation:   Relation{Schema: rec.Schema, Table: rec.Table},
		Privileges: privileges,
		Columns:    columns,
		Check:      rec.Check,
	}, nil
}

// ColumnsValid reports whether every column in columns is permitted by
// grant. A nil Columns set on the grant permits every column. The empty
// columns set (deletes do not consult columns) is always valid.
func ColumnsValid(grant *Grant, columns map[string]struct{}) bool {
	if grant.Columns == nil {
		return true
	}
	for c := range columns {
		if _, ok := grant.Columns[c]; !ok {
			return false
		}
	}
	return true
}

// CheckPasses evaluates a grant's check expression against a change. A
// missing check always passes. A present check is a declared gap: it is
// accepted without evaluation until a real expression evaluator replaces
// this stub.
func CheckPasses(grant *Grant, change Change) bool {
	return true
}
