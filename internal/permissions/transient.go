package permissions

import "context"

// TransientRecord is a time- and position-bounded grant applicable to one
// role, pointing at a specific target row. A record applies at lsn iff
// ValidFromLSN <= lsn < ValidToLSN.
type TransientRecord struct {
	TargetRelation Relation
	TargetID       string
	ValidFromLSN   uint64
	ValidToLSN     uint64
}

// Contains reports whether lsn falls inside the record's validity window.
func (r TransientRecord) Contains(lsn uint64) bool {
	return lsn >= r.ValidFromLSN && lsn < r.ValidToLSN
}

// TransientMatch pairs a scoped role-grant with the transient record that
// grants it a target outside its normal scope.
type TransientMatch struct {
	RoleGrant RoleGrant
	Record    TransientRecord
}

// TransientLookup retrieves time- and position-bounded grants applicable
// to a set of role-grants. The core treats it as an opaque handle backed
// by process-wide state it does not own.
type TransientLookup interface {
	ForRoles(ctx context.Context, roleGrants []RoleGrant, lsn uint64) ([]TransientMatch, error)
}
