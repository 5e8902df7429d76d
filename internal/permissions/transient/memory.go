// Package transient provides reference permissions.TransientLookup
// implementations: an in-memory slice-backed double for tests, and (in
// transient/postgres) a pgx/squirrel-backed implementation querying a
// transient_grants table.
package transient

import (
	"context"

	"github.com/philly/edge-permissions/internal/permissions"
)

// record pairs an assignment id (the key matched against a RoleGrant's
// originating Assigned role) with the TransientRecord it grants.
type record struct {
	assignmentID string
	record       permissions.TransientRecord
}

// MemoryLookup is an in-memory permissions.TransientLookup double for
// tests. It holds a fixed slice of records seeded at construction; it is
// not safe for concurrent mutation after construction but requires none.
type MemoryLookup struct {
	records []record
}

// NewMemoryLookup builds an empty MemoryLookup.
func NewMemoryLookup() *MemoryLookup {
	return &MemoryLookup{}
}

// Seed registers a transient record for the role with the given
// assignment id.
func (m *MemoryLookup) Seed(assignmentID string, rec permissions.TransientRecord) *MemoryLookup {
	m.records = append(m.records, record{assignmentID: assignmentID, record: rec})
	return m
}

// ForRoles implements permissions.TransientLookup.
func (m *MemoryLookup) ForRoles(ctx context.Context, roleGrants []permissions.RoleGrant, lsn uint64) ([]permissions.TransientMatch, error) {
	var matches []permissions.TransientMatch
	for _, rg := range roleGrants {
		if rg.Role.AssignmentID == "" {
			continue
		}
		for _, rec := range m.records {
			if rec.assignmentID != rg.Role.AssignmentID {
				continue
			}
			if !rec.record.Contains(lsn) {
				continue
			}
			matches = append(matches, permissions.TransientMatch{RoleGrant: rg, Record: rec.record})
		}
	}
	return matches, nil
}
