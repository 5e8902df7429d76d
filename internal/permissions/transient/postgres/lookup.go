// Package postgres implements permissions.TransientLookup against a
// transient_grants table with squirrel-built queries over a pgx
// connection.
package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/philly/edge-permissions/internal/permissions"
	"github.com/philly/edge-permissions/internal/platform/postgres"
)

// Lookup is the reference Postgres-backed permissions.TransientLookup. It
// queries a transient_grants table keyed by assignment id, returning
// records overlapping the requested lsn.
type Lookup struct {
	postgres.BaseRepository
}

// New builds a Lookup over the given base repository.
func New(base postgres.BaseRepository) *Lookup {
	return &Lookup{BaseRepository: base}
}

// ForRoles implements permissions.TransientLookup.
func (l *Lookup) ForRoles(ctx context.Context, roleGrants []permissions.RoleGrant, lsn uint64) ([]permissions.TransientMatch, error) {
	assignmentIDs := make([]string, 0, len(roleGrants))
	byAssignment := make(map[string][]permissions.RoleGrant, len(roleGrants))
	for _, rg := range roleGrants {
		if rg.Role.AssignmentID == "" {
			continue
		}
		if _, seen := byAssignment[rg.Role.AssignmentID]; !seen {
			assignmentIDs = append(assignmentIDs, rg.Role.AssignmentID)
		}
		byAssignment[rg.Role.AssignmentID] = append(byAssignment[rg.Role.AssignmentID], rg)
	}
	if len(assignmentIDs) == 0 {
		return nil, nil
	}

	query := l.SB.
		Select("assignment_id", "target_schema", "target_table", "target_id", "valid_from_lsn", "valid_to_lsn").
		From("transient_grants").
		Where(sq.Eq{"assignment_id": assignmentIDs}).
		Where(sq.LtOrEq{"valid_from_lsn": lsn}).
		Where(sq.Gt{"valid_to_lsn": lsn})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transient lookup query: %w", err)
	}

	rows, err := l.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query transient_grants: %w", err)
	}
	defer rows.Close()

	var matches []permissions.TransientMatch
	for rows.Next() {
		var (
			assignmentID            string
			targetSchema, targetTbl string
			targetID                string
			validFrom, validTo      uint64
		)
		if err := rows.Scan(&assignmentID, &targetSchema, &targetTbl, &targetID, &validFrom, &validTo); err != nil {
			return nil, fmt.Errorf("scan transient_grants row: %w", err)
		}
		rec := permissions.TransientRecord{
			TargetRelation: permissions.Relation{Schema: targetSchema, Table: targetTbl},
			TargetID:       targetID,
			ValidFromLSN:   validFrom,
			ValidToLSN:     validTo,
		}
		for _, rg := range byAssignment[assignmentID] {
			matches = append(matches, permissions.TransientMatch{RoleGrant: rg, Record: rec})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transient_grants: %w", err)
	}

	return matches, nil
}
