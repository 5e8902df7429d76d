package permissions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philly/edge-permissions/internal/permissions"
	"github.com/philly/edge-permissions/internal/permissions/resolver"
	"github.com/philly/edge-permissions/internal/permissions/transient"
)

var projects = permissions.Relation{Schema: "public", Table: "projects"}

func compile(t *testing.T, identity permissions.Identity, scopeResolver permissions.ScopeResolver, transientLookup permissions.TransientLookup, grants []permissions.GrantRecord, roles []permissions.RoleRecord) *permissions.CompiledPermissions {
	t.Helper()
	prev := permissions.New(identity, scopeResolver, transientLookup)
	compiled, err := permissions.Update(context.Background(), noopLogger(), prev, grants, roles)
	require.NoError(t, err)
	return compiled
}

// Seed scenario 2: unscoped write.
func TestValidateWrite_UnscopedWrite(t *testing.T) {
	compiled := compile(t, permissions.Identity{UserID: "u1"}, nil, nil,
		[]permissions.GrantRecord{{RoleName: permissions.RoleNameAuthenticated, Schema: "public", Table: "issues", Privileges: []permissions.Privilege{permissions.PrivilegeInsert}}},
		nil)

	tx := permissions.Transaction{Changes: []permissions.Change{permissions.NewInsert(issues, map[string]any{"id": "1"})}}

	assert.NoError(t, permissions.ValidateWrite(context.Background(), noopLogger(), compiled, tx))
}

// Seed scenario 1: anyone-read write side — an insert is rejected when
// only SELECT is granted.
func TestValidateWrite_RejectsWhenOnlySelectGranted(t *testing.T) {
	compiled := compile(t, permissions.Identity{}, nil, nil,
		[]permissions.GrantRecord{{RoleName: permissions.RoleNameAnyone, Schema: "public", Table: "issues", Privileges: []permissions.Privilege{permissions.PrivilegeSelect}}},
		nil)

	tx := permissions.Transaction{Changes: []permissions.Change{permissions.NewInsert(issues, map[string]any{"id": "1"})}}

	err := permissions.ValidateWrite(context.Background(), noopLogger(), compiled, tx)
	require.Error(t, err)
	assert.Equal(t, "user does not have permission to INSERT INTO public.issues", err.Error())
}

// Seed scenario 3: column-restricted update.
func TestValidateWrite_ColumnRestrictedUpdate(t *testing.T) {
	compiled := compile(t, permissions.Identity{UserID: "u1"}, nil, nil,
		[]permissions.GrantRecord{{
			RoleName:   permissions.RoleNameAuthenticated,
			Schema:     "public",
			Table:      "issues",
			Privileges: []permissions.Privilege{permissions.PrivilegeUpdate},
			Columns:    []string{"title"},
		}},
		nil)

	ok := permissions.Transaction{Changes: []permissions.Change{
		permissions.NewUpdate(issues, map[string]any{"id": "1", "title": "x"}, map[string]any{"id": "1", "title": "y"}, map[string]struct{}{"title": {}}),
	}}
	assert.NoError(t, permissions.ValidateWrite(context.Background(), noopLogger(), compiled, ok))

	rejected := permissions.Transaction{Changes: []permissions.Change{
		permissions.NewUpdate(issues, map[string]any{"id": "1", "title": "x", "status": "closed"}, map[string]any{"id": "1", "title": "y", "status": "open"}, map[string]struct{}{"title": {}, "status": {}}),
	}}
	assert.Error(t, permissions.ValidateWrite(context.Background(), noopLogger(), compiled, rejected))
}

// Seed scenario 4: scoped update inside/outside scope.
func TestValidateWrite_ScopedUpdate(t *testing.T) {
	res := resolver.NewMemoryResolver(resolver.ScopeEdge{Relation: issues, ScopeRelation: projects, Column: "project_id"})
	roles := []permissions.RoleRecord{{Kind: "assigned", Name: "member", UserID: "u1", AssignmentID: "a1", ScopeSchema: "public", ScopeTable: "projects", ScopeID: "7"}}
	grants := []permissions.GrantRecord{{RoleName: "member", Schema: "public", Table: "issues", Privileges: []permissions.Privilege{permissions.PrivilegeUpdate}}}

	compiled := compile(t, permissions.Identity{UserID: "u1"}, res, nil, grants, roles)

	inScope := permissions.Transaction{Changes: []permissions.Change{
		permissions.NewUpdate(issues, map[string]any{"id": "42", "project_id": "7"}, map[string]any{"id": "42", "project_id": "7"}, map[string]struct{}{"title": {}}),
	}}
	assert.NoError(t, permissions.ValidateWrite(context.Background(), noopLogger(), compiled, inScope))

	outOfScope := permissions.Transaction{Changes: []permissions.Change{
		permissions.NewUpdate(issues, map[string]any{"id": "42", "project_id": "8"}, map[string]any{"id": "42", "project_id": "8"}, map[string]struct{}{"title": {}}),
	}}
	assert.Error(t, permissions.ValidateWrite(context.Background(), noopLogger(), compiled, outOfScope))
}

// Seed scenario 5: scope move rejected when destination scope unauthorised.
func TestValidateWrite_ScopeMoveRejected(t *testing.T) {
	res := resolver.NewMemoryResolver(resolver.ScopeEdge{Relation: issues, ScopeRelation: projects, Column: "project_id"})
	roles := []permissions.RoleRecord{{Kind: "assigned", Name: "member", UserID: "u1", AssignmentID: "a1", ScopeSchema: "public", ScopeTable: "projects", ScopeID: "7"}}
	grants := []permissions.GrantRecord{{RoleName: "member", Schema: "public", Table: "issues", Privileges: []permissions.Privilege{permissions.PrivilegeUpdate}}}

	compiled := compile(t, permissions.Identity{UserID: "u1"}, res, nil, grants, roles)

	move := permissions.Transaction{Changes: []permissions.Change{
		permissions.NewUpdate(issues,
			map[string]any{"id": "42", "project_id": "8"},
			map[string]any{"id": "42", "project_id": "7"},
			map[string]struct{}{"project_id": {}},
		),
	}}

	err := permissions.ValidateWrite(context.Background(), noopLogger(), compiled, move)
	require.Error(t, err, "move to project 8 must fail: the role is only scoped to project 7")
}

// Seed scenario 6: transient grant widens scope for the window it is valid.
func TestValidateWrite_TransientGrant(t *testing.T) {
	res := resolver.NewMemoryResolver(resolver.ScopeEdge{Relation: issues, ScopeRelation: projects, Column: "project_id"})
	lookup := transient.NewMemoryLookup().Seed("a1", permissions.TransientRecord{
		TargetRelation: issues,
		TargetID:       "42",
		ValidFromLSN:   100,
		ValidToLSN:     200,
	})

	roles := []permissions.RoleRecord{{Kind: "assigned", Name: "member", UserID: "u1", AssignmentID: "a1", ScopeSchema: "public", ScopeTable: "projects", ScopeID: "7"}}
	grants := []permissions.GrantRecord{{RoleName: "member", Schema: "public", Table: "issues", Privileges: []permissions.Privilege{permissions.PrivilegeUpdate}}}

	compiled := compile(t, permissions.Identity{UserID: "u1"}, res, lookup, grants, roles)

	change := permissions.NewUpdate(issues, map[string]any{"id": "42", "project_id": "9"}, map[string]any{"id": "42", "project_id": "9"}, map[string]struct{}{"title": {}})

	inside := permissions.Transaction{LSN: 150, Changes: []permissions.Change{change}}
	assert.NoError(t, permissions.ValidateWrite(context.Background(), noopLogger(), compiled, inside))

	outside := permissions.Transaction{LSN: 200, Changes: []permissions.Change{change}}
	assert.Error(t, permissions.ValidateWrite(context.Background(), noopLogger(), compiled, outside))
}

// Resolver threading: an insert earlier in the same transaction
// establishes the scope membership admitting a later change whose own
// row no longer carries the foreign-key column the scope was keyed on.
// Evaluating the later change alone, under the resolver's initial
// (empty) state, must reject.
func TestValidateWrite_ResolverThreadingAcrossChanges(t *testing.T) {
	res := resolver.NewMemoryResolver(resolver.ScopeEdge{Relation: issues, ScopeRelation: projects, Column: "project_id"})
	roles := []permissions.RoleRecord{{Kind: "assigned", Name: "member", UserID: "u1", AssignmentID: "a1", ScopeSchema: "public", ScopeTable: "projects", ScopeID: "7"}}
	grants := []permissions.GrantRecord{{RoleName: "member", Schema: "public", Table: "issues", Privileges: []permissions.Privilege{permissions.PrivilegeInsert, permissions.PrivilegeUpdate}}}

	compiled := compile(t, permissions.Identity{UserID: "u1"}, res, nil, grants, roles)

	createsRowInScope := permissions.NewInsert(issues, map[string]any{"id": "42", "project_id": "7"})
	// This change's own row carries no project_id at all: its scope
	// membership can only be known via the resolver's accumulated state.
	laterEditWithoutScopeColumn := permissions.NewUpdate(issues,
		map[string]any{"id": "42", "title": "edited"},
		map[string]any{"id": "42", "title": "original"},
		map[string]struct{}{"title": {}},
	)

	sequenced := permissions.Transaction{Changes: []permissions.Change{createsRowInScope, laterEditWithoutScopeColumn}}
	assert.NoError(t, permissions.ValidateWrite(context.Background(), noopLogger(), compiled, sequenced))

	alone := permissions.Transaction{Changes: []permissions.Change{laterEditWithoutScopeColumn}}
	assert.Error(t, permissions.ValidateWrite(context.Background(), noopLogger(), compiled, alone),
		"without the preceding insert, the resolver has no way to place this row's row data in scope 7")
}

func TestValidateWrite_MissingBucketRejectsRegardlessOfResolver(t *testing.T) {
	compiled := compile(t, permissions.Identity{UserID: "u1"}, nil, nil, nil, nil)

	tx := permissions.Transaction{Changes: []permissions.Change{permissions.NewDelete(issues, map[string]any{"id": "1"})}}
	assert.Error(t, permissions.ValidateWrite(context.Background(), noopLogger(), compiled, tx))
}
