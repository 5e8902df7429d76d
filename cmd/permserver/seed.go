package main

import (
	"github.com/philly/edge-permissions/internal/permissions"
	"github.com/philly/edge-permissions/internal/permissions/resolver"
)

// Demo grant/role configuration. The surrounding grant/role source
// (whatever decides which roles exist and what they grant) is out of
// scope for the core; this is a small fixed table purely so the
// demonstration command has something to compile and exercise.
var (
	demoIssues   = permissions.Relation{Schema: "public", Table: "issues"}
	demoProjects = permissions.Relation{Schema: "public", Table: "projects"}

	demoGrants = []permissions.GrantRecord{
		{
			RoleName:   permissions.RoleNameAnyone,
			Schema:     demoIssues.Schema,
			Table:      demoIssues.Table,
			Privileges: []permissions.Privilege{permissions.PrivilegeSelect},
		},
		{
			RoleName:   permissions.RoleNameAuthenticated,
			Schema:     demoIssues.Schema,
			Table:      demoIssues.Table,
			Privileges: []permissions.Privilege{permissions.PrivilegeInsert},
		},
		{
			RoleName:   "project_member",
			Schema:     demoIssues.Schema,
			Table:      demoIssues.Table,
			Privileges: []permissions.Privilege{permissions.PrivilegeUpdate, permissions.PrivilegeDelete},
		},
	}

	// demoRoles assigns every authenticated caller "project_member" scoped
	// to project 7, regardless of user id. A real role source would key
	// these by UserID; this demo table applies uniformly so any bearer
	// token suffices to exercise the scoped paths.
	demoRoles = []permissions.RoleRecord{
		{
			Kind:         "assigned",
			Name:         "project_member",
			AssignmentID: "demo-assignment-1",
			ScopeSchema:  demoProjects.Schema,
			ScopeTable:   demoProjects.Table,
			ScopeID:      "7",
		},
	}

	demoScopeEdges = []resolver.ScopeEdge{
		{Relation: demoIssues, ScopeRelation: demoProjects, Column: "project_id"},
	}
)
