// Package permissions compiles declarative grant/role configuration into
// per-change lookup tables and evaluates writes and reads crossing the
// boundary between a central database and an edge client.
package permissions

import "github.com/philly/edge-permissions/internal/platform/validator"

// Relation is a schema-qualified table name. It is comparable and usable
// directly as a map key.
type Relation struct {
	Schema string
	Table  string
}

// String renders the relation as "schema.table" with SQL-identifier
// quoting applied only when required.
func (r Relation) String() string {
	return validator.QuoteQualifiedName(r.Schema, r.Table)
}

// Privilege is one of the four DML operations a grant can authorise.
type Privilege string

const (
	PrivilegeInsert Privilege = "INSERT"
	PrivilegeUpdate Privilege = "UPDATE"
	PrivilegeDelete Privilege = "DELETE"
	PrivilegeSelect Privilege = "SELECT"
)

// Identity is the caller's verified identity. Claims is opaque to the
// core; concrete producers (e.g. the JWT adapter) populate it.
type Identity struct {
	UserID string
	Claims map[string]any
}

// Authenticated reports whether the identity carries a non-empty user id.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Scope identifies the scope-root row a role's grant is confined to.
type Scope struct {
	Relation Relation
	ID       string
}

// RoleKind discriminates the tagged Role variants.
type RoleKind int

const (
	RoleKindAnyone RoleKind = iota
	RoleKindAuthenticated
	RoleKindAssigned
)

// Reserved role names matched by the always-injected Anyone/Authenticated
// variants.
const (
	RoleNameAnyone        = "__anyone__"
	RoleNameAuthenticated = "__authenticated__"
)

// Role is a tagged sum type over Anyone, Authenticated and Assigned roles.
// Kind discriminates the variant; the remaining fields are meaningful only
// for the variant that uses them.
type Role struct {
	Kind RoleKind

	// Name is set for every variant (the reserved token for Anyone and
	// Authenticated); the fields after it are Assigned-only.
	Name         string
	UserID       string
	AssignmentID string
	Scope        *Scope
}

// NewAnyoneRole returns the always-present Anyone role.
func NewAnyoneRole() *Role {
	return &Role{Kind: RoleKindAnyone, Name: RoleNameAnyone}
}

// NewAuthenticatedRole returns the Authenticated role, injected only when
// the identity carries a non-empty user id.
func NewAuthenticatedRole() *Role {
	return &Role{Kind: RoleKindAuthenticated, Name: RoleNameAuthenticated}
}

// NewAssignedRole constructs a named role, optionally confined to a scope.
func NewAssignedRole(name, userID, assignmentID string, scope *Scope) *Role {
	return &Role{
		Kind:         RoleKindAssigned,
		Name:         name,
		UserID:       userID,
		AssignmentID: assignmentID,
		Scope:        scope,
	}
}

// HasScope reports whether a role is confined to a scope, i.e. is a
// scoped Assigned role.
func HasScope(r *Role) bool {
	return r.Kind == RoleKindAssigned && r.Scope != nil
}

// RoleRecord is the opaque input describing one assigned role, as
// structurally defined by the surrounding grant/role source. Anyone and
// Authenticated are injected by the compiler and never appear as records.
type RoleRecord struct {
	Kind         string
	Name         string
	UserID       string
	AssignmentID string
	ScopeSchema  string
	ScopeTable   string
	ScopeID      string
}

// Grant is a normalised grant record: a role name paired with a relation,
// the privileges it confers, an optional column subset, and an optional
// (currently stubbed) check expression.
type Grant struct {
	RoleName   string
	Relation   Relation
	Privileges map[Privilege]struct{}
	Columns    map[string]struct{} // nil means all columns are permitted
	Check      *string
}

// GrantRecord is the opaque input describing one grant, as structurally
// defined by the surrounding grant/role source.
type GrantRecord struct {
	RoleName   string
	Schema     string
	Table      string
	Privileges []Privilege
	Columns    []string
	Check      *string
}

// RoleGrant is an immutable pairing asserting that Role supplies the
// rights of Grant. Both components are read-only for the life of the
// compiled permissions that produced the pairing.
type RoleGrant struct {
	Role  *Role
	Grant *Grant
}

// AssignedRoles buckets the role-grants admitting one (relation,
// privilege) key, split by whether the role carries a scope. Buckets are
// built once by the compiler and never mutated afterwards.
type AssignedRoles struct {
	Scoped   []RoleGrant
	Unscoped []RoleGrant
}

// lookupKey is the compiled lookup table's key type.
type lookupKey struct {
	Relation  Relation
	Privilege Privilege
}

// CompiledPermissions is the immutable result of compiling a
// configuration of grants and roles for one identity. It is replaced
// wholesale, never mutated, whenever configuration changes.
type CompiledPermissions struct {
	Identity        Identity
	roleLookup      map[lookupKey]AssignedRoles
	scopedRoles     map[Relation][]*Role
	scopes          []Relation
	ScopeResolver   ScopeResolver
	TransientLookup TransientLookup
}

// New returns an empty CompiledPermissions: no roles or grants compiled
// yet, holding only the identity and the externally-owned scope resolver
// and transient lookup handles.
func New(identity Identity, scopeResolver ScopeResolver, transientLookup TransientLookup) *CompiledPermissions {
	return &CompiledPermissions{
		Identity:        identity,
		roleLookup:      map[lookupKey]AssignedRoles{},
		scopedRoles:     map[Relation][]*Role{},
		scopes:          nil,
		ScopeResolver:   scopeResolver,
		TransientLookup: transientLookup,
	}
}

// Scopes returns the relations that have at least one scoped role.
func (c *CompiledPermissions) Scopes() []Relation {
	return c.scopes
}

// ScopedRoles returns the scoped roles confined within the given
// relation, or nil if none.
func (c *CompiledPermissions) ScopedRoles(relation Relation) []*Role {
	return c.scopedRoles[relation]
}

// bucket returns the AssignedRoles for (relation, privilege), and whether
// it exists. A missing bucket means no role grants any access at all.
func (c *CompiledPermissions) bucket(relation Relation, privilege Privilege) (AssignedRoles, bool) {
	b, ok := c.roleLookup[lookupKey{Relation: relation, Privilege: privilege}]
	return b, ok
}
