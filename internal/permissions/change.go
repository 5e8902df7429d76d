package permissions

// ChangeKind discriminates the Change tagged sum type.
type ChangeKind int

const (
	ChangeKindInsert ChangeKind = iota
	ChangeKindUpdate
	ChangeKindDelete
	// ChangeKindScopeMove is synthetic: it is never part of an input
	// Transaction and is produced only by the write validator's
	// expansion step.
	ChangeKindScopeMove
)

// Change is a tagged sum type over Insert, Update, Delete and the
// validator-internal ScopeMove. Only the fields meaningful for Kind are
// populated.
type Change struct {
	Kind           ChangeKind
	Relation       Relation
	Record         map[string]any
	OldRecord      map[string]any
	ChangedColumns map[string]struct{}
}

// NewInsert constructs an Insert change.
func NewInsert(relation Relation, record map[string]any) Change {
	return Change{Kind: ChangeKindInsert, Relation: relation, Record: record}
}

// NewUpdate constructs an Update change.
func NewUpdate(relation Relation, record, oldRecord map[string]any, changedColumns map[string]struct{}) Change {
	return Change{
		Kind:           ChangeKindUpdate,
		Relation:       relation,
		Record:         record,
		OldRecord:      oldRecord,
		ChangedColumns: changedColumns,
	}
}

// NewDelete constructs a Delete change.
func NewDelete(relation Relation, oldRecord map[string]any) Change {
	return Change{Kind: ChangeKindDelete, Relation: relation, OldRecord: oldRecord}
}

// newScopeMove constructs the synthetic ScopeMove change emitted by the
// write validator's expansion step. Unexported: ScopeMove never crosses
// the core's public boundary.
func newScopeMove(relation Relation, record map[string]any) Change {
	return Change{Kind: ChangeKindScopeMove, Relation: relation, Record: record}
}

// RequiredPrivilege maps a change variant to the privilege it requires:
// Insert->INSERT, Update->UPDATE, Delete->DELETE, ScopeMove->UPDATE.
func (c Change) RequiredPrivilege() Privilege {
	switch c.Kind {
	case ChangeKindInsert:
		return PrivilegeInsert
	case ChangeKindUpdate, ChangeKindScopeMove:
		return PrivilegeUpdate
	case ChangeKindDelete:
		return PrivilegeDelete
	default:
		return PrivilegeSelect
	}
}

// Row returns the record a scope resolver should inspect to locate this
// change's scope-root. Update and Delete resolve against the row's
// current (pre-change) location, so that a scope-crossing update is
// checked for write rights in its origin scope; Insert and the
// synthetic ScopeMove resolve against the new row, since ScopeMove
// exists specifically to check write rights in the destination scope.
func (c Change) Row() map[string]any {
	switch c.Kind {
	case ChangeKindDelete, ChangeKindUpdate:
		return c.OldRecord
	default:
		return c.Record
	}
}

// writeColumns returns the column set consulted by a write-mode
// columns_valid check: the key set of Record for Insert, ChangedColumns
// for Update/ScopeMove. Delete does not consult columns.
func (c Change) writeColumns() map[string]struct{} {
	switch c.Kind {
	case ChangeKindInsert:
		cols := make(map[string]struct{}, len(c.Record))
		for k := range c.Record {
			cols[k] = struct{}{}
		}
		return cols
	case ChangeKindUpdate, ChangeKindScopeMove:
		return c.ChangedColumns
	default:
		return nil
	}
}

// Transaction is an ordered sequence of changes at a fixed replication
// position. Order is significant: earlier changes may alter scope state
// consulted by later ones.
type Transaction struct {
	LSN     uint64
	Changes []Change
}

// ScopeStep is one hop of the scope path a row was resolved through,
// recorded on a MoveOut so downstream consumers can see the scope a row
// is leaving.
type ScopeStep struct {
	Relation Relation
	ID       string
}

// MoveOut is emitted by the read filter when a row that was visible
// before a change becomes invisible after it, inside the same
// transaction.
type MoveOut struct {
	Change    Change
	ScopePath []ScopeStep
	Relation  Relation
	ID        string
}
