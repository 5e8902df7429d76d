package permissions

import "context"

// ValidateRead is the single-change helper used by the read filter: it
// looks up the SELECT bucket for change's relation and returns the first
// role-grant admitting it under read-mode grant conditions, or nil if
// none admits it (not an error — an unreadable row is simply filtered).
func ValidateRead(ctx context.Context, change Change, perms *CompiledPermissions, resolver ScopeResolver, lsn uint64) (*RoleGrant, error) {
	bucket, ok := perms.bucket(change.Relation, PrivilegeSelect)
	if !ok {
		return nil, nil
	}
	return RoleGrantForChange(ctx, bucket, perms, resolver, change, lsn, modeRead)
}

// FilterRead filters a transaction flowing from the central database to
// an edge client, dropping changes the identity may not see and emitting
// MoveOut notifications for rows that leave visibility inside the
// transaction. Reads are evaluated against a single snapshot: unlike
// ValidateWrite, no mutating resolver is threaded across changes.
func FilterRead(ctx context.Context, perms *CompiledPermissions, tx Transaction) (Transaction, []MoveOut, error) {
	resolver := perms.ScopeResolver
	filtered := make([]Change, 0, len(tx.Changes))
	var moveOuts []MoveOut

	for _, change := range tx.Changes {
		switch change.Kind {
		case ChangeKindInsert, ChangeKindDelete:
			rg, err := ValidateRead(ctx, change, perms, resolver, tx.LSN)
			if err != nil {
				return Transaction{}, nil, err
			}
			if rg != nil {
				filtered = append(filtered, change)
			}

		case ChangeKindUpdate:
			oldChange := NewDelete(change.Relation, change.OldRecord)
			newChange := NewInsert(change.Relation, change.Record)

			beforeRG, err := ValidateRead(ctx, oldChange, perms, resolver, tx.LSN)
			if err != nil {
				return Transaction{}, nil, err
			}
			afterRG, err := ValidateRead(ctx, newChange, perms, resolver, tx.LSN)
			if err != nil {
				return Transaction{}, nil, err
			}

			switch {
			case beforeRG != nil && afterRG != nil:
				filtered = append(filtered, change)
			case beforeRG != nil && afterRG == nil:
				moveOuts = append(moveOuts, moveOutFor(ctx, resolver, perms, change))
			case beforeRG == nil && afterRG != nil:
				filtered = append(filtered, NewInsert(change.Relation, change.Record))
			default:
				// neither visible: dropped silently.
			}
		}
	}

	return Transaction{LSN: tx.LSN, Changes: filtered}, moveOuts, nil
}

// moveOutFor builds the MoveOut recording the scope a row left. Scope
// resolution failures are tolerated here: an unresolvable scope simply
// yields an empty ScopePath rather than aborting the filter, since the
// filter's contract never returns resolver errors for a row that is
// already confirmed invisible.
func moveOutFor(ctx context.Context, resolver ScopeResolver, perms *CompiledPermissions, change Change) MoveOut {
	var path []ScopeStep
	if resolver == nil {
		id, _ := rowID(change.OldRecord)
		return MoveOut{Change: change, Relation: change.Relation, ID: id}
	}
	for _, scopeRelation := range perms.scopes {
		id, ok, err := resolver.ScopeID(ctx, scopeRelation, NewDelete(change.Relation, change.OldRecord))
		if err == nil && ok {
			path = append(path, ScopeStep{Relation: scopeRelation, ID: id})
		}
	}

	id, _ := rowID(change.OldRecord)
	return MoveOut{
		Change:    change,
		ScopePath: path,
		Relation:  change.Relation,
		ID:        id,
	}
}

// rowID extracts the conventional "id" column from a row, if present.
func rowID(row map[string]any) (string, bool) {
	v, ok := row["id"]
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	default:
		return "", false
	}
}
