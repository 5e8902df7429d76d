package events

import (
	"github.com/google/uuid"

	"github.com/philly/edge-permissions/internal/permissions"
	"github.com/philly/edge-permissions/internal/platform/eventbus"
)

// Topics published around permissions compilation and transaction filtering.
const (
	// TopicPermissionsCompiled fires whenever a new CompiledPermissions
	// value replaces the one an identity was holding.
	TopicPermissionsCompiled eventbus.Topic = "permissions.compiled"

	// TopicRowMovedOut fires once per permissions.MoveOut produced by
	// FilterRead, so downstream consumers can react to a row leaving an
	// edge client's visibility without re-running the filter themselves.
	TopicRowMovedOut eventbus.Topic = "permissions.row_moved_out"

	// TopicWriteRejected fires when ValidateWrite rejects a transaction,
	// carrying the identity and the rejection message (which names the
	// offending privilege and relation) for audit logging.
	TopicWriteRejected eventbus.Topic = "permissions.write_rejected"
)

// PermissionsCompiledEvent is the payload for TopicPermissionsCompiled.
type PermissionsCompiledEvent struct {
	RequestID  uuid.UUID
	UserID     string
	RoleCount  int
	GrantCount int
}

// RowMovedOutEvent is the payload for TopicRowMovedOut.
type RowMovedOutEvent struct {
	RequestID uuid.UUID
	UserID    string
	MoveOut   permissions.MoveOut
}

// WriteRejectedEvent is the payload for TopicWriteRejected.
type WriteRejectedEvent struct {
	RequestID uuid.UUID
	UserID    string
	Relation  permissions.Relation
	Reason    string
}

// NewRequestID generates a correlation id for a single inbound request,
// threaded through every event that request's handling publishes so a
// consumer can tie a rejection or a move-out back to the request that
// caused it.
func NewRequestID() uuid.UUID {
	return uuid.New()
}
