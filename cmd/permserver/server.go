package main

import (
	"context"
	"sync/atomic"

	"github.com/philly/edge-permissions/internal/identity"
	"github.com/philly/edge-permissions/internal/permissions"
	"github.com/philly/edge-permissions/internal/platform/eventbus"
	"github.com/philly/edge-permissions/internal/platform/events"
	"github.com/philly/edge-permissions/internal/platform/logger"
)

// Server holds the dependencies the HTTP handlers need to exercise
// ValidateWrite and FilterRead: an identity resolver, the long-lived
// ScopeResolver/TransientLookup ports, the demo grant/role source, and a
// cache of the most recently compiled permissions set.
type Server struct {
	log             logger.Logger
	bus             *eventbus.Bus
	identity        *identity.Resolver
	scopeResolver   permissions.ScopeResolver
	transientLookup permissions.TransientLookup
	cache           atomic.Pointer[permissions.CompiledPermissions]
}

// NewServer builds a Server. It does not compile anything up front:
// CompiledPermissions depends on the caller's identity, so the first
// compile happens on the first request.
func NewServer(log logger.Logger, bus *eventbus.Bus, idResolver *identity.Resolver, scopeResolver permissions.ScopeResolver, transientLookup permissions.TransientLookup) *Server {
	return &Server{
		log:             log,
		bus:             bus,
		identity:        idResolver,
		scopeResolver:   scopeResolver,
		transientLookup: transientLookup,
	}
}

// compileFor builds a fresh CompiledPermissions for identity, replacing
// (never mutating) whatever the cache currently holds, and publishes a
// TopicPermissionsCompiled notification.
func (s *Server) compileFor(ctx context.Context, id permissions.Identity) (*permissions.CompiledPermissions, error) {
	prev := permissions.New(id, s.scopeResolver, s.transientLookup)
	roles := rolesForUser(id.UserID)

	compiled, err := permissions.Update(ctx, s.log, prev, demoGrants, roles)
	if err != nil {
		return nil, err
	}
	s.cache.Store(compiled)

	s.bus.Publish(ctx, eventbus.Event{
		Topic: events.TopicPermissionsCompiled,
		Payload: events.PermissionsCompiledEvent{
			RequestID:  events.NewRequestID(),
			UserID:     id.UserID,
			RoleCount:  len(roles),
			GrantCount: len(demoGrants),
		},
	})
	return compiled, nil
}

// rolesForUser returns the demo roles applicable to an authenticated
// caller: global (UserID-less) demo roles plus any whose UserID matches
// exactly. An anonymous caller (empty userID) gets none, leaving it only
// the injected Anyone role.
func rolesForUser(userID string) []permissions.RoleRecord {
	if userID == "" {
		return nil
	}
	var out []permissions.RoleRecord
	for _, r := range demoRoles {
		if r.UserID == "" || r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// identityFromRequest resolves the bearer token in authHeader, falling
// back to the anonymous identity when it is empty so public (Anyone-only)
// endpoints keep working without a token.
func (s *Server) identityFromRequest(ctx context.Context, authHeader string) (permissions.Identity, error) {
	if authHeader == "" {
		return identity.Anonymous(), nil
	}
	return s.identity.Resolve(ctx, authHeader)
}
