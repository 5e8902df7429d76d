// Package identity adapts a verified JWT into the permissions core's
// Identity value. It owns no HTTP concerns: callers read the
// Authorization header value (or a bare token) from a request themselves
// and hand the raw string to Resolve.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/philly/edge-permissions/internal/permissions"
)

var (
	ErrMissingToken   = errors.New("missing authentication token")
	ErrInvalidToken   = errors.New("invalid authentication token")
	ErrMissingSubject = errors.New("token carries no subject claim")
)

// Resolver turns a bearer token into a permissions.Identity, verifying
// it against a JWKS endpoint refreshed in the background.
type Resolver struct {
	jwksEndpoint string
	issuer       string
	cache        *jwk.Cache
}

// NewResolver registers jwksEndpoint with a background-refreshed key
// cache and performs an initial fetch so misconfiguration fails at
// startup rather than on the first request.
func NewResolver(ctx context.Context, jwksEndpoint, issuer string) (*Resolver, error) {
	cache, err := jwk.NewCache(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create jwks cache: %w", err)
	}
	if err := cache.Register(ctx, jwksEndpoint); err != nil {
		return nil, fmt.Errorf("register jwks endpoint: %w", err)
	}
	if _, err := cache.Lookup(ctx, jwksEndpoint); err != nil {
		return nil, fmt.Errorf("fetch initial jwks: %w", err)
	}

	return &Resolver{jwksEndpoint: jwksEndpoint, issuer: issuer, cache: cache}, nil
}

// Resolve parses and verifies a bearer token (a leading "Bearer " prefix
// is stripped if present) and returns the permissions.Identity it carries. The token's
// subject becomes Identity.UserID; its remaining claims are carried
// through opaquely for a ScopeResolver or grant check to consult.
func (r *Resolver) Resolve(ctx context.Context, tokenString string) (permissions.Identity, error) {
	if tokenString == "" {
		return permissions.Identity{}, ErrMissingToken
	}
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	keySet, err := r.cache.Lookup(ctx, r.jwksEndpoint)
	if err != nil {
		return permissions.Identity{}, fmt.Errorf("lookup jwks: %w", err)
	}

	token, err := jwt.ParseString(
		tokenString,
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithIssuer(r.issuer),
	)
	if err != nil {
		return permissions.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var subject string
	if err := token.Get("sub", &subject); err != nil || subject == "" {
		return permissions.Identity{}, ErrMissingSubject
	}

	return permissions.Identity{
		UserID: subject,
		Claims: token.PrivateClaims(),
	}, nil
}

// Anonymous is the Identity used when no bearer token is present, for
// requests served under the Anyone role only.
func Anonymous() permissions.Identity {
	return permissions.Identity{}
}
