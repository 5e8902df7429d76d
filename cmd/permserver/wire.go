//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/philly/edge-permissions/internal/config"
	"github.com/philly/edge-permissions/internal/identity"
	"github.com/philly/edge-permissions/internal/permissions"
	"github.com/philly/edge-permissions/internal/permissions/resolver"
	resolverpg "github.com/philly/edge-permissions/internal/permissions/resolver/postgres"
	transientpg "github.com/philly/edge-permissions/internal/permissions/transient/postgres"
	"github.com/philly/edge-permissions/internal/platform/eventbus"
	"github.com/philly/edge-permissions/internal/platform/logger"
	platformpg "github.com/philly/edge-permissions/internal/platform/postgres"
)

// InitializeApp wires the demonstration command's full dependency graph.
func InitializeApp(ctx context.Context) (*App, func(), error) {
	wire.Build(
		logger.NewBootstrapLogger,
		config.LoadConfig,
		provideLoggerConfig,
		logger.NewConfiguredLogger,
		wire.Bind(new(logger.Logger), new(*logger.SlogAdapter)),

		ConnectDatabase,
		platformpg.NewBaseRepository,
		provideScopeEdges,
		resolverpg.New,
		wire.Bind(new(permissions.ScopeResolver), new(*resolverpg.ScopeResolver)),
		transientpg.New,
		wire.Bind(new(permissions.TransientLookup), new(*transientpg.Lookup)),

		eventbus.NewBus,

		provideIdentityResolver,

		NewServer,
		NewRouter,
		NewHTTPServer,
		NewApp,
	)
	return nil, nil, nil
}

func provideLoggerConfig(cfg config.Config) logger.Config {
	return logger.Config{Environment: cfg.Environment, LogLevel: cfg.LogLevel}
}

func provideScopeEdges() []resolver.ScopeEdge { return demoScopeEdges }

// provideIdentityResolver adapts Config into identity.NewResolver's two
// positional string arguments, which wire cannot disambiguate on its own.
func provideIdentityResolver(ctx context.Context, cfg config.Config) (*identity.Resolver, error) {
	return identity.NewResolver(ctx, cfg.JWKSEndpoint, cfg.JWTIssuer)
}
