// Package bootstrap wires configuration into the logger, identity store and
// resolver shared by the binaries under cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jafarshop/servicecart/internal/config"
	"github.com/jafarshop/servicecart/internal/gateway"
	"github.com/jafarshop/servicecart/internal/identity"
	"github.com/jafarshop/servicecart/internal/repository"
	"github.com/jafarshop/servicecart/internal/repository/memory"
	"github.com/jafarshop/servicecart/internal/repository/postgres"
	"github.com/jafarshop/servicecart/internal/repository/redisstore"
)

// NewLogger builds a production logger in production and a development
// logger otherwise, at the configured level.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var zcfg zap.Config
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// OpenRepositories connects the configured identity store.
func OpenRepositories(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.Repositories, error) {
	switch cfg.Identity.Store {
	case config.IdentityStorePostgres:
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return postgres.NewRepositories(db, logger), nil

	case config.IdentityStoreRedis:
		client, err := redisstore.NewClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return redisstore.NewRepositories(client, logger), nil

	case config.IdentityStoreMemory:
		logger.Warn("Using in-memory identity store; guest id and token are lost on restart")
		return memory.NewRepositories(), nil

	default:
		return nil, fmt.Errorf("unknown identity store %q", cfg.Identity.Store)
	}
}

// NewResolver builds the identity resolver over repos.
func NewResolver(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) (*identity.Resolver, error) {
	sealer, err := identity.NewSealer(cfg.Identity.SealKey)
	if err != nil {
		return nil, err
	}
	return identity.NewResolver(repos.Identity, sealer, cfg.Identity.Profile, logger), nil
}

// NewGateway builds the remote API client after checking the success-code
// overrides name real endpoints.
func NewGateway(cfg *config.Config, logger *zap.Logger) (*gateway.Client, error) {
	if err := gateway.CheckSuccessCodes(cfg.API.SuccessCodes); err != nil {
		return nil, err
	}
	return gateway.NewClient(cfg.API, logger), nil
}
