package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/jafarshop/servicecart/internal/config"
	"github.com/jafarshop/servicecart/internal/domain"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&config.Config{Environment: "production", LogLevel: "warn"})
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = NewLogger(&config.Config{Environment: "development", LogLevel: "debug"})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(&config.Config{LogLevel: "chatty"})
	require.Error(t, err)
}

func TestOpenRepositories_Memory(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	cfg := &config.Config{Identity: config.IdentityConfig{
		Store:   config.IdentityStoreMemory,
		Profile: "default",
		SealKey: "local-secret",
	}}

	repos, err := OpenRepositories(ctx, cfg, logger)
	require.NoError(t, err)
	defer repos.Identity.Close()

	resolver, err := NewResolver(cfg, repos, logger)
	require.NoError(t, err)

	require.Equal(t, domain.IdentityGuest, resolver.Current(ctx).Kind())
	require.NoError(t, resolver.SignIn(ctx, "tok-1"))
	require.Equal(t, "tok-1", resolver.Current(ctx).Token())

	// The token is sealed at rest.
	stored, err := repos.Identity.Token(ctx, "default")
	require.NoError(t, err)
	require.NotEqual(t, "tok-1", stored)
}

func TestOpenRepositories_Unknown(t *testing.T) {
	cfg := &config.Config{Identity: config.IdentityConfig{Store: "etcd"}}
	_, err := OpenRepositories(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestNewGateway_RejectsUnknownSuccessCode(t *testing.T) {
	cfg := &config.Config{API: config.APIConfig{
		BaseURL:      "http://localhost",
		SuccessCodes: map[string]string{"cart.updat": "default_update_200"},
	}}
	_, err := NewGateway(cfg, zaptest.NewLogger(t))
	require.Error(t, err)

	cfg.API.SuccessCodes = map[string]string{"cart.update": "default_update_200"}
	client, err := NewGateway(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, client)
}
