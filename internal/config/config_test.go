package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("API_TIMEOUT_SECONDS", "5")
	t.Setenv("API_SUCCESS_CODES", "cart.update=default_update_200, cart.remove=default_delete_200")
	t.Setenv("IDENTITY_STORE", "Redis")
	t.Setenv("CART_PAGE_LIMIT", "20")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, IdentityStoreRedis, cfg.Identity.Store)
	require.Equal(t, "default", cfg.Identity.Profile)
	require.Equal(t, 20, cfg.Cart.PageLimit)
	require.Equal(t, map[string]string{
		"cart.update": "default_update_200",
		"cart.remove": "default_delete_200",
	}, cfg.API.SuccessCodes)
}

func TestLoad_DefaultsToDurableStore(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, IdentityStorePostgres, cfg.Identity.Store)
	require.True(t, cfg.Identity.Durable())
}

func TestLoad_RejectsMalformedNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "API_TIMEOUT_SECONDS", value: "thirty"},
		{key: "API_RATE_LIMIT", value: "fast"},
		{key: "CART_PAGE_LIMIT", value: "10x"},
		{key: "REDIS_DB", value: "one"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("API_BASE_URL", "https://api.example.com")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestIdentityConfig_Durable(t *testing.T) {
	require.True(t, IdentityConfig{Store: IdentityStorePostgres}.Durable())
	require.True(t, IdentityConfig{Store: IdentityStoreRedis}.Durable())
	require.False(t, IdentityConfig{Store: IdentityStoreMemory}.Durable())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API:      APIConfig{BaseURL: "http://localhost"},
			Identity: IdentityConfig{Store: IdentityStoreMemory, Profile: "default"},
			Cart:     CartConfig{PageLimit: 10},
			LogLevel: "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: true},
		{name: "unknown store", mutate: func(c *Config) { c.Identity.Store = "sqlite" }, wantErr: true},
		{name: "empty profile", mutate: func(c *Config) { c.Identity.Profile = "" }, wantErr: true},
		{name: "zero page limit", mutate: func(c *Config) { c.Cart.PageLimit = 0 }, wantErr: true},
		{name: "negative rate", mutate: func(c *Config) { c.API.RateLimit = -1 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseSuccessCodes(t *testing.T) {
	codes, err := ParseSuccessCodes("")
	require.NoError(t, err)
	require.Empty(t, codes)

	_, err = ParseSuccessCodes("cart.update")
	require.Error(t, err)

	_, err = ParseSuccessCodes("=default_200")
	require.Error(t, err)
}
