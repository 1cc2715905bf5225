package repository

import (
	"context"
)

// IdentityStore is the durable client-side area holding the device guest id
// and the bearer token, keyed by device profile. Values are opaque strings.
type IdentityStore interface {
	// EnsureGuestID stores candidate as the profile's guest id unless one is
	// already persisted, and returns whichever value is persisted.
	EnsureGuestID(ctx context.Context, profile, candidate string) (string, error)
	// Token returns the persisted token or "" when none is stored.
	Token(ctx context.Context, profile string) (string, error)
	SaveToken(ctx context.Context, profile, token string) error
	ClearToken(ctx context.Context, profile string) error
	Close() error
}

// Repositories groups the stores used by the engine.
type Repositories struct {
	Identity IdentityStore
}
