package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityStore_EnsureGuestIDKeepsFirstValue(t *testing.T) {
	ctx := context.Background()
	store := NewIdentityStore()

	first, err := store.EnsureGuestID(ctx, "default", "guest-a")
	require.NoError(t, err)
	require.Equal(t, "guest-a", first)

	second, err := store.EnsureGuestID(ctx, "default", "guest-b")
	require.NoError(t, err)
	require.Equal(t, "guest-a", second)

	other, err := store.EnsureGuestID(ctx, "tablet", "guest-c")
	require.NoError(t, err)
	require.Equal(t, "guest-c", other)
}

func TestIdentityStore_TokenLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewIdentityStore()

	tok, err := store.Token(ctx, "default")
	require.NoError(t, err)
	require.Empty(t, tok)

	require.NoError(t, store.SaveToken(ctx, "default", "sealed-token"))
	tok, err = store.Token(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, "sealed-token", tok)

	require.NoError(t, store.ClearToken(ctx, "default"))
	tok, err = store.Token(ctx, "default")
	require.NoError(t, err)
	require.Empty(t, tok)
}
