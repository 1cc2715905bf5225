package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/internal/repository/memory"
)

func counterIDs() (func() string, *int) {
	n := 0
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "guest-" + strconv.Itoa(n)
	}, &n
}

func TestResolveHeaders(t *testing.T) {
	t.Run("authenticated omits guest marker", func(t *testing.T) {
		h := ResolveHeaders(domain.AuthenticatedIdentity("tok"))
		require.Equal(t, "Bearer tok", h.Get(HeaderAuthorization))
		require.Empty(t, h.Get(HeaderGuestID))
	})

	t.Run("guest omits authorization", func(t *testing.T) {
		h := ResolveHeaders(domain.GuestIdentity("g-1"))
		require.Equal(t, "g-1", h.Get(HeaderGuestID))
		require.Empty(t, h.Get(HeaderAuthorization))
	})

	t.Run("zero identity emits nothing", func(t *testing.T) {
		require.Empty(t, ResolveHeaders(domain.Identity{}))
	})
}

func TestResolver_GuestIDGeneratedOnce(t *testing.T) {
	gen, calls := counterIDs()
	store := memory.NewIdentityStore()
	r := NewResolver(store, nil, "default", zaptest.NewLogger(t), WithIDGenerator(gen))
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = r.GuestID(ctx)
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		require.Equal(t, "guest-1", id)
	}
	require.Equal(t, 1, *calls)

	// A new process with the same store keeps the persisted id.
	r2 := NewResolver(store, nil, "default", zaptest.NewLogger(t), WithIDGenerator(gen))
	require.Equal(t, "guest-1", r2.GuestID(ctx))
}

func TestResolver_TokenTakesPrecedence(t *testing.T) {
	sealer, err := NewSealer("device-secret")
	require.NoError(t, err)
	store := memory.NewIdentityStore()
	r := NewResolver(store, sealer, "default", zaptest.NewLogger(t))
	ctx := context.Background()

	require.Equal(t, domain.IdentityGuest, r.Current(ctx).Kind())

	require.NoError(t, r.SignIn(ctx, "bearer-123"))
	stored, err := store.Token(ctx, "default")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stored, sealedPrefix))
	require.NotContains(t, stored, "bearer-123")

	current := r.Current(ctx)
	require.True(t, current.IsAuthenticated())
	require.Equal(t, "bearer-123", current.Token())
	require.Empty(t, current.GuestID())

	require.NoError(t, r.SignOut(ctx))
	require.Equal(t, domain.IdentityGuest, r.Current(ctx).Kind())
}

type failingStore struct {
	*memory.IdentityStore
}

func (f failingStore) EnsureGuestID(context.Context, string, string) (string, error) {
	return "", errors.New("disk full")
}

func (f failingStore) Token(context.Context, string) (string, error) {
	return "", errors.New("disk full")
}

func TestResolver_DegradesToGuestOnStoreFailure(t *testing.T) {
	gen, _ := counterIDs()
	r := NewResolver(failingStore{memory.NewIdentityStore()}, nil, "default", zaptest.NewLogger(t), WithIDGenerator(gen))

	id := r.Current(context.Background())
	require.Equal(t, domain.IdentityGuest, id.Kind())
	require.Equal(t, "guest-1", id.GuestID())
	require.Equal(t, "guest-1", r.GuestID(context.Background()))
}

func TestSealer(t *testing.T) {
	sealer, err := NewSealer("k")
	require.NoError(t, err)

	sealed, err := sealer.Seal("secret-token")
	require.NoError(t, err)
	plain, err := sealer.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "secret-token", plain)

	other, err := NewSealer("different")
	require.NoError(t, err)
	_, err = other.Open(sealed)
	require.Error(t, err)

	passthrough, err := NewSealer("")
	require.NoError(t, err)
	out, err := passthrough.Seal("plain")
	require.NoError(t, err)
	require.Equal(t, "plain", out)
	_, err = passthrough.Open(sealed)
	require.ErrorIs(t, err, errSealKeyMissing)

	legacy, err := sealer.Open("unsealed-token")
	require.NoError(t, err)
	require.Equal(t, "unsealed-token", legacy)
}
