package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureSchema(context.Background(), db))
	return db
}

func TestIdentityRepository_GuestIDIsCreatedOnce(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdentityRepository(db, zaptest.NewLogger(t))
	ctx := context.Background()
	profile := "test-" + uuid.NewString()

	first, err := repo.EnsureGuestID(ctx, profile, "guest-a")
	require.NoError(t, err)
	require.Equal(t, "guest-a", first)

	second, err := repo.EnsureGuestID(ctx, profile, "guest-b")
	require.NoError(t, err)
	require.Equal(t, "guest-a", second)
}

func TestIdentityRepository_TokenBeforeGuestID(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdentityRepository(db, zaptest.NewLogger(t))
	ctx := context.Background()
	profile := "test-" + uuid.NewString()

	require.NoError(t, repo.SaveToken(ctx, profile, "sealed"))

	guestID, err := repo.EnsureGuestID(ctx, profile, "guest-a")
	require.NoError(t, err)
	require.Equal(t, "guest-a", guestID)

	tok, err := repo.Token(ctx, profile)
	require.NoError(t, err)
	require.Equal(t, "sealed", tok)

	require.NoError(t, repo.ClearToken(ctx, profile))
	tok, err = repo.Token(ctx, profile)
	require.NoError(t, err)
	require.Empty(t, tok)
}

func TestNewRepositories_ExposesIdentityStore(t *testing.T) {
	repos := NewRepositories(nil, zaptest.NewLogger(t))
	require.NotNil(t, repos.Identity)
	require.IsType(t, &identityRepository{}, repos.Identity)
}
