package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/config"
	"github.com/jafarshop/servicecart/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS device_identities (
	profile    TEXT PRIMARY KEY,
	guest_id   TEXT NOT NULL,
	token      TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

var _ repository.IdentityStore = (*identityRepository)(nil)

type identityRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewConnection opens and pings a lib/pq connection
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the identity table when missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// NewRepositories creates postgres-backed repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Identity: NewIdentityRepository(db, logger),
	}
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db *sql.DB, logger *zap.Logger) repository.IdentityStore {
	return &identityRepository{
		db:     db,
		logger: logger,
	}
}

func (r *identityRepository) EnsureGuestID(ctx context.Context, profile, candidate string) (string, error) {
	// The upsert only writes when no guest id exists yet, so concurrent first
	// uses converge on a single value.
	insert := `
		INSERT INTO device_identities (profile, guest_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (profile) DO UPDATE
		SET guest_id = EXCLUDED.guest_id, updated_at = EXCLUDED.updated_at
		WHERE device_identities.guest_id = ''
	`
	if _, err := r.db.ExecContext(ctx, insert, profile, candidate, time.Now()); err != nil {
		r.logger.Error("Failed to insert guest id", zap.String("profile", profile), zap.Error(err))
		return "", err
	}

	var guestID string
	err := r.db.QueryRowContext(ctx,
		`SELECT guest_id FROM device_identities WHERE profile = $1`, profile,
	).Scan(&guestID)
	if err != nil {
		r.logger.Error("Failed to read guest id", zap.String("profile", profile), zap.Error(err))
		return "", err
	}

	return guestID, nil
}

func (r *identityRepository) Token(ctx context.Context, profile string) (string, error) {
	var token sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT token FROM device_identities WHERE profile = $1`, profile,
	).Scan(&token)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to read token", zap.String("profile", profile), zap.Error(err))
		return "", err
	}

	return token.String, nil
}

func (r *identityRepository) SaveToken(ctx context.Context, profile, token string) error {
	// guest_id is NOT NULL; a profile that signs in before any guest id exists
	// gets an empty placeholder that EnsureGuestID later fills.
	query := `
		INSERT INTO device_identities (profile, guest_id, token, created_at, updated_at)
		VALUES ($1, '', $2, $3, $3)
		ON CONFLICT (profile) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, profile, token, time.Now()); err != nil {
		r.logger.Error("Failed to save token", zap.String("profile", profile), zap.Error(err))
		return err
	}
	return nil
}

func (r *identityRepository) ClearToken(ctx context.Context, profile string) error {
	query := `
		UPDATE device_identities
		SET token = NULL, updated_at = $2
		WHERE profile = $1
	`
	if _, err := r.db.ExecContext(ctx, query, profile, time.Now()); err != nil {
		r.logger.Error("Failed to clear token", zap.String("profile", profile), zap.Error(err))
		return err
	}
	return nil
}

func (r *identityRepository) Close() error {
	return r.db.Close()
}
