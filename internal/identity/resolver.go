// Package identity decides which credential a request carries and owns the
// persisted guest id and bearer token.
package identity

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/internal/repository"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderGuestID       = "Guest-Id"
)

// ResolveHeaders returns the credential headers for id. An authenticated
// identity never carries the guest marker and a guest never carries
// Authorization.
func ResolveHeaders(id domain.Identity) http.Header {
	h := make(http.Header)
	switch {
	case id.IsAuthenticated():
		h.Set(HeaderAuthorization, "Bearer "+id.Token())
	case id.Kind() == domain.IdentityGuest && id.GuestID() != "":
		h.Set(HeaderGuestID, id.GuestID())
	}
	return h
}

// Resolver loads and saves the device identity. It is the only component that
// touches the identity store.
type Resolver struct {
	store   repository.IdentityStore
	sealer  *Sealer
	profile string
	logger  *zap.Logger
	newID   func() string

	mu      sync.Mutex
	guestID string
}

// Option customizes a Resolver
type Option func(*Resolver)

// WithIDGenerator replaces uuid generation, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(r *Resolver) { r.newID = fn }
}

// NewResolver creates a new identity resolver
func NewResolver(store repository.IdentityStore, sealer *Sealer, profile string, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		store:   store,
		sealer:  sealer,
		profile: profile,
		logger:  logger,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GuestID returns the device guest id, generating and persisting one on first
// use. Generation happens at most once per profile.
func (r *Resolver) GuestID(ctx context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.guestID != "" {
		return r.guestID
	}

	candidate := r.newID()
	persisted, err := r.store.EnsureGuestID(ctx, r.profile, candidate)
	if err != nil || persisted == "" {
		// Keep the session usable; the next process start retries persistence.
		r.logger.Warn("Failed to persist guest id, using in-process id",
			zap.String("profile", r.profile), zap.Error(err))
		persisted = candidate
	}
	r.guestID = persisted
	return r.guestID
}

// Current returns the authenticated identity when a token is persisted and the
// guest identity otherwise. It never fails.
func (r *Resolver) Current(ctx context.Context) domain.Identity {
	if token := r.token(ctx); token != "" {
		return domain.AuthenticatedIdentity(token)
	}
	return domain.GuestIdentity(r.GuestID(ctx))
}

func (r *Resolver) token(ctx context.Context) string {
	stored, err := r.store.Token(ctx, r.profile)
	if err != nil {
		r.logger.Warn("Failed to load token, falling back to guest", zap.Error(err))
		return ""
	}
	if stored == "" {
		return ""
	}
	token, err := r.sealer.Open(stored)
	if err != nil {
		r.logger.Warn("Failed to unseal token, falling back to guest", zap.Error(err))
		return ""
	}
	return token
}

// SignIn persists a bearer token obtained from the login flow.
func (r *Resolver) SignIn(ctx context.Context, token string) error {
	sealed, err := r.sealer.Seal(token)
	if err != nil {
		return err
	}
	if err := r.store.SaveToken(ctx, r.profile, sealed); err != nil {
		r.logger.Error("Failed to save token", zap.Error(err))
		return err
	}
	return nil
}

// SignOut removes the bearer token; the device falls back to its guest id.
func (r *Resolver) SignOut(ctx context.Context) error {
	if err := r.store.ClearToken(ctx, r.profile); err != nil {
		r.logger.Error("Failed to clear token", zap.Error(err))
		return err
	}
	return nil
}
