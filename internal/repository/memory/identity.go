package memory

import (
	"context"
	"sync"

	"github.com/jafarshop/servicecart/internal/repository"
)

type profileRecord struct {
	guestID string
	token   string
}

// IdentityStore keeps identities in process memory. It is used in tests and
// when no durable backend is configured.
type IdentityStore struct {
	mu       sync.Mutex
	profiles map[string]*profileRecord
}

var _ repository.IdentityStore = (*IdentityStore)(nil)

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{profiles: make(map[string]*profileRecord)}
}

// NewRepositories returns memory-backed repositories
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{Identity: NewIdentityStore()}
}

func (s *IdentityStore) record(profile string) *profileRecord {
	rec, ok := s.profiles[profile]
	if !ok {
		rec = &profileRecord{}
		s.profiles[profile] = rec
	}
	return rec
}

func (s *IdentityStore) EnsureGuestID(_ context.Context, profile, candidate string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(profile)
	if rec.guestID == "" {
		rec.guestID = candidate
	}
	return rec.guestID, nil
}

func (s *IdentityStore) Token(_ context.Context, profile string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.profiles[profile]; ok {
		return rec.token, nil
	}
	return "", nil
}

func (s *IdentityStore) SaveToken(_ context.Context, profile, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(profile).token = token
	return nil
}

func (s *IdentityStore) ClearToken(_ context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.profiles[profile]; ok {
		rec.token = ""
	}
	return nil
}

func (s *IdentityStore) Close() error { return nil }
