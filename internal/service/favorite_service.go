package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/internal/gateway"
	"github.com/jafarshop/servicecart/pkg/errors"
)

// FavoriteService keeps the per-service favorite flag. A toggle flips the flag
// at once and reverts it if the server refuses.
type FavoriteService struct {
	gw       Gateway
	inflight *inflightTracker
	logger   *zap.Logger

	mu        sync.Mutex
	favorites map[string]bool
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(gw Gateway, logger *zap.Logger) *FavoriteService {
	return &FavoriteService{
		gw:        gw,
		inflight:  newInflightTracker(),
		logger:    logger,
		favorites: make(map[string]bool),
	}
}

// Toggle flips the favorite flag for serviceID and returns the new value.
func (s *FavoriteService) Toggle(ctx context.Context, id domain.Identity, serviceID string) (bool, error) {
	if !id.IsAuthenticated() {
		return false, &errors.ErrAuthenticationRequired{Operation: "toggle favorite"}
	}
	if err := s.inflight.Begin(serviceID); err != nil {
		return false, err
	}

	s.mu.Lock()
	before := s.favorites[serviceID]
	s.favorites[serviceID] = !before
	s.mu.Unlock()

	if _, err := s.gw.Call(ctx, gateway.FavoriteToggle, id, nil, favoriteToggleRequest{ServiceID: serviceID}); err != nil {
		s.mu.Lock()
		s.favorites[serviceID] = before
		s.mu.Unlock()
		s.inflight.Finish(serviceID, false)

		s.logger.Warn("Failed to toggle favorite",
			zap.String("service_id", serviceID),
			zap.Error(err),
		)
		return before, err
	}

	s.inflight.Finish(serviceID, true)
	return !before, nil
}

// Seed records the server-side flag for a service, e.g. from a catalog page.
// A service with a toggle in flight is left alone and false is returned.
func (s *FavoriteService) Seed(serviceID string, favorite bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight.State(serviceID).IsPending() {
		return false
	}
	s.favorites[serviceID] = favorite
	return true
}

func (s *FavoriteService) IsFavorite(serviceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites[serviceID]
}

func (s *FavoriteService) MutationState(serviceID string) domain.MutationState {
	return s.inflight.State(serviceID)
}
