package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/internal/gateway"
	"github.com/jafarshop/servicecart/pkg/errors"
)

// Gateway is the remote API as seen by the services.
type Gateway interface {
	Call(ctx context.Context, ep gateway.Endpoint, id domain.Identity, query url.Values, body interface{}) (json.RawMessage, error)
}

const defaultPageLimit = 100

// CartService owns the local cart aggregate. Every mutation goes through the
// remote API and the aggregate is replaced with what the server returns.
type CartService struct {
	gw       Gateway
	inflight *inflightTracker
	logger   *zap.Logger

	mu     sync.Mutex
	cart   domain.Cart
	page   domain.Page
	coupon *domain.Coupon
}

// NewCartService creates a new cart service
func NewCartService(gw Gateway, pageLimit int, logger *zap.Logger) *CartService {
	if pageLimit < 1 {
		pageLimit = defaultPageLimit
	}
	return &CartService{
		gw:       gw,
		inflight: newInflightTracker(),
		logger:   logger,
		page:     domain.Page{Limit: pageLimit},
	}
}

// AddToCart adds a service to the cart and returns the reconciled line.
// Once the server accepts the add it is never reported as a failure: if the
// line cannot be read back it is returned built from the request and marked
// provisional.
func (s *CartService) AddToCart(ctx context.Context, id domain.Identity, req AddToCartRequest) (*domain.CartItem, error) {
	if req.Quantity < 1 {
		return nil, &errors.ErrInvalidQuantity{Quantity: req.Quantity}
	}
	if id.IsZero() {
		return nil, &errors.ErrMissingIdentity{}
	}

	if _, err := s.gw.Call(ctx, gateway.CartAdd, id, nil, req); err != nil {
		s.logger.Warn("Failed to add to cart",
			zap.String("service_id", req.ServiceID),
			zap.Error(err),
		)
		return nil, err
	}

	item, err := s.lookupLine(ctx, id, req.ServiceID, req.VariantKey)
	if err != nil || item == nil {
		s.logger.Warn("Item added but could not be read back",
			zap.String("service_id", req.ServiceID),
			zap.String("variant_key", req.VariantKey),
			zap.NamedError("lookup", err),
		)
		return &domain.CartItem{
			ServiceID:     req.ServiceID,
			CategoryID:    req.CategoryID,
			SubCategoryID: req.SubCategoryID,
			VariantKey:    req.VariantKey,
			Quantity:      req.Quantity,
			Provisional:   true,
		}, nil
	}
	return item, nil
}

// lookupLine refreshes the current page and returns the service+variant line
// from it. When the line sits on another page the server cart is paged
// through from the start without touching the local aggregate. A nil item
// with a nil error means the list ran out.
func (s *CartService) lookupLine(ctx context.Context, id domain.Identity, serviceID, variantKey string) (*domain.CartItem, error) {
	cart, err := s.Refresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if item := findLine(cart.Items, serviceID, variantKey); item != nil {
		return item, nil
	}

	limit := cart.Page.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	for offset := 0; ; {
		page, err := s.fetch(ctx, id, limit, offset)
		if err != nil {
			return nil, err
		}
		if item := findLine(page.Items, serviceID, variantKey); item != nil {
			return item, nil
		}
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.Page.Total {
			return nil, nil
		}
	}
}

func findLine(items []domain.CartItem, serviceID, variantKey string) *domain.CartItem {
	for i := range items {
		if items[i].ServiceID == serviceID && items[i].VariantKey == variantKey {
			item := items[i]
			return &item
		}
	}
	return nil
}

// GetCart fetches one page of the server cart and replaces the local cart
// with it. Later refreshes reuse the same page.
func (s *CartService) GetCart(ctx context.Context, id domain.Identity, limit, offset int) (*domain.Cart, error) {
	if id.IsZero() {
		return nil, &errors.ErrMissingIdentity{}
	}

	s.mu.Lock()
	if limit < 1 {
		limit = s.page.Limit
	}
	if offset < 0 {
		offset = 0
	}
	s.mu.Unlock()

	cart, err := s.fetch(ctx, id, limit, offset)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.page.Limit = limit
	s.page.Offset = offset
	s.mu.Unlock()

	return s.replace(cart, ""), nil
}

// Refresh re-fetches the last requested page.
func (s *CartService) Refresh(ctx context.Context, id domain.Identity) (*domain.Cart, error) {
	return s.refresh(ctx, id, "")
}

// refresh re-fetches the last requested page. The reconciling line, if any,
// takes the server's values even though its update is still pending.
func (s *CartService) refresh(ctx context.Context, id domain.Identity, reconciling string) (*domain.Cart, error) {
	s.mu.Lock()
	limit, offset := s.page.Limit, s.page.Offset
	s.mu.Unlock()

	cart, err := s.fetch(ctx, id, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.replace(cart, reconciling), nil
}

// UpdateQuantity sets a line's quantity. The line shows the new quantity and
// a provisional total until the server answers; the whole cart is then
// re-fetched, or the line is restored if the server refused.
func (s *CartService) UpdateQuantity(ctx context.Context, id domain.Identity, itemID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, &errors.ErrInvalidQuantity{Quantity: quantity}
	}
	if id.IsZero() {
		return nil, &errors.ErrMissingIdentity{}
	}

	s.mu.Lock()
	idx := s.cart.Find(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, &errors.ErrNotFound{Resource: "cart item", ID: itemID}
	}
	if err := s.inflight.Begin(itemID); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snapshot := s.cart.Items[idx]
	line := &s.cart.Items[idx]
	line.Quantity = quantity
	line.TotalCost = line.UnitCost.Mul(decimal.NewFromInt(int64(quantity)))
	line.Provisional = true
	s.mu.Unlock()

	_, err := s.gw.Call(ctx, gateway.CartUpdateQuantity.WithID(itemID), id, nil, updateQuantityRequest{Quantity: quantity})

	s.mu.Lock()
	idx = s.cart.Find(itemID)
	if idx < 0 {
		s.mu.Unlock()
		s.inflight.Forget(itemID)
		s.logger.Info("Discarding quantity update for removed cart item",
			zap.String("item_id", itemID),
			zap.NamedError("result", err),
		)
		return nil, &errors.ErrStaleResponse{Resource: "cart item", ID: itemID}
	}
	if err != nil {
		s.cart.Items[idx] = snapshot
		s.mu.Unlock()
		s.inflight.Finish(itemID, false)
		s.logger.Warn("Failed to update cart item quantity",
			zap.String("item_id", itemID),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		return nil, err
	}
	s.mu.Unlock()

	// The line stays pending until the server's values for it are installed.
	cart, err := s.refresh(ctx, id, itemID)
	if err != nil {
		s.mu.Lock()
		idx = s.cart.Find(itemID)
		if idx >= 0 && s.cart.Items[idx].Provisional {
			s.cart.Items[idx] = snapshot
		}
		s.mu.Unlock()
		if idx < 0 {
			s.inflight.Forget(itemID)
		} else {
			s.inflight.Finish(itemID, false)
		}
		s.logger.Warn("Quantity updated but cart refresh failed",
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("quantity updated but cart refresh failed: %w", err)
	}
	s.inflight.Finish(itemID, true)
	return cart, nil
}

// RemoveItem removes a line once the server confirms. The line stays visible
// while the request is pending.
func (s *CartService) RemoveItem(ctx context.Context, id domain.Identity, itemID string) (*domain.Cart, error) {
	if id.IsZero() {
		return nil, &errors.ErrMissingIdentity{}
	}

	s.mu.Lock()
	if s.cart.Find(itemID) < 0 {
		s.mu.Unlock()
		return nil, &errors.ErrNotFound{Resource: "cart item", ID: itemID}
	}
	if err := s.inflight.Begin(itemID); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	if _, err := s.gw.Call(ctx, gateway.CartRemove.WithID(itemID), id, nil, nil); err != nil {
		s.inflight.Finish(itemID, false)
		s.logger.Warn("Failed to remove cart item",
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		return nil, err
	}

	s.mu.Lock()
	if idx := s.cart.Find(itemID); idx >= 0 {
		s.cart.Items = append(s.cart.Items[:idx], s.cart.Items[idx+1:]...)
	}
	s.mu.Unlock()
	s.inflight.Forget(itemID)

	cart, err := s.Refresh(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("item removed but cart refresh failed: %w", err)
	}
	return cart, nil
}

// EmptyCart deletes every line on the server and clears the local cart.
func (s *CartService) EmptyCart(ctx context.Context, id domain.Identity) (*domain.Cart, error) {
	if id.IsZero() {
		return nil, &errors.ErrMissingIdentity{}
	}

	if _, err := s.gw.Call(ctx, gateway.CartEmpty, id, nil, nil); err != nil {
		s.logger.Warn("Failed to empty cart", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.cart = domain.Cart{Page: domain.Page{Limit: s.page.Limit, Offset: s.page.Offset}}
	s.coupon = nil
	s.mu.Unlock()

	cart, err := s.Refresh(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cart emptied but refresh failed: %w", err)
	}
	return cart, nil
}

// Snapshot returns a copy of the local cart.
func (s *CartService) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// MutationState reports the state of the last mutation for a line.
func (s *CartService) MutationState(itemID string) domain.MutationState {
	return s.inflight.State(itemID)
}

func (s *CartService) fetch(ctx context.Context, id domain.Identity, limit, offset int) (domain.Cart, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	content, err := s.gw.Call(ctx, gateway.CartList, id, query, nil)
	if err != nil {
		s.logger.Warn("Failed to fetch cart", zap.Error(err))
		return domain.Cart{}, err
	}

	var payload cartListContent
	if len(content) > 0 && string(content) != "null" {
		if err := json.Unmarshal(content, &payload); err != nil {
			return domain.Cart{}, fmt.Errorf("failed to decode cart: %w", err)
		}
	}
	return payload.toDomain(limit, offset), nil
}

// replace installs cart as the local aggregate. Lines with a quantity update
// still pending keep their provisional values until that update resolves,
// except the reconciling line.
func (s *CartService) replace(cart domain.Cart, reconciling string) *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range cart.Items {
		itemID := cart.Items[i].ID
		if itemID == reconciling || !s.inflight.State(itemID).IsPending() {
			continue
		}
		if idx := s.cart.Find(itemID); idx >= 0 && s.cart.Items[idx].Provisional {
			cart.Items[i] = s.cart.Items[idx]
		}
	}

	if s.coupon != nil {
		coupon := *s.coupon
		cart.Coupon = &coupon
	}
	s.cart = cart
	out := cart.Clone()
	return &out
}

// setCoupon records the coupon the server accepted, or clears it.
func (s *CartService) setCoupon(coupon *domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon = coupon
}
