package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/internal/gateway"
	"github.com/jafarshop/servicecart/pkg/errors"
)

const couponKey = "coupon"

// CouponService applies and removes coupons. Discount math is server-side;
// the cart is always re-fetched after the server accepts a change.
type CouponService struct {
	gw       Gateway
	cart     *CartService
	inflight *inflightTracker
	logger   *zap.Logger
}

// NewCouponService creates a new coupon service
func NewCouponService(gw Gateway, cart *CartService, logger *zap.Logger) *CouponService {
	return &CouponService{
		gw:       gw,
		cart:     cart,
		inflight: newInflightTracker(),
		logger:   logger,
	}
}

// ApplyCoupon sends code to the server. Re-applying an applied code is
// forwarded as is.
func (s *CouponService) ApplyCoupon(ctx context.Context, id domain.Identity, code string) (*domain.Cart, error) {
	if !id.IsAuthenticated() {
		return nil, &errors.ErrAuthenticationRequired{Operation: "apply coupon"}
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &errors.ErrEmptyCouponCode{}
	}

	return s.mutate(ctx, id, func() (*domain.Coupon, error) {
		content, err := s.gw.Call(ctx, gateway.CouponApply, id, nil, applyCouponRequest{CouponCode: code})
		if err != nil {
			s.logger.Info("Coupon not applied",
				zap.String("coupon_code", code),
				zap.Error(err),
			)
			return nil, err
		}
		return s.decodeCoupon(code, content), nil
	})
}

// decodeCoupon reads the accepted coupon from the apply response. Missing or
// unreadable content still yields the code that was sent.
func (s *CouponService) decodeCoupon(code string, content json.RawMessage) *domain.Coupon {
	coupon := &domain.Coupon{}
	if len(content) > 0 && string(content) != "null" {
		if err := json.Unmarshal(content, coupon); err != nil {
			s.logger.Warn("Unreadable coupon details", zap.String("coupon_code", code), zap.Error(err))
			coupon = &domain.Coupon{}
		}
	}
	if coupon.Code == "" {
		coupon.Code = code
	}
	if coupon.DiscountAmountType != "" && !coupon.DiscountAmountType.IsValid() {
		s.logger.Warn("Unknown discount amount type",
			zap.String("coupon_code", code),
			zap.String("discount_amount_type", string(coupon.DiscountAmountType)),
		)
	}
	return coupon
}

// RemoveCoupon removes whatever coupon the server has applied to the cart.
func (s *CouponService) RemoveCoupon(ctx context.Context, id domain.Identity) (*domain.Cart, error) {
	if !id.IsAuthenticated() {
		return nil, &errors.ErrAuthenticationRequired{Operation: "remove coupon"}
	}

	return s.mutate(ctx, id, func() (*domain.Coupon, error) {
		if _, err := s.gw.Call(ctx, gateway.CouponRemove, id, nil, nil); err != nil {
			s.logger.Warn("Failed to remove coupon", zap.Error(err))
			return nil, err
		}
		return nil, nil
	})
}

// GetAppliedCouponCodes returns the distinct non-empty coupon codes across
// the cart lines, in line order.
func (s *CouponService) GetAppliedCouponCodes(cart domain.Cart) []string {
	return appliedCouponCodes(cart.Items)
}

// mutate runs call under the coupon guard. The coupon it returns, nil after a
// removal, is kept on the cart from then on.
func (s *CouponService) mutate(ctx context.Context, id domain.Identity, call func() (*domain.Coupon, error)) (*domain.Cart, error) {
	if err := s.inflight.Begin(couponKey); err != nil {
		return nil, err
	}

	coupon, err := call()
	if err != nil {
		s.inflight.Finish(couponKey, false)
		return nil, err
	}
	s.inflight.Finish(couponKey, true)
	s.cart.setCoupon(coupon)

	return s.cart.Refresh(ctx, id)
}
