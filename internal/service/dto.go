package service

import (
	"github.com/shopspring/decimal"

	"github.com/jafarshop/servicecart/internal/domain"
)

// AddToCartRequest represents the add-to-cart payload
type AddToCartRequest struct {
	ServiceID     string `json:"service_id" binding:"required"`
	CategoryID    string `json:"category_id"`
	SubCategoryID string `json:"sub_category_id"`
	VariantKey    string `json:"variant_key"`
	Quantity      int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	CouponCode string `json:"coupon_code"`
}

type favoriteToggleRequest struct {
	ServiceID string `json:"service_id"`
}

// cartListContent is the content of a cart.list envelope.
type cartListContent struct {
	Cart struct {
		Data  []domain.CartItem `json:"data"`
		Total int               `json:"total"`
	} `json:"cart"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	ReferralAmount decimal.Decimal `json:"referral_amount"`
	WalletBalance  decimal.Decimal `json:"wallet_balance"`
}

func (c cartListContent) toDomain(limit, offset int) domain.Cart {
	items := make([]domain.CartItem, 0, len(c.Cart.Data))
	for _, item := range c.Cart.Data {
		item.Provisional = false
		items = append(items, item)
	}

	cart := domain.Cart{
		Items:          items,
		TotalCost:      c.TotalCost,
		ReferralAmount: c.ReferralAmount,
		WalletBalance:  c.WalletBalance,
		Page: domain.Page{
			Limit:  limit,
			Offset: offset,
			Total:  c.Cart.Total,
		},
	}
	if codes := appliedCouponCodes(items); len(codes) > 0 {
		cart.AppliedCouponCode = codes[0]
	}
	return cart
}

// appliedCouponCodes returns the distinct non-empty line coupon codes in
// first-seen order.
func appliedCouponCodes(items []domain.CartItem) []string {
	seen := make(map[string]struct{})
	codes := make([]string, 0)
	for _, item := range items {
		if item.CouponCode == "" {
			continue
		}
		if _, ok := seen[item.CouponCode]; ok {
			continue
		}
		seen[item.CouponCode] = struct{}{}
		codes = append(codes, item.CouponCode)
	}
	return codes
}
