package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/service"
)

// ApplyCouponRequest represents the apply coupon payload
type ApplyCouponRequest struct {
	CouponCode string `json:"coupon_code"`
}

// HandleApplyCoupon handles POST /v1/cart/coupon
func HandleApplyCoupon(coupons *service.CouponService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireIdentity(c)
		if !ok {
			return
		}

		var req ApplyCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cart, err := coupons.ApplyCoupon(c.Request.Context(), id, req.CouponCode)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// HandleRemoveCoupon handles DELETE /v1/cart/coupon
func HandleRemoveCoupon(coupons *service.CouponService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireIdentity(c)
		if !ok {
			return
		}

		cart, err := coupons.RemoveCoupon(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// HandleAppliedCouponCodes handles GET /v1/cart/coupon-codes. It reads the
// local cart only.
func HandleAppliedCouponCodes(coupons *service.CouponService, carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"coupon_codes": coupons.GetAppliedCouponCodes(carts.Snapshot()),
		})
	}
}
