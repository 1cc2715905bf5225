package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/internal/service"
)

// BookingPayload represents the checkout form. The cart is taken from the
// local cart store, never from the client.
type BookingPayload struct {
	PaymentMethod   string              `json:"payment_method"`
	ZoneID          string              `json:"zone_id"`
	ServiceSchedule string              `json:"service_schedule"`
	GuestID         string              `json:"guest_id"`
	ServiceAddress  *domain.Address     `json:"service_address"`
	IsPartial       *int                `json:"is_partial"`
	ServiceType     domain.ServiceType  `json:"service_type"`
	BookingType     domain.BookingType  `json:"booking_type"`
	ServiceLocation string              `json:"service_location"`
	Dates           []string            `json:"dates,omitempty"`
	NewUserInfo     *domain.NewUserInfo `json:"new_user_info,omitempty"`
}

// BookingResponse represents a submitted booking
type BookingResponse struct {
	Booking     json.RawMessage `json:"booking,omitempty"`
	CartCleared bool            `json:"cart_cleared"`
}

func (p BookingPayload) toInput(id domain.Identity, cart domain.Cart, defaultZone string) service.BookingInput {
	zone := p.ZoneID
	if zone == "" && (p.ServiceAddress == nil || p.ServiceAddress.ZoneID == "") {
		zone = defaultZone
	}
	return service.BookingInput{
		Cart:            cart,
		Address:         p.ServiceAddress,
		Schedule:        p.ServiceSchedule,
		PaymentMethod:   p.PaymentMethod,
		Identity:        id,
		GuestID:         p.GuestID,
		ZoneID:          zone,
		IsPartial:       p.IsPartial,
		ServiceType:     p.ServiceType,
		BookingType:     p.BookingType,
		ServiceLocation: p.ServiceLocation,
		Dates:           p.Dates,
		NewUserInfo:     p.NewUserInfo,
	}
}

// HandleValidateBooking handles POST /v1/bookings/validate
func HandleValidateBooking(bookings *service.BookingService, carts *service.CartService, defaultZone string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireIdentity(c)
		if !ok {
			return
		}

		var payload BookingPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		req, errs := bookings.Build(payload.toInput(id, carts.Snapshot(), defaultZone))
		if len(errs) > 0 {
			respondError(c, logger, errs)
			return
		}
		c.JSON(http.StatusOK, req)
	}
}

// HandleCreateBooking handles POST /v1/bookings
func HandleCreateBooking(bookings *service.BookingService, carts *service.CartService, defaultZone string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireIdentity(c)
		if !ok {
			return
		}

		var payload BookingPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		req, errs := bookings.Build(payload.toInput(id, carts.Snapshot(), defaultZone))
		if len(errs) > 0 {
			respondError(c, logger, errs)
			return
		}

		content, err := bookings.Submit(c.Request.Context(), id, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		resp := BookingResponse{Booking: content, CartCleared: true}
		if _, err := bookings.CompleteBooking(c.Request.Context(), id); err != nil {
			// The booking exists; the cart can be emptied later.
			logger.Warn("Failed to empty cart after booking", zap.Error(err))
			resp.CartCleared = false
		}

		c.JSON(http.StatusCreated, resp)
	}
}
