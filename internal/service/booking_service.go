package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/internal/gateway"
	"github.com/jafarshop/servicecart/pkg/errors"
)

// ScheduleLayout is the service_schedule format the booking endpoint accepts.
const ScheduleLayout = "2006-01-02 15:04:05"

// BookingInput is everything the checkout step collects before a booking
// request can be built.
type BookingInput struct {
	Cart            domain.Cart
	Address         *domain.Address
	Schedule        string
	PaymentMethod   string
	Identity        domain.Identity
	GuestID         string
	ZoneID          string
	IsPartial       *int
	ServiceType     domain.ServiceType
	BookingType     domain.BookingType
	ServiceLocation string
	Dates           []string
	NewUserInfo     *domain.NewUserInfo
}

type BookingService struct {
	gw     Gateway
	cart   *CartService
	logger *zap.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(gw Gateway, cart *CartService, logger *zap.Logger) *BookingService {
	return &BookingService{
		gw:     gw,
		cart:   cart,
		logger: logger,
	}
}

// Build assembles a booking request and validates it. Every problem is
// reported, not just the first.
func (s *BookingService) Build(in BookingInput) (*domain.BookingRequest, errors.ValidationErrors) {
	var errs errors.ValidationErrors
	missing := func(field string) {
		errs = append(errs, errors.ValidationError{Field: field, Reason: "is required"})
	}
	invalid := func(field, reason string) {
		errs = append(errs, errors.ValidationError{Field: field, Reason: reason})
	}

	req := &domain.BookingRequest{
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		ZoneID:          strings.TrimSpace(in.ZoneID),
		ServiceSchedule: strings.TrimSpace(in.Schedule),
		IsPartial:       in.IsPartial,
		ServiceType:     in.ServiceType,
		BookingType:     in.BookingType,
		Dates:           in.Dates,
		NewUserInfo:     in.NewUserInfo,
		ServiceLocation: strings.TrimSpace(in.ServiceLocation),
	}

	if in.Identity.Kind() == domain.IdentityGuest {
		req.GuestID = in.Identity.GuestID()
	} else {
		req.GuestID = strings.TrimSpace(in.GuestID)
	}

	if in.Address != nil {
		addr := *in.Address
		req.ServiceAddress = &addr
		if addr.IsSaved() {
			req.ServiceAddressID = addr.ID
		} else {
			req.ServiceAddressID = "0"
			req.ServiceAddress.ID = "0"
		}
		if req.ZoneID == "" {
			req.ZoneID = strings.TrimSpace(addr.ZoneID)
		}
	}

	switch {
	case req.PaymentMethod == "":
		missing("payment_method")
	case !domain.IsValidPaymentMethod(req.PaymentMethod):
		invalid("payment_method", "is not a supported payment method")
	}

	if req.ZoneID == "" {
		missing("zone_id")
	}

	if req.ServiceSchedule == "" {
		missing("service_schedule")
	} else if _, err := time.Parse(ScheduleLayout, req.ServiceSchedule); err != nil {
		invalid("service_schedule", "must be formatted as "+ScheduleLayout)
	}

	if req.ServiceAddressID == "" {
		missing("service_address_id")
	}

	if req.GuestID == "" {
		missing("guest_id")
	}

	if req.ServiceAddress == nil {
		missing("service_address")
	} else {
		for _, f := range addressFields(req.ServiceAddress) {
			if strings.TrimSpace(f.value) == "" {
				missing("service_address." + f.name)
			}
		}
		if lat := strings.TrimSpace(req.ServiceAddress.Lat); lat != "" && !isFloat(lat) {
			invalid("service_address.lat", "must be a number")
		}
		if lon := strings.TrimSpace(req.ServiceAddress.Lon); lon != "" && !isFloat(lon) {
			invalid("service_address.lon", "must be a number")
		}
	}

	switch {
	case req.IsPartial == nil:
		missing("is_partial")
	case *req.IsPartial != 0 && *req.IsPartial != 1:
		invalid("is_partial", "must be 0 or 1")
	}

	if req.ServiceType == "" {
		missing("service_type")
	}
	if req.BookingType == "" {
		missing("booking_type")
	}
	if req.ServiceLocation == "" {
		missing("service_location")
	}

	if len(in.Cart.Items) == 0 {
		invalid("cart", "must contain at least one item")
	}

	if req.ServiceType == domain.ServiceTypeRepeat && len(nonEmpty(req.Dates)) == 0 {
		missing("dates")
	}

	if req.NewUserInfo != nil && in.Identity.Kind() == domain.IdentityGuest {
		if strings.TrimSpace(req.NewUserInfo.FirstName) == "" {
			missing("new_user_info.first_name")
		}
		if strings.TrimSpace(req.NewUserInfo.Phone) == "" {
			missing("new_user_info.phone")
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return req, nil
}

// Submit sends a built request. The cart is left as is whatever the outcome;
// call CompleteBooking after a successful submission.
func (s *BookingService) Submit(ctx context.Context, id domain.Identity, req *domain.BookingRequest) (json.RawMessage, error) {
	if id.IsZero() {
		return nil, &errors.ErrMissingIdentity{}
	}

	content, err := s.gw.Call(ctx, gateway.BookingSend, id, nil, req)
	if err != nil {
		s.logger.Warn("Booking request failed",
			zap.String("payment_method", req.PaymentMethod),
			zap.String("zone_id", req.ZoneID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Booking request sent",
		zap.String("zone_id", req.ZoneID),
		zap.String("service_schedule", req.ServiceSchedule),
	)
	return content, nil
}

// CompleteBooking clears the cart after a successful submission.
func (s *BookingService) CompleteBooking(ctx context.Context, id domain.Identity) (*domain.Cart, error) {
	return s.cart.EmptyCart(ctx, id)
}

type addressField struct {
	name  string
	value string
}

func addressFields(a *domain.Address) []addressField {
	return []addressField{
		{"address_type", a.AddressType},
		{"address_label", a.AddressLabel},
		{"contact_person_name", a.ContactPersonName},
		{"contact_person_number", a.ContactPersonNumber},
		{"address", a.Address},
		{"lat", a.Lat},
		{"lon", a.Lon},
		{"zone_id", a.ZoneID},
	}
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
