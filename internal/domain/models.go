package domain

import (
	"github.com/shopspring/decimal"
)

// Identity is either a guest (locally generated id) or an authenticated user
// (bearer token). Only one variant is ever active.
type Identity struct {
	kind    IdentityKind
	guestID string
	token   string
}

// GuestIdentity returns a guest identity for the given device guest id.
func GuestIdentity(guestID string) Identity {
	return Identity{kind: IdentityGuest, guestID: guestID}
}

// AuthenticatedIdentity returns an identity carrying a bearer token.
func AuthenticatedIdentity(token string) Identity {
	return Identity{kind: IdentityAuthenticated, token: token}
}

func (i Identity) Kind() IdentityKind { return i.kind }

func (i Identity) GuestID() string { return i.guestID }

func (i Identity) Token() string { return i.token }

func (i Identity) IsAuthenticated() bool {
	return i.kind == IdentityAuthenticated && i.token != ""
}

// IsZero reports whether the identity carries no usable credential.
func (i Identity) IsZero() bool {
	switch i.kind {
	case IdentityGuest:
		return i.guestID == ""
	case IdentityAuthenticated:
		return i.token == ""
	default:
		return true
	}
}

// CartItem is one cart line as last reconciled with the server.
type CartItem struct {
	ID               string          `json:"id"`
	ServiceID        string          `json:"service_id"`
	CategoryID       string          `json:"category_id"`
	SubCategoryID    string          `json:"sub_category_id"`
	VariantKey       string          `json:"variant_key"`
	UnitCost         decimal.Decimal `json:"service_cost"`
	Quantity         int             `json:"quantity"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	CouponDiscount   decimal.Decimal `json:"coupon_discount"`
	CampaignDiscount decimal.Decimal `json:"campaign_discount"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	CouponCode       string          `json:"coupon_code,omitempty"`

	// Provisional is set while an optimistic quantity change is displayed and
	// TotalCost is a local estimate rather than the server value.
	Provisional bool `json:"provisional,omitempty"`
}

// Page describes which slice of the server cart list is held locally.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// Cart is the server-ordered list of lines plus server-owned aggregates.
// TotalCost is opaque and need not equal the sum of line totals.
type Cart struct {
	Items             []CartItem      `json:"items"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	ReferralAmount    decimal.Decimal `json:"referral_amount"`
	WalletBalance     decimal.Decimal `json:"wallet_balance"`
	AppliedCouponCode string          `json:"applied_coupon_code,omitempty"`
	// Coupon is what the server reported when the coupon was accepted.
	Coupon *Coupon `json:"coupon,omitempty"`
	Page   Page    `json:"page"`
}

// Clone returns a deep copy safe to hand out of a store.
func (c Cart) Clone() Cart {
	out := c
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	if c.Coupon != nil {
		coupon := *c.Coupon
		out.Coupon = &coupon
	}
	return out
}

// Find returns the index of the line with the given id, or -1.
func (c Cart) Find(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// Coupon describes a discount the server accepted.
type Coupon struct {
	Code               string             `json:"coupon_code"`
	DiscountTitle      string             `json:"discount_title"`
	DiscountAmountType DiscountAmountType `json:"discount_amount_type"`
	DiscountAmount     decimal.Decimal    `json:"discount_amount"`
}

// Address is a service address. ID "0" (or empty) marks an inline address;
// any other ID refers to one saved on the server.
type Address struct {
	ID                  string `json:"id,omitempty"`
	AddressType         string `json:"address_type"`
	AddressLabel        string `json:"address_label"`
	ContactPersonName   string `json:"contact_person_name"`
	ContactPersonNumber string `json:"contact_person_number"`
	Address             string `json:"address"`
	Lat                 string `json:"lat"`
	Lon                 string `json:"lon"`
	ZoneID              string `json:"zone_id"`
	City                string `json:"city,omitempty"`
	Zip                 string `json:"zip_code,omitempty"`
	Country             string `json:"country,omitempty"`
	Street              string `json:"street,omitempty"`
	House               string `json:"house,omitempty"`
	Floor               string `json:"floor,omitempty"`
}

// IsSaved reports whether the address references a server-side saved address.
func (a Address) IsSaved() bool {
	return a.ID != "" && a.ID != "0"
}

// NewUserInfo lets a guest create an account as part of a booking.
type NewUserInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
}

// BookingRequest is the payload of the send-booking-request endpoint.
type BookingRequest struct {
	PaymentMethod    string       `json:"payment_method"`
	ZoneID           string       `json:"zone_id"`
	ServiceSchedule  string       `json:"service_schedule"`
	ServiceAddressID string       `json:"service_address_id"`
	GuestID          string       `json:"guest_id"`
	ServiceAddress   *Address     `json:"service_address"`
	IsPartial        *int         `json:"is_partial"`
	ServiceType      ServiceType  `json:"service_type"`
	BookingType      BookingType  `json:"booking_type"`
	Dates            []string     `json:"dates,omitempty"`
	NewUserInfo      *NewUserInfo `json:"new_user_info,omitempty"`
	ServiceLocation  string       `json:"service_location"`
}
