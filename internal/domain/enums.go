package domain

// IdentityKind tags which Identity variant is active
type IdentityKind string

const (
	IdentityGuest         IdentityKind = "guest"
	IdentityAuthenticated IdentityKind = "authenticated"
)

// MutationState tracks a single optimistic mutation for one key (cart line,
// favorite service, coupon slot).
type MutationState string

const (
	MutationStateIdle       MutationState = "IDLE"
	MutationStatePending    MutationState = "PENDING"
	MutationStateReconciled MutationState = "RECONCILED"
	MutationStateFailed     MutationState = "FAILED"
)

// IsValid checks if the mutation state is valid
func (s MutationState) IsValid() bool {
	switch s {
	case MutationStateIdle,
		MutationStatePending,
		MutationStateReconciled,
		MutationStateFailed:
		return true
	default:
		return false
	}
}

// IsPending reports whether a request is in flight
func (s MutationState) IsPending() bool {
	return s == MutationStatePending
}

// CanTransitionTo checks if a state transition is valid
func (s MutationState) CanTransitionTo(newState MutationState) bool {
	switch s {
	case MutationStateIdle, MutationStateReconciled, MutationStateFailed:
		return newState == MutationStatePending
	case MutationStatePending:
		return newState == MutationStateReconciled ||
			newState == MutationStateFailed
	default:
		return false
	}
}

type DiscountAmountType string

const (
	DiscountPercentage DiscountAmountType = "percent"
	DiscountFlat       DiscountAmountType = "amount"
)

func (t DiscountAmountType) IsValid() bool {
	return t == DiscountPercentage || t == DiscountFlat
}

type ServiceType string

const (
	ServiceTypeRegular ServiceType = "regular"
	ServiceTypeRepeat  ServiceType = "repeat"
)

type BookingType string

const (
	BookingTypeDaily  BookingType = "daily"
	BookingTypeWeekly BookingType = "weekly"
	BookingTypeCustom BookingType = "custom"
)

// PaymentMethods accepted by the booking endpoint.
var PaymentMethods = []string{
	"cash_after_service",
	"digital_payment",
	"wallet_payment",
	"offline_payment",
	"partial",
}

// IsValidPaymentMethod checks m against PaymentMethods
func IsValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}
