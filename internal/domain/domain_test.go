package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMutationState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from MutationState
		to   MutationState
		want bool
	}{
		{MutationStateIdle, MutationStatePending, true},
		{MutationStateIdle, MutationStateReconciled, false},
		{MutationStatePending, MutationStateReconciled, true},
		{MutationStatePending, MutationStateFailed, true},
		{MutationStatePending, MutationStatePending, false},
		{MutationStateReconciled, MutationStatePending, true},
		{MutationStateFailed, MutationStatePending, true},
		{MutationStateFailed, MutationStateReconciled, false},
		{MutationState("BOGUS"), MutationStatePending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestIdentity(t *testing.T) {
	guest := GuestIdentity("g-1")
	require.Equal(t, IdentityGuest, guest.Kind())
	require.False(t, guest.IsAuthenticated())
	require.False(t, guest.IsZero())
	require.Empty(t, guest.Token())

	auth := AuthenticatedIdentity("tok")
	require.True(t, auth.IsAuthenticated())
	require.Empty(t, auth.GuestID())

	require.True(t, Identity{}.IsZero())
	require.True(t, GuestIdentity("").IsZero())
	require.True(t, AuthenticatedIdentity("").IsZero())
}

func TestCart_CloneIsIndependent(t *testing.T) {
	c := Cart{
		Items:  []CartItem{{ID: "1", Quantity: 1, TotalCost: decimal.NewFromInt(10)}},
		Coupon: &Coupon{Code: "SAVE10", DiscountAmountType: DiscountPercentage},
	}
	clone := c.Clone()
	clone.Items[0].Quantity = 5
	clone.Coupon.Code = "OTHER"

	require.Equal(t, 1, c.Items[0].Quantity)
	require.Equal(t, "SAVE10", c.Coupon.Code)
	require.Equal(t, 0, c.Find("1"))
	require.Equal(t, -1, c.Find("missing"))
}

func TestDiscountAmountType_IsValid(t *testing.T) {
	require.True(t, DiscountPercentage.IsValid())
	require.True(t, DiscountFlat.IsValid())
	require.False(t, DiscountAmountType("bogo").IsValid())
}

func TestAddress_IsSaved(t *testing.T) {
	require.False(t, Address{}.IsSaved())
	require.False(t, Address{ID: "0"}.IsSaved())
	require.True(t, Address{ID: "a7"}.IsSaved())
}
