package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrTransport_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ErrTransport
		want string
	}{
		{
			name: "status and message",
			err:  &ErrTransport{StatusCode: 502, Message: "bad gateway"},
			want: "transport error: status 502: bad gateway",
		},
		{
			name: "status only",
			err:  &ErrTransport{StatusCode: 500},
			want: "transport error: status 500",
		},
		{
			name: "cause only",
			err:  &ErrTransport{Cause: stderrors.New("connection refused")},
			want: "transport error: connection refused",
		},
		{
			name: "empty",
			err:  &ErrTransport{},
			want: "transport error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrTransport_UnwrapThroughWrapping(t *testing.T) {
	cause := stderrors.New("dial tcp: timeout")
	err := fmt.Errorf("list cart: %w", &ErrTransport{Cause: cause})

	var transport *ErrTransport
	require.True(t, stderrors.As(err, &transport))
	require.ErrorIs(t, err, cause)
}

func TestErrRejected_Error(t *testing.T) {
	require.Equal(t, "rejected by server: coupon not found",
		(&ErrRejected{Code: "coupon_404", Message: "coupon not found"}).Error())
	require.Equal(t, "rejected by server: default_400",
		(&ErrRejected{Code: "default_400"}).Error())
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "zone_id", Reason: "required"},
		{Field: "service_address.lat", Reason: "required"},
	}

	require.True(t, errs.Has("service_address.lat"))
	require.False(t, errs.Has("payment_method"))
	require.Equal(t, []string{"zone_id", "service_address.lat"}, errs.Fields())
	require.Equal(t, "validation failed: zone_id: required; service_address.lat: required", errs.Error())
}
