package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jafarshop/servicecart/internal/config"
	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/internal/identity"
	"github.com/jafarshop/servicecart/internal/testutil"
	"github.com/jafarshop/servicecart/pkg/errors"
)

func newTestClient(t *testing.T, baseURL string, codes map[string]string) *Client {
	t.Helper()
	return NewClient(config.APIConfig{
		BaseURL:      baseURL,
		Timeout:      2 * time.Second,
		Localization: "en",
		ZoneID:       "z1",
		SuccessCodes: codes,
	}, zaptest.NewLogger(t))
}

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		code   string
		pinned string
		want   bool
	}{
		{"default_200", "", true},
		{"default_update_200", "", true},
		{"default_delete_200", "", true},
		{"default_password_reset_200", "", true},
		{"default_400", "", false},
		{"coupon_not_found", "", false},
		{"", "", false},
		{"default_update_200", "default_update_200", true},
		{"default_200", "default_update_200", false},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.pinned, func(t *testing.T) {
			require.Equal(t, tt.want, IsSuccess(tt.code, tt.pinned))
		})
	}
}

func TestErrorList_UnmarshalJSON(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"response_code":"x","errors":["a","b"]}`), &env))
	require.Equal(t, ErrorList{"a", "b"}, env.Errors)

	env = Envelope{}
	require.NoError(t, json.Unmarshal([]byte(`{"response_code":"x","errors":[{"code":"c1","message":"m1"},{"code":"c2"}]}`), &env))
	require.Equal(t, ErrorList{"m1", "c2"}, env.Errors)

	env = Envelope{}
	require.NoError(t, json.Unmarshal([]byte(`{"response_code":"x","errors":null}`), &env))
	require.Nil(t, env.Errors)
}

func TestClient_Call_ReturnsContent(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Seed(testutil.FakeLine{ServiceID: "svc-1", UnitCost: 20, Quantity: 2})
	client := newTestClient(t, api.URL(), nil)

	content, err := client.Call(context.Background(), CartList, domain.GuestIdentity("g-1"),
		url.Values{"limit": {"10"}, "offset": {"0"}}, nil)
	require.NoError(t, err)

	var payload struct {
		Cart struct {
			Data  []testutil.FakeLine `json:"data"`
			Total int                 `json:"total"`
		} `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(content, &payload))
	require.Equal(t, 1, payload.Cart.Total)
	require.Equal(t, "svc-1", payload.Cart.Data[0].ServiceID)
}

func TestClient_Call_AttachesIdentityHeaders(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	client := newTestClient(t, api.URL(), nil)
	ctx := context.Background()

	_, err := client.Call(ctx, CartList, domain.GuestIdentity("g-1"), nil, nil)
	require.NoError(t, err)
	_, err = client.Call(ctx, CartList, domain.AuthenticatedIdentity("tok"), nil, nil)
	require.NoError(t, err)

	reqs := api.Requests("cart.list")
	require.Len(t, reqs, 2)

	require.Equal(t, "g-1", reqs[0].Header.Get(identity.HeaderGuestID))
	require.Empty(t, reqs[0].Header.Get(identity.HeaderAuthorization))
	require.Equal(t, "en", reqs[0].Header.Get(headerLocalization))
	require.Equal(t, "z1", reqs[0].Header.Get(headerZoneID))

	require.Equal(t, "Bearer tok", reqs[1].Header.Get(identity.HeaderAuthorization))
	require.Empty(t, reqs[1].Header.Get(identity.HeaderGuestID))
}

func TestClient_Call_SerializesBody(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	client := newTestClient(t, api.URL(), nil)

	_, err := client.Call(context.Background(), CartAdd, domain.GuestIdentity("g-1"), nil, map[string]interface{}{
		"service_id": "svc-9",
		"quantity":   3,
	})
	require.NoError(t, err)

	reqs := api.Requests("cart.add")
	require.Len(t, reqs, 1)
	require.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
	require.JSONEq(t, `{"service_id":"svc-9","quantity":3}`, string(reqs[0].Body))
}

func TestClient_Call_Rejected(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Reject("cart.list", "zone not served")
	client := newTestClient(t, api.URL(), nil)

	_, err := client.Call(context.Background(), CartList, domain.GuestIdentity("g-1"), nil, nil)

	var rejected *errors.ErrRejected
	require.True(t, stderrors.As(err, &rejected))
	require.Equal(t, "default_400", rejected.Code)
	require.Equal(t, "zone not served", rejected.Message)
	require.Equal(t, []string{"zone not served"}, rejected.Errors)
}

func TestClient_Call_TransportOnNon2xx(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Fail("cart.list", http.StatusBadGateway)
	client := newTestClient(t, api.URL(), nil)

	_, err := client.Call(context.Background(), CartList, domain.GuestIdentity("g-1"), nil, nil)

	var transport *errors.ErrTransport
	require.True(t, stderrors.As(err, &transport))
	require.Equal(t, http.StatusBadGateway, transport.StatusCode)
	require.Equal(t, "Bad Gateway", transport.Message)
}

func TestClient_Call_TransportOnNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := newTestClient(t, base, nil)
	_, err := client.Call(context.Background(), CartList, domain.GuestIdentity("g-1"), nil, nil)

	var transport *errors.ErrTransport
	require.True(t, stderrors.As(err, &transport))
	require.Zero(t, transport.StatusCode)
	require.Error(t, transport.Cause)
}

func TestClient_Call_MalformedEnvelopeIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>maintenance</html>"))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Call(context.Background(), CartList, domain.GuestIdentity("g-1"), nil, nil)

	var transport *errors.ErrTransport
	require.True(t, stderrors.As(err, &transport))
	require.Equal(t, "malformed envelope", transport.Message)
}

func TestClient_Call_PinnedSuccessCode(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Seed(testutil.FakeLine{ID: "line-1", ServiceID: "svc-1", UnitCost: 10, Quantity: 1})
	ctx := context.Background()
	guest := domain.GuestIdentity("g-1")

	pinnedOK := newTestClient(t, api.URL(), map[string]string{"cart.update": "default_update_200"})
	_, err := pinnedOK.Call(ctx, CartUpdateQuantity.WithID("line-1"), guest, nil, map[string]int{"quantity": 2})
	require.NoError(t, err)

	// The fake answers default_update_200, so a different pinned literal rejects.
	pinnedOther := newTestClient(t, api.URL(), map[string]string{"cart.update": "cart_quantity_updated_200"})
	_, err = pinnedOther.Call(ctx, CartUpdateQuantity.WithID("line-1"), guest, nil, map[string]int{"quantity": 3})
	var rejected *errors.ErrRejected
	require.True(t, stderrors.As(err, &rejected))
}

func TestClient_Call_RateLimiterHonoursContext(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	client := NewClient(config.APIConfig{
		BaseURL:   api.URL(),
		RateLimit: 0.001,
		RateBurst: 1,
	}, zaptest.NewLogger(t))

	_, err := client.Call(context.Background(), CartList, domain.GuestIdentity("g-1"), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Call(ctx, CartList, domain.GuestIdentity("g-1"), nil, nil)

	var transport *errors.ErrTransport
	require.True(t, stderrors.As(err, &transport))
	require.Equal(t, 1, api.Calls("cart.list"))
}

func TestEndpoint_WithID(t *testing.T) {
	ep := CartRemove.WithID("a/b")
	require.Equal(t, "/api/v1/customer/cart/remove/a%2Fb", ep.Path)
	require.Equal(t, "/api/v1/customer/cart/remove/{id}", CartRemove.Path)
}

func TestCheckSuccessCodes(t *testing.T) {
	require.NoError(t, CheckSuccessCodes(nil))
	require.NoError(t, CheckSuccessCodes(map[string]string{
		"cart.update":  "default_update_200",
		"booking.send": "booking_place_success_200",
	}))

	err := CheckSuccessCodes(map[string]string{
		"cart.updat":  "default_update_200",
		"cart.remove": "default_delete_200",
		"coupon.aply": "coupon_applied_200",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cart.updat, coupon.aply")
	require.NotContains(t, err.Error(), "cart.remove")

	// Every listed endpoint can be pinned.
	all := make(map[string]string)
	for _, ep := range Endpoints {
		all[ep.Name] = "x_200"
	}
	require.NoError(t, CheckSuccessCodes(all))
}
