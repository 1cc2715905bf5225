package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Endpoint describes one remote operation. SuccessCode, when set, pins the
// exact response_code literal that signals success; otherwise any code
// containing "200" is accepted.
type Endpoint struct {
	Name        string
	Method      string
	Path        string
	SuccessCode string
}

// WithID substitutes the {id} path parameter.
func (e Endpoint) WithID(id string) Endpoint {
	e.Path = strings.ReplaceAll(e.Path, "{id}", url.PathEscape(id))
	return e
}

var (
	CartAdd = Endpoint{
		Name:   "cart.add",
		Method: http.MethodPost,
		Path:   "/api/v1/customer/cart/add",
	}
	CartList = Endpoint{
		Name:   "cart.list",
		Method: http.MethodGet,
		Path:   "/api/v1/customer/cart/list",
	}
	CartUpdateQuantity = Endpoint{
		Name:   "cart.update",
		Method: http.MethodPut,
		Path:   "/api/v1/customer/cart/update-quantity/{id}",
	}
	CartRemove = Endpoint{
		Name:   "cart.remove",
		Method: http.MethodDelete,
		Path:   "/api/v1/customer/cart/remove/{id}",
	}
	CartEmpty = Endpoint{
		Name:   "cart.empty",
		Method: http.MethodDelete,
		Path:   "/api/v1/customer/cart/data/empty",
	}
	CouponApply = Endpoint{
		Name:   "coupon.apply",
		Method: http.MethodPost,
		Path:   "/api/v1/customer/coupon/apply",
	}
	CouponRemove = Endpoint{
		Name:   "coupon.remove",
		Method: http.MethodGet,
		Path:   "/api/v1/customer/coupon/remove",
	}
	BookingSend = Endpoint{
		Name:   "booking.send",
		Method: http.MethodPost,
		Path:   "/api/v1/customer/booking/request/send",
	}
	FavoriteToggle = Endpoint{
		Name:   "favorite.toggle",
		Method: http.MethodPost,
		Path:   "/api/v1/customer/favorite/service/update",
	}
)

// Endpoints lists every endpoint the engine consumes.
var Endpoints = []Endpoint{
	CartAdd,
	CartList,
	CartUpdateQuantity,
	CartRemove,
	CartEmpty,
	CouponApply,
	CouponRemove,
	BookingSend,
	FavoriteToggle,
}

// CheckSuccessCodes reports override names that match no endpoint.
func CheckSuccessCodes(codes map[string]string) error {
	known := make(map[string]bool, len(Endpoints))
	for _, ep := range Endpoints {
		known[ep.Name] = true
	}

	var unknown []string
	for name := range codes {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown endpoint in API_SUCCESS_CODES: %s", strings.Join(unknown, ", "))
}
