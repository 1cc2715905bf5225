// Package testutil provides an in-process fake of the remote cart/booking API.
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

// FakeLine is a cart line held by the fake server.
type FakeLine struct {
	ID            string  `json:"id"`
	ServiceID     string  `json:"service_id"`
	CategoryID    string  `json:"category_id"`
	SubCategoryID string  `json:"sub_category_id"`
	VariantKey    string  `json:"variant_key"`
	UnitCost      float64 `json:"service_cost"`
	Quantity      int     `json:"quantity"`
	Discount      float64 `json:"discount_amount"`
	Coupon        float64 `json:"coupon_discount"`
	Campaign      float64 `json:"campaign_discount"`
	Tax           float64 `json:"tax_amount"`
	Total         float64 `json:"total_cost"`
	CouponCode    string  `json:"coupon_code"`
}

// RecordedRequest is one request the fake received.
type RecordedRequest struct {
	Name   string
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// FakeAPI serves the remote endpoints with simple server-side pricing: a line
// total is unit cost times quantity minus a 10% coupon discount, and the
// aggregate adds a flat 5.00 service fee so it never equals the line sum.
type FakeAPI struct {
	Server *httptest.Server

	mu         sync.Mutex
	lines      []FakeLine
	nextID     int
	prices     map[string]float64
	coupons    map[string]bool
	favorites  map[string]bool
	rejections map[string]string
	failures   map[string]int
	gates      map[string]*gate
	calls      map[string]int
	requests   []RecordedRequest
}

// ServiceFee is added to every aggregate total.
const ServiceFee = 5.0

// NewFakeAPI starts a fake server that is closed when t finishes.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeAPI{
		prices:     make(map[string]float64),
		coupons:    map[string]bool{"SAVE10": true},
		favorites:  make(map[string]bool),
		rejections: make(map[string]string),
		failures:   make(map[string]int),
		gates:      make(map[string]*gate),
		calls:      make(map[string]int),
	}

	router := gin.New()
	api := router.Group("/api/v1/customer")
	{
		api.POST("/cart/add", f.handle("cart.add", f.addToCart))
		api.GET("/cart/list", f.handle("cart.list", f.listCart))
		api.PUT("/cart/update-quantity/:id", f.handle("cart.update", f.updateQuantity))
		api.DELETE("/cart/remove/:id", f.handle("cart.remove", f.removeItem))
		api.DELETE("/cart/data/empty", f.handle("cart.empty", f.emptyCart))
		api.POST("/coupon/apply", f.handle("coupon.apply", f.requireAuth(f.applyCoupon)))
		api.GET("/coupon/remove", f.handle("coupon.remove", f.requireAuth(f.removeCoupon)))
		api.POST("/booking/request/send", f.handle("booking.send", f.sendBooking))
		api.POST("/favorite/service/update", f.handle("favorite.toggle", f.requireAuth(f.toggleFavorite)))
	}

	f.Server = httptest.NewServer(router)
	t.Cleanup(func() {
		f.releaseAll()
		f.Server.Close()
	})
	return f
}

// URL returns the base URL of the fake server.
func (f *FakeAPI) URL() string { return f.Server.URL }

// SetPrice sets the unit cost returned for a service.
func (f *FakeAPI) SetPrice(serviceID string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[serviceID] = price
}

// Seed replaces the server cart.
func (f *FakeAPI) Seed(lines ...FakeLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
	for _, l := range lines {
		if l.ID == "" {
			f.nextID++
			l.ID = "line-" + strconv.Itoa(f.nextID)
		}
		reprice(&l)
		f.lines = append(f.lines, l)
	}
}

// Lines returns a copy of the server cart.
func (f *FakeAPI) Lines() []FakeLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeLine(nil), f.lines...)
}

// Reject makes the named endpoint answer 200 with a non-success envelope.
func (f *FakeAPI) Reject(name, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejections[name] = message
}

// Fail makes the named endpoint answer with the given HTTP status.
func (f *FakeAPI) Fail(name string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[name] = status
}

// Reset clears rejections and failures.
func (f *FakeAPI) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejections = make(map[string]string)
	f.failures = make(map[string]int)
}

// Block holds requests to the named endpoint until release is called.
// entered receives once per request that reached the gate.
func (f *FakeAPI) Block(name string) (entered <-chan struct{}, release func()) {
	g := &gate{entered: make(chan struct{}, 16), release: make(chan struct{})}
	f.mu.Lock()
	f.gates[name] = g
	f.mu.Unlock()

	return g.entered, func() {
		f.mu.Lock()
		if f.gates[name] == g {
			delete(f.gates, name)
		}
		f.mu.Unlock()
		g.once.Do(func() { close(g.release) })
	}
}

func (f *FakeAPI) releaseAll() {
	f.mu.Lock()
	gates := f.gates
	f.gates = make(map[string]*gate)
	f.mu.Unlock()
	for _, g := range gates {
		g.once.Do(func() { close(g.release) })
	}
}

// Calls returns how many requests reached the named endpoint.
func (f *FakeAPI) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// TotalCalls returns the number of requests of any kind.
func (f *FakeAPI) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Requests returns the recorded requests for the named endpoint.
func (f *FakeAPI) Requests(name string) []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RecordedRequest
	for _, r := range f.requests {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

// IsFavorite reports the server-side favorite flag.
func (f *FakeAPI) IsFavorite(serviceID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.favorites[serviceID]
}

func (f *FakeAPI) handle(name string, fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		f.mu.Lock()
		f.calls[name]++
		f.requests = append(f.requests, RecordedRequest{
			Name:   name,
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Header: c.Request.Header.Clone(),
			Body:   body,
		})
		g := f.gates[name]
		status := f.failures[name]
		rejection, rejected := f.rejections[name]
		f.mu.Unlock()

		if g != nil {
			g.entered <- struct{}{}
			<-g.release
		}

		if status != 0 {
			c.JSON(status, gin.H{"response_code": fmt.Sprintf("default_%d", status), "message": http.StatusText(status)})
			return
		}
		if rejected {
			c.JSON(http.StatusOK, gin.H{
				"response_code": "default_400",
				"message":       rejection,
				"errors":        []gin.H{{"code": name, "message": rejection}},
			})
			return
		}
		fn(c)
	}
}

func (f *FakeAPI) requireAuth(fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"response_code": "auth_login_401", "message": "unauthenticated"})
			return
		}
		fn(c)
	}
}

func ok(c *gin.Context, code string, content interface{}) {
	c.JSON(http.StatusOK, gin.H{"response_code": code, "message": "ok", "content": content, "errors": []string{}})
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusOK, gin.H{"response_code": "default_404", "message": what + " not found", "errors": []string{}})
}

func reprice(l *FakeLine) {
	gross := l.UnitCost * float64(l.Quantity)
	l.Coupon = 0
	if l.CouponCode != "" {
		l.Coupon = gross * 0.10
	}
	l.Total = gross - l.Discount - l.Coupon - l.Campaign + l.Tax
}

func (f *FakeAPI) findLocked(id string) int {
	for i := range f.lines {
		if f.lines[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeAPI) addToCart(c *gin.Context) {
	var req struct {
		ServiceID     string `json:"service_id"`
		CategoryID    string `json:"category_id"`
		SubCategoryID string `json:"sub_category_id"`
		VariantKey    string `json:"variant_key"`
		Quantity      int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ServiceID == "" || req.Quantity < 1 {
		c.JSON(http.StatusOK, gin.H{"response_code": "default_400", "message": "invalid payload"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.lines {
		if f.lines[i].ServiceID == req.ServiceID && f.lines[i].VariantKey == req.VariantKey {
			f.lines[i].Quantity += req.Quantity
			reprice(&f.lines[i])
			ok(c, "default_store_200", nil)
			return
		}
	}

	price, found := f.prices[req.ServiceID]
	if !found {
		price = 100
	}
	f.nextID++
	line := FakeLine{
		ID:            "line-" + strconv.Itoa(f.nextID),
		ServiceID:     req.ServiceID,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		VariantKey:    req.VariantKey,
		UnitCost:      price,
		Quantity:      req.Quantity,
	}
	reprice(&line)
	f.lines = append(f.lines, line)
	ok(c, "default_store_200", nil)
}

func (f *FakeAPI) listCart(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	total := ServiceFee
	for _, l := range f.lines {
		total += l.Total
	}

	start := offset
	if start > len(f.lines) {
		start = len(f.lines)
	}
	end := start + limit
	if end > len(f.lines) {
		end = len(f.lines)
	}
	page := append([]FakeLine{}, f.lines[start:end]...)

	ok(c, "default_200", gin.H{
		"cart": gin.H{
			"data":  page,
			"total": len(f.lines),
		},
		"total_cost":      total,
		"referral_amount": 0,
		"wallet_balance":  50,
	})
}

func (f *FakeAPI) updateQuantity(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		c.JSON(http.StatusOK, gin.H{"response_code": "default_400", "message": "invalid quantity"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.findLocked(c.Param("id"))
	if i < 0 {
		notFound(c, "cart item")
		return
	}
	f.lines[i].Quantity = req.Quantity
	reprice(&f.lines[i])
	ok(c, "default_update_200", nil)
}

func (f *FakeAPI) removeItem(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.findLocked(c.Param("id"))
	if i < 0 {
		notFound(c, "cart item")
		return
	}
	f.lines = append(f.lines[:i], f.lines[i+1:]...)
	ok(c, "default_delete_200", nil)
}

func (f *FakeAPI) emptyCart(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
	ok(c, "default_delete_200", nil)
}

func (f *FakeAPI) applyCoupon(c *gin.Context) {
	var req struct {
		CouponCode string `json:"coupon_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"response_code": "default_400", "message": "invalid payload"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.coupons[req.CouponCode] {
		c.JSON(http.StatusOK, gin.H{"response_code": "coupon_not_found", "message": "invalid coupon"})
		return
	}
	for i := range f.lines {
		f.lines[i].CouponCode = req.CouponCode
		reprice(&f.lines[i])
	}
	ok(c, "coupon_applied_200", gin.H{
		"coupon_code":          req.CouponCode,
		"discount_title":       "10% off",
		"discount_amount_type": "percent",
		"discount_amount":      10,
	})
}

func (f *FakeAPI) removeCoupon(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.lines {
		f.lines[i].CouponCode = ""
		reprice(&f.lines[i])
	}
	ok(c, "coupon_removed_200", nil)
}

func (f *FakeAPI) sendBooking(c *gin.Context) {
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"response_code": "default_400", "message": "invalid payload"})
		return
	}
	ok(c, "booking_place_success_200", gin.H{"booking_id": "bk-1"})
}

func (f *FakeAPI) toggleFavorite(c *gin.Context) {
	var req struct {
		ServiceID string `json:"service_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ServiceID == "" {
		c.JSON(http.StatusOK, gin.H{"response_code": "default_400", "message": "invalid payload"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites[req.ServiceID] = !f.favorites[req.ServiceID]
	ok(c, "default_update_200", gin.H{"is_favorite": f.favorites[req.ServiceID]})
}
