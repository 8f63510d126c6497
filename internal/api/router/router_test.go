package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/kv"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/ratelimit"
	"github.com/RoyceAzure/lab/storefront/internal/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type stubSessionClient struct {
	resp checkout.SessionResponse
	err  error
}

func (c *stubSessionClient) CreateCheckoutSession(context.Context, checkout.SessionRequest) (checkout.SessionResponse, error) {
	return c.resp, c.err
}

// memoryArchive 以 slice 模擬 postgres 封存
type memoryArchive struct {
	orders []model.Order
	err    error
}

func (a *memoryArchive) GetOrderByID(_ context.Context, orderID string) (*model.Order, error) {
	if a.err != nil {
		return nil, a.err
	}
	for _, o := range a.orders {
		if o.ID == orderID {
			found := o
			return &found, nil
		}
	}
	return nil, nil
}

func (a *memoryArchive) ListOrders(_ context.Context, limit int) ([]model.Order, error) {
	if a.err != nil {
		return nil, a.err
	}
	if limit > len(a.orders) {
		limit = len(a.orders)
	}
	return a.orders[:limit], nil
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type cartView struct {
	Items []struct {
		Name      string  `json:"name"`
		UnitPrice float64 `json:"unitPrice"`
		Quantity  int     `json:"quantity"`
	} `json:"items"`
	Coupon    *string `json:"coupon"`
	ItemCount int     `json:"itemCount"`
	Totals    struct {
		Subtotal float64 `json:"subtotal"`
		Discount float64 `json:"discount"`
		Tax      float64 `json:"tax"`
		Shipping float64 `json:"shipping"`
		Total    float64 `json:"total"`
	} `json:"totals"`
	Formatted struct {
		Total string `json:"total"`
	} `json:"formatted"`
}

const checkoutLimit = 5

type RouterTestSuite struct {
	suite.Suite
	store   *kv.MemoryStore
	orders  *service.OrderService
	client  *stubSessionClient
	archive *memoryArchive
	handler http.Handler
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (suite *RouterTestSuite) SetupTest() {
	suite.store = kv.NewMemoryStore()
	suite.client = &stubSessionClient{}
	suite.archive = &memoryArchive{}

	engine := pricing.NewEngine(pricing.DefaultPolicy())
	observers := service.NewObservers()
	catalog := service.NewCatalogService(service.DefaultProducts())
	cart := service.NewCartService(suite.store, engine, observers, nil)
	suite.orders = service.NewOrderService(suite.store, observers, nil)
	checkoutSvc := service.NewCheckoutService(cart, suite.orders, engine, suite.store, nil,
		service.WithSessionClient(suite.client))

	server := api.NewServer(
		handler.NewCatalogHandler(catalog),
		handler.NewCartHandler(cart, catalog, engine),
		handler.NewCheckoutHandler(checkoutSvc, engine),
		handler.NewOrderHandler(suite.orders, engine, suite.archive),
	)
	limiter := ratelimit.NewFixedWindow(ratelimit.Config{Capacity: checkoutLimit, Window: time.Hour})
	suite.handler = SetupRouter(server, limiter, nil)
}

func (suite *RouterTestSuite) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (suite *RouterTestSuite) cart() cartView {
	rec, env := suite.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var view cartView
	require.NoError(suite.T(), json.Unmarshal(env.Data, &view))
	return view
}

func (suite *RouterTestSuite) TestListProducts() {
	rec, env := suite.do(http.MethodGet, "/api/v1/products?category=woody&sort=za", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	var products []struct {
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Category string  `json:"category"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &products))
	require.Len(suite.T(), products, 3)
	assert.Equal(suite.T(), "Strawberry Vanilla", products[0].Name)
	assert.Equal(suite.T(), 25.0, products[0].Price)

	rec, _ = suite.do(http.MethodGet, "/api/v1/products?price=cheap", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
}

func (suite *RouterTestSuite) TestCartFlow() {
	rec, env := suite.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"name": "Holy Berry"})
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Equal(suite.T(), "Holy Berry added to cart", env.Message)

	rec, _ = suite.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"name": "Custom Candle", "price": 12.5})
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	rec, _ = suite.do(http.MethodPut, "/api/v1/cart/items/"+url.PathEscape("Holy Berry"), map[string]any{"quantity": 3})
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	view := suite.cart()
	require.Len(suite.T(), view.Items, 2)
	assert.Equal(suite.T(), 4, view.ItemCount)
	// 75 + 12.5 = 87.5, tax 6.125, 免運
	assert.Equal(suite.T(), 87.5, view.Totals.Subtotal)
	assert.Equal(suite.T(), 0.0, view.Totals.Shipping)
	assert.Equal(suite.T(), 93.63, view.Totals.Total)
	assert.Equal(suite.T(), "$93.63", view.Formatted.Total)

	rec, _ = suite.do(http.MethodDelete, "/api/v1/cart/items/"+url.PathEscape("Custom Candle"), nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	rec, env = suite.do(http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Equal(suite.T(), "Cart cleared", env.Message)
	assert.Empty(suite.T(), suite.cart().Items)
}

func (suite *RouterTestSuite) TestCartErrors() {
	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{name: "unknown product", method: http.MethodPost, path: "/api/v1/cart/items", body: map[string]any{"name": "Nope"}, status: http.StatusNotFound},
		{name: "empty name", method: http.MethodPost, path: "/api/v1/cart/items", body: map[string]any{"name": " ", "price": 1}, status: http.StatusBadRequest},
		{name: "negative price", method: http.MethodPost, path: "/api/v1/cart/items", body: map[string]any{"name": "X", "price": -1}, status: http.StatusBadRequest},
		{name: "quantity missing", method: http.MethodPut, path: "/api/v1/cart/items/X", body: map[string]any{}, status: http.StatusBadRequest},
		{name: "not in cart", method: http.MethodPut, path: "/api/v1/cart/items/X", body: map[string]any{"quantity": 2}, status: http.StatusNotFound},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			rec, env := suite.do(tc.method, tc.path, tc.body)
			assert.Equal(suite.T(), tc.status, rec.Code)
			assert.NotEmpty(suite.T(), env.Error)
		})
	}
}

func (suite *RouterTestSuite) TestCoupon() {
	rec, _ := suite.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"name": "A", "price": 100})
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	rec, env := suite.do(http.MethodPut, "/api/v1/cart/coupon", map[string]any{"code": "SALE25"})
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Equal(suite.T(), "Coupon applied", env.Message)

	view := suite.cart()
	require.NotNil(suite.T(), view.Coupon)
	assert.Equal(suite.T(), 25.0, view.Totals.Discount)

	rec, env = suite.do(http.MethodPut, "/api/v1/cart/coupon", map[string]any{"code": "BOGUS"})
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Equal(suite.T(), "Coupon not recognized", env.Message)
	assert.Equal(suite.T(), 0.0, suite.cart().Totals.Discount)

	rec, _ = suite.do(http.MethodDelete, "/api/v1/cart/coupon", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Nil(suite.T(), suite.cart().Coupon)
}

func (suite *RouterTestSuite) TestLocalCheckout() {
	rec, env := suite.do(http.MethodPost, "/api/v1/checkout", nil)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(suite.T(), "Your cart is empty", env.Message)

	suite.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"name": "Aqua Surge"})

	rec, env = suite.do(http.MethodPost, "/api/v1/checkout", map[string]any{"mode": "local"})
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	var res struct {
		Mode  string `json:"mode"`
		Order struct {
			ID             string `json:"id"`
			ItemCount      int    `json:"itemCount"`
			FormattedTotal string `json:"formattedTotal"`
		} `json:"order"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &res))
	assert.Equal(suite.T(), "local", res.Mode)
	assert.Regexp(suite.T(), `^ORD-[0-9A-Z]{6}$`, res.Order.ID)
	assert.Equal(suite.T(), "Order "+res.Order.ID+" saved", env.Message)
	// 25 * 1.07 + 4.99
	assert.Equal(suite.T(), "$31.74", res.Order.FormattedTotal)

	assert.Empty(suite.T(), suite.cart().Items)

	rec, env = suite.do(http.MethodGet, "/api/v1/orders", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var orders []struct {
		ID string `json:"id"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &orders))
	require.Len(suite.T(), orders, 1)
	assert.Equal(suite.T(), res.Order.ID, orders[0].ID)
}

func (suite *RouterTestSuite) TestRemoteCheckout() {
	rec, env := suite.do(http.MethodPost, "/api/v1/checkout", map[string]any{"mode": "remote"})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(suite.T(), "Your cart is empty", env.Message)

	suite.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"name": "Aqua Surge"})
	customer := map[string]any{"fullName": "Jamie Doe", "email": "jamie@example.com"}

	rec, _ = suite.do(http.MethodPost, "/api/v1/checkout", map[string]any{"mode": "remote"})
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)

	suite.client.err = &checkout.StatusError{StatusCode: 400, Detail: "Out of stock"}
	rec, env = suite.do(http.MethodPost, "/api/v1/checkout", map[string]any{"mode": "remote", "customer": customer})
	assert.Equal(suite.T(), http.StatusBadGateway, rec.Code)
	assert.Equal(suite.T(), "Checkout failed: Out of stock", env.Message)
	assert.Len(suite.T(), suite.cart().Items, 1)

	suite.client.err = nil
	suite.client.resp = checkout.SessionResponse{URL: "https://pay.example.com/s/9"}
	rec, env = suite.do(http.MethodPost, "/api/v1/checkout", map[string]any{"mode": "remote", "customer": customer})
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	var res struct {
		RedirectURL string `json:"redirectUrl"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &res))
	assert.Equal(suite.T(), "https://pay.example.com/s/9", res.RedirectURL)
	assert.Len(suite.T(), suite.cart().Items, 1)
	assert.Equal(suite.T(), 0, suite.orders.Len())

	rec, env = suite.do(http.MethodGet, "/api/v1/checkout/state", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var status service.CheckoutStatus
	require.NoError(suite.T(), json.Unmarshal(env.Data, &status))
	assert.Equal(suite.T(), service.CheckoutIdle, status.State)
	assert.Equal(suite.T(), service.CheckoutSuccess, status.LastOutcome)
}

func (suite *RouterTestSuite) TestCheckoutRateLimited() {
	for i := 0; i < checkoutLimit; i++ {
		rec, _ := suite.do(http.MethodPost, "/api/v1/checkout", nil)
		assert.Equal(suite.T(), http.StatusUnprocessableEntity, rec.Code)
	}
	rec, _ := suite.do(http.MethodPost, "/api/v1/checkout", nil)
	assert.Equal(suite.T(), http.StatusTooManyRequests, rec.Code)
}

func (suite *RouterTestSuite) TestRequestIDHeader() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)
	assert.Equal(suite.T(), "abc-123", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(suite.T(), rec.Header().Get("X-Request-Id"))
}

func archivedOrder(id string, day int) model.Order {
	return model.Order{
		ID:        id,
		Timestamp: time.Date(2025, 10, day, 9, 0, 0, 0, time.UTC),
		Items: []model.LineItem{
			{Name: "Holy Berry", UnitPrice: decimal.NewFromInt(25), Quantity: 2},
		},
		Totals: model.Totals{Subtotal: decimal.NewFromInt(50), Total: decimal.RequireFromString("53.50")},
	}
}

func (suite *RouterTestSuite) TestArchivedOrders() {
	suite.archive.orders = []model.Order{
		archivedOrder("ORD-BBBBBB", 2),
		archivedOrder("ORD-AAAAAA", 1),
	}

	rec, env := suite.do(http.MethodGet, "/api/v1/orders/archive?limit=1", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var orders []struct {
		ID             string `json:"id"`
		ItemCount      int    `json:"itemCount"`
		FormattedTotal string `json:"formattedTotal"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &orders))
	require.Len(suite.T(), orders, 1)
	assert.Equal(suite.T(), "ORD-BBBBBB", orders[0].ID)
	assert.Equal(suite.T(), 2, orders[0].ItemCount)
	assert.Equal(suite.T(), "$53.50", orders[0].FormattedTotal)

	rec, env = suite.do(http.MethodGet, "/api/v1/orders/archive/ORD-AAAAAA", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var one struct {
		ID string `json:"id"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &one))
	assert.Equal(suite.T(), "ORD-AAAAAA", one.ID)

	testCases := []struct {
		name   string
		path   string
		status int
	}{
		{name: "missing order", path: "/api/v1/orders/archive/ORD-ZZZZZZ", status: http.StatusNotFound},
		{name: "limit not a number", path: "/api/v1/orders/archive?limit=abc", status: http.StatusBadRequest},
		{name: "limit too large", path: "/api/v1/orders/archive?limit=1000", status: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			rec, env := suite.do(http.MethodGet, tc.path, nil)
			assert.Equal(suite.T(), tc.status, rec.Code)
			assert.NotEmpty(suite.T(), env.Message)
		})
	}

	suite.archive.err = errors.New("connection refused")
	rec, env = suite.do(http.MethodGet, "/api/v1/orders/archive", nil)
	assert.Equal(suite.T(), http.StatusInternalServerError, rec.Code)
	assert.Equal(suite.T(), "Internal Server Error", env.Message)
}

func (suite *RouterTestSuite) TestArchiveNotConfigured() {
	engine := pricing.NewEngine(pricing.DefaultPolicy())
	catalog := service.NewCatalogService(service.DefaultProducts())
	cart := service.NewCartService(suite.store, engine, nil, nil)
	checkoutSvc := service.NewCheckoutService(cart, suite.orders, engine, suite.store, nil)
	// typed nil 與未設定相同
	var archive *memoryArchive
	server := api.NewServer(
		handler.NewCatalogHandler(catalog),
		handler.NewCartHandler(cart, catalog, engine),
		handler.NewCheckoutHandler(checkoutSvc, engine),
		handler.NewOrderHandler(suite.orders, engine, archive),
	)
	h := SetupRouter(server, nil, nil)

	for _, path := range []string{"/api/v1/orders/archive", "/api/v1/orders/archive/ORD-AAAAAA"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(suite.T(), http.StatusServiceUnavailable, rec.Code, path)
	}
}
