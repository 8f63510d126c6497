package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cartService    service.ICartService
	catalogService service.ICatalogService
	engine         *pricing.Engine
}

func NewCartHandler(cartService service.ICartService, catalogService service.ICatalogService, engine *pricing.Engine) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	if catalogService == nil {
		panic("catalogService cannot be nil")
	}
	if engine == nil {
		panic("engine cannot be nil")
	}
	return &CartHandler{
		cartService:    cartService,
		catalogService: catalogService,
		engine:         engine,
	}
}

func (h *CartHandler) view() dto.CartView {
	snapshot := h.cartService.Snapshot()
	return dto.NewCartView(snapshot, h.engine.ComputeSnapshot(snapshot), h.cartService.Locked(), h.engine)
}

// GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	response.SuccessJSON(w, h.view(), "")
}

// POST /cart/items
// price 未提供時從商品目錄取得
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dto.AddItemDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	price := req.Price
	if req.Name == "" {
		writeError(w, service.ErrInvalidItem)
		return
	}
	if price == nil {
		product, err := h.catalogService.Get(req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		price = &product.Price
	}

	item, err := h.cartService.AddItem(r.Context(), req.Name, *price)
	if err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, h.view(), fmt.Sprintf("%s added to cart", item.Name))
}

// PUT /cart/items/{name}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	name, ok := itemName(r)
	if !ok {
		badRequest(w, "invalid item name")
		return
	}
	var req dto.SetQuantityDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		badRequest(w, "quantity is required")
		return
	}

	if err := h.cartService.SetQuantity(r.Context(), name, *req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, h.view(), "")
}

// DELETE /cart/items/{name}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	name, ok := itemName(r)
	if !ok {
		badRequest(w, "invalid item name")
		return
	}
	if err := h.cartService.RemoveItem(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, h.view(), fmt.Sprintf("%s removed from cart", name))
}

// DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, h.view(), "Cart cleared")
}

// PUT /cart/coupon
// 不認得的 coupon 不算錯誤，只是沒有折扣
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyCouponDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	code := strings.TrimSpace(req.Code)
	if err := h.cartService.ApplyCoupon(r.Context(), code); err != nil {
		writeError(w, err)
		return
	}

	msg := "Coupon applied"
	if code != h.engine.Policy().CouponCode {
		msg = "Coupon not recognized"
	}
	response.SuccessJSON(w, h.view(), msg)
}

// DELETE /cart/coupon
func (h *CartHandler) ClearCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.ClearCoupon(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	response.SuccessJSON(w, h.view(), "Coupon removed")
}

func itemName(r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}
