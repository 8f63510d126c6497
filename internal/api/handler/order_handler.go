package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/util"
	"github.com/RoyceAzure/lab/storefront/internal/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	defaultArchiveLimit = 50
	maxArchiveLimit     = 200
)

type OrderHandler struct {
	orderService service.IOrderService
	engine       *pricing.Engine
	archive      service.OrderArchiveReader
}

// NewOrderHandler archive 可為 nil，未設定 postgres 時封存查詢回 503
func NewOrderHandler(orderService service.IOrderService, engine *pricing.Engine, archive service.OrderArchiveReader) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	if engine == nil {
		panic("engine cannot be nil")
	}
	if util.IsNil(archive) {
		archive = nil
	}
	return &OrderHandler{orderService: orderService, engine: engine, archive: archive}
}

// GET /orders 新的在前
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	h.writeOrders(w, h.orderService.List())
}

// GET /orders/archive?limit=
func (h *OrderHandler) ListArchivedOrders(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, service.ErrArchiveNotEnabled)
		return
	}

	limit := defaultArchiveLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxArchiveLimit {
			badRequest(w, fmt.Sprintf("limit must be between 1 and %d", maxArchiveLimit))
			return
		}
		limit = n
	}

	orders, err := h.archive.ListOrders(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeOrders(w, orders)
}

// GET /orders/archive/{id}
func (h *OrderHandler) GetArchivedOrder(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, service.ErrArchiveNotEnabled)
		return
	}
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		badRequest(w, "invalid order id")
		return
	}

	order, err := h.archive.GetOrderByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if order == nil {
		writeError(w, fmt.Errorf("%w: %s", service.ErrOrderNotFound, id))
		return
	}
	response.SuccessJSON(w, dto.NewOrderView(*order, h.engine), "")
}

func (h *OrderHandler) writeOrders(w http.ResponseWriter, orders []model.Order) {
	views := make([]dto.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, dto.NewOrderView(o, h.engine))
	}
	response.SuccessJSON(w, views, "")
}
