package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.ICheckoutService
	engine          *pricing.Engine
}

func NewCheckoutHandler(checkoutService service.ICheckoutService, engine *pricing.Engine) *CheckoutHandler {
	if checkoutService == nil {
		panic("checkoutService cannot be nil")
	}
	if engine == nil {
		panic("engine cannot be nil")
	}
	return &CheckoutHandler{
		checkoutService: checkoutService,
		engine:          engine,
	}
}

// POST /checkout
// body 可省略，使用預設模式
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid request body")
		return
	}

	mode := service.CheckoutMode(req.Mode)
	if mode != "" && !mode.Valid() {
		badRequest(w, fmt.Sprintf("unknown checkout mode %q", req.Mode))
		return
	}

	result, err := h.checkoutService.Checkout(r.Context(), service.CheckoutRequest{
		Mode:     mode,
		Customer: req.Customer,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	res := dto.CheckoutResponse{
		Mode:        string(result.Mode),
		RedirectURL: result.RedirectURL,
		Totals:      result.Totals.Rounded(),
	}
	msg := "Redirecting to checkout"
	if result.Order != nil {
		view := dto.NewOrderView(*result.Order, h.engine)
		res.Order = &view
		msg = fmt.Sprintf("Order %s saved", result.Order.ID)
	}
	response.SuccessJSON(w, res, msg)
}

// GET /checkout/state
func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	response.SuccessJSON(w, h.checkoutService.Status(), "")
}
