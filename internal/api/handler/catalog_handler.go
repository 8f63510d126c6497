package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type CatalogHandler struct {
	catalogService service.ICatalogService
}

func NewCatalogHandler(catalogService service.ICatalogService) *CatalogHandler {
	if catalogService == nil {
		panic("catalogService cannot be nil")
	}
	return &CatalogHandler{catalogService: catalogService}
}

// GET /products?category=&price=&sort=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.catalogService.List(service.CatalogFilter{
		Category: q.Get("category"),
		Price:    service.PriceBand(q.Get("price")),
		Sort:     service.SortOrder(q.Get("sort")),
	})
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	response.SuccessJSON(w, products, "")
}

// GET /products/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	response.SuccessJSON(w, h.catalogService.Categories(), "")
}
