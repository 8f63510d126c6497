package api

import "github.com/RoyceAzure/lab/storefront/internal/api/handler"

type Server struct {
	CatalogHandler  *handler.CatalogHandler
	CartHandler     *handler.CartHandler
	CheckoutHandler *handler.CheckoutHandler
	OrderHandler    *handler.OrderHandler
}

func NewServer(
	catalogHandler *handler.CatalogHandler,
	cartHandler *handler.CartHandler,
	checkoutHandler *handler.CheckoutHandler,
	orderHandler *handler.OrderHandler,
) *Server {
	return &Server{
		CatalogHandler:  catalogHandler,
		CartHandler:     cartHandler,
		CheckoutHandler: checkoutHandler,
		OrderHandler:    orderHandler,
	}
}
