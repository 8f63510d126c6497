package handler

import (
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

// statusOf service error 對應 http status
func statusOf(err error) int {
	var remoteErr *service.RemoteCheckoutError
	var persistErr *service.PersistenceError
	switch {
	case errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrCustomerRequired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrItemNotInCart),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCartLocked),
		errors.Is(err, service.ErrCheckoutInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrRemoteNotEnabled),
		errors.Is(err, service.ErrArchiveNotEnabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// userMessage 顯示給使用者的提示
func userMessage(err error) string {
	var remoteErr *service.RemoteCheckoutError
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return "Your cart is empty"
	case errors.As(err, &remoteErr):
		return "Checkout failed: " + remoteErr.Message()
	case errors.Is(err, service.ErrCartLocked):
		return "Cart is locked while checkout is in progress"
	case errors.Is(err, service.ErrCheckoutInProgress):
		return "Checkout already in progress"
	case statusOf(err) == http.StatusInternalServerError:
		return "Internal Server Error"
	default:
		return err.Error()
	}
}

func writeError(w http.ResponseWriter, err error) {
	response.ErrorJSON(w, statusOf(err), err, userMessage(err))
}

func badRequest(w http.ResponseWriter, message string) {
	response.ErrorJSON(w, http.StatusBadRequest, nil, message)
}
