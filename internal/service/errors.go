package service

import (
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

var (
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrItemNotInCart      = errors.New("item not in cart")
	ErrInvalidItem        = model.ErrInvalidLineItem
	ErrCartLocked         = errors.New("cart is locked while checkout is in progress")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrCustomerRequired   = errors.New("customer info is required for remote checkout")
	ErrRemoteNotEnabled   = errors.New("remote checkout is not configured")
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrArchiveNotEnabled  = errors.New("order archive is not configured")
)

// PersistenceError 寫入外部儲存失敗
// 記憶體狀態已還原，與儲存內容一致
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

const defaultRemoteMessage = "Checkout error"

// RemoteCheckoutError 遠端 checkout 服務失敗，購物車維持原狀
type RemoteCheckoutError struct {
	StatusCode int
	Detail     string
	Err        error
}

// Message 給使用者看的訊息，遠端有 detail 就用 detail
func (e *RemoteCheckoutError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return defaultRemoteMessage
}

func (e *RemoteCheckoutError) Error() string {
	return "checkout failed: " + e.Message()
}

func (e *RemoteCheckoutError) Unwrap() error {
	return e.Err
}
