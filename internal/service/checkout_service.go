package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/kv"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/util"
	"github.com/RoyceAzure/lab/storefront/internal/pricing"
	"github.com/rs/zerolog"
)

type CheckoutMode string

const (
	CheckoutModeLocal  CheckoutMode = "local"
	CheckoutModeRemote CheckoutMode = "remote"
)

func (m CheckoutMode) Valid() bool {
	return m == CheckoutModeLocal || m == CheckoutModeRemote
}

type CheckoutState string

const (
	CheckoutIdle             CheckoutState = "idle"
	CheckoutValidating       CheckoutState = "validating"
	CheckoutCommittingLocal  CheckoutState = "committing_local"
	CheckoutSubmittingRemote CheckoutState = "submitting_remote"
	CheckoutSuccess          CheckoutState = "success"
	CheckoutFailed           CheckoutState = "failed"
)

const noRedirectDetail = "no URL returned"

// SessionClient 遠端 checkout session 服務
type SessionClient interface {
	CreateCheckoutSession(ctx context.Context, req checkout.SessionRequest) (checkout.SessionResponse, error)
}

type CheckoutRequest struct {
	// 空值使用預設模式
	Mode     CheckoutMode
	Customer *model.CustomerInfo
}

type CheckoutResult struct {
	Mode        CheckoutMode `json:"mode"`
	Order       *model.Order `json:"order,omitempty"`
	RedirectURL string       `json:"redirectUrl,omitempty"`
	Totals      model.Totals `json:"totals"`
}

// CheckoutStatus 目前狀態與上一次結帳結果
type CheckoutStatus struct {
	State       CheckoutState `json:"state"`
	LastOutcome CheckoutState `json:"lastOutcome,omitempty"`
	LastError   string        `json:"lastError,omitempty"`
}

type ICheckoutService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error)
	State() CheckoutState
	Status() CheckoutStatus
	DefaultMode() CheckoutMode
}

type CheckoutServiceOption func(*CheckoutService)

// WithSessionClient 啟用 remote 模式
func WithSessionClient(client SessionClient) CheckoutServiceOption {
	return func(s *CheckoutService) {
		s.client = client
	}
}

func WithDefaultMode(mode CheckoutMode) CheckoutServiceOption {
	return func(s *CheckoutService) {
		if mode.Valid() {
			s.defaultMode = mode
		}
	}
}

func WithRemoteTimeout(timeout time.Duration) CheckoutServiceOption {
	return func(s *CheckoutService) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

/*
CheckoutService 結帳狀態機

	Idle -> Validating -> CommittingLocal  -> Success -> Idle
	                   -> SubmittingRemote -> Success -> Idle
	                   -> Failed -> Idle

同時間只允許一個結帳流程
remote 送出期間購物車凍結，回應後才解除
*/
type CheckoutService struct {
	cart   *CartService
	orders *OrderService
	engine *pricing.Engine
	store  kv.Store
	client SessionClient
	logger *zerolog.Logger

	defaultMode CheckoutMode
	timeout     time.Duration

	mu     sync.Mutex
	state  CheckoutState
	status CheckoutStatus
}

func NewCheckoutService(cart *CartService, orders *OrderService, engine *pricing.Engine, store kv.Store, logger *zerolog.Logger, opts ...CheckoutServiceOption) *CheckoutService {
	if cart == nil {
		panic("CheckoutService dependency cart is nil")
	}
	if orders == nil {
		panic("CheckoutService dependency orders is nil")
	}
	if engine == nil {
		panic("CheckoutService dependency engine is nil")
	}
	if util.IsNil(store) {
		panic("CheckoutService dependency store is nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &CheckoutService{
		cart:        cart,
		orders:      orders,
		engine:      engine,
		store:       store,
		logger:      logger,
		defaultMode: CheckoutModeLocal,
		timeout:     15 * time.Second,
		state:       CheckoutIdle,
		status:      CheckoutStatus{State: CheckoutIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ICheckoutService = (*CheckoutService)(nil)

func (s *CheckoutService) DefaultMode() CheckoutMode {
	return s.defaultMode
}

func (s *CheckoutService) State() CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *CheckoutService) Status() CheckoutStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.State = s.state
	return st
}

// Checkout 依模式執行結帳
// local 模式訂單寫入成功但清空購物車失敗時，result 仍帶訂單，同時回傳 error
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (result CheckoutResult, err error) {
	mode := req.Mode
	if mode == "" {
		mode = s.defaultMode
	}
	if !mode.Valid() {
		return CheckoutResult{}, fmt.Errorf("unknown checkout mode %q", mode)
	}

	if !s.begin() {
		return CheckoutResult{}, ErrCheckoutInProgress
	}
	defer func() {
		s.finish(err)
	}()

	// 空購物車優先於其他檢查
	snapshot, err := s.cart.beginCheckout()
	if err != nil {
		return CheckoutResult{}, err
	}

	if mode == CheckoutModeRemote {
		if err := s.remoteReady(req); err != nil {
			if endErr := s.cart.endCheckout(ctx, false); endErr != nil {
				s.logger.Error().Err(endErr).Msg("unlock cart failed")
			}
			return CheckoutResult{}, err
		}
	}

	totals := s.engine.ComputeSnapshot(snapshot)
	result = CheckoutResult{Mode: mode, Totals: totals}

	if mode == CheckoutModeLocal {
		return s.commitLocal(ctx, snapshot, result, req.Customer)
	}
	return s.submitRemote(ctx, snapshot, result, *req.Customer)
}

func (s *CheckoutService) remoteReady(req CheckoutRequest) error {
	if s.client == nil {
		return ErrRemoteNotEnabled
	}
	if req.Customer == nil {
		return ErrCustomerRequired
	}
	return nil
}

func (s *CheckoutService) commitLocal(ctx context.Context, snapshot model.CartSnapshot, result CheckoutResult, customer *model.CustomerInfo) (CheckoutResult, error) {
	s.setState(CheckoutCommittingLocal)

	order, err := s.orders.Commit(ctx, snapshot, result.Totals, customer)
	if err != nil {
		if endErr := s.cart.endCheckout(ctx, false); endErr != nil {
			s.logger.Error().Err(endErr).Msg("unlock cart failed")
		}
		return CheckoutResult{}, err
	}
	result.Order = &order

	if err := s.cart.endCheckout(ctx, true); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("order committed but cart clear failed")
		return result, fmt.Errorf("order %s saved, clear cart: %w", order.ID, err)
	}
	return result, nil
}

func (s *CheckoutService) submitRemote(ctx context.Context, snapshot model.CartSnapshot, result CheckoutResult, customer model.CustomerInfo) (CheckoutResult, error) {
	defer func() {
		if err := s.cart.endCheckout(ctx, false); err != nil {
			s.logger.Error().Err(err).Msg("unlock cart failed")
		}
	}()

	if err := kv.SetJSON(ctx, s.store, CustomerKey, customer); err != nil {
		return CheckoutResult{}, &PersistenceError{Key: CustomerKey, Err: err}
	}

	s.setState(CheckoutSubmittingRemote)

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateCheckoutSession(reqCtx, checkout.SessionRequest{
		Customer: customer,
		Cart:     snapshot.Items,
		Total:    result.Totals.Total,
	})
	if err != nil {
		return CheckoutResult{}, toRemoteError(err)
	}

	result.RedirectURL = resp.URL
	s.logger.Info().Str("total", result.Totals.Total.StringFixed(2)).Msg("checkout session created")
	return result, nil
}

func toRemoteError(err error) *RemoteCheckoutError {
	remoteErr := &RemoteCheckoutError{Err: err}
	var statusErr *checkout.StatusError
	switch {
	case errors.As(err, &statusErr):
		remoteErr.StatusCode = statusErr.StatusCode
		remoteErr.Detail = statusErr.Detail
	case errors.Is(err, checkout.ErrNoRedirectURL):
		remoteErr.Detail = noRedirectDetail
	}
	return remoteErr
}

func (s *CheckoutService) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != CheckoutIdle {
		return false
	}
	s.state = CheckoutValidating
	return true
}

func (s *CheckoutService) setState(state CheckoutState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// finish 記錄結果並回到 Idle
func (s *CheckoutService) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status.LastOutcome = CheckoutFailed
		s.status.LastError = err.Error()
		s.logger.Warn().Err(err).Msg("checkout failed")
	} else {
		s.status.LastOutcome = CheckoutSuccess
		s.status.LastError = ""
	}
	s.state = CheckoutIdle
}
