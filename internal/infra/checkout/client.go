package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

const sessionPath = "/create-checkout-session"

var (
	ErrNoRedirectURL     = errors.New("checkout failed, no URL returned")
	ErrMalformedResponse = errors.New("malformed checkout response")
)

// SessionRequest 送往遠端的訂單內容
type SessionRequest struct {
	Customer model.CustomerInfo `json:"customer"`
	Cart     []model.LineItem   `json:"cart"`
	Total    decimal.Decimal    `json:"total"`
}

// SessionResponse 成功時帶 url，失敗時可能帶 detail
type SessionResponse struct {
	URL    string `json:"url,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// StatusError 遠端回傳非 2xx
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("checkout session status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("checkout session status %d", e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateCheckoutSession 只送一次，不重試
func (c *Client) CreateCheckoutSession(ctx context.Context, req SessionRequest) (SessionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("encode checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionPath, bytes.NewReader(body))
	if err != nil {
		return SessionResponse{}, fmt.Errorf("build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("send checkout request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SessionResponse{}, fmt.Errorf("read checkout response: %w", err)
	}

	// 解析失敗時視為空物件，非 2xx 仍回 StatusError
	var out SessionResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{StatusCode: resp.StatusCode, Detail: out.Detail}
	}
	if decodeErr != nil {
		return SessionResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}
	if out.URL == "" {
		return out, ErrNoRedirectURL
	}
	return out, nil
}
