package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() SessionRequest {
	return SessionRequest{
		Customer: model.CustomerInfo{FullName: "Jo Doe", Email: "jo@example.com", Country: "UK"},
		Cart: []model.LineItem{
			{Name: "Aqua Surge", UnitPrice: decimal.NewFromInt(25), Quantity: 2},
		},
		Total: decimal.RequireFromString("50.00"),
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	testCases := []struct {
		name       string
		status     int
		body       string
		wantURL    string
		wantDetail string
		check      func(t *testing.T, err error)
	}{
		{
			name:    "success",
			status:  http.StatusOK,
			body:    `{"url":"https://pay.example.com/s/123"}`,
			wantURL: "https://pay.example.com/s/123",
		},
		{
			name:   "missing url",
			status: http.StatusOK,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoRedirectURL)
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
		{
			name:       "error with detail",
			status:     http.StatusBadRequest,
			body:       `{"detail":"Invalid email"}`,
			wantDetail: "Invalid email",
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusBadRequest, se.StatusCode)
				assert.Equal(t, "Invalid email", se.Detail)
			},
		},
		{
			name:   "error without json",
			status: http.StatusBadGateway,
			body:   `bad gateway`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Empty(t, se.Detail)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var received map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/create-checkout-session", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL+"/", time.Second)
			resp, err := c.CreateCheckoutSession(context.Background(), testRequest())

			assert.Equal(t, 50.0, received["total"])
			assert.Equal(t, "Jo Doe", received["customer"].(map[string]any)["fullName"])
			cart := received["cart"].([]any)
			require.Len(t, cart, 1)
			assert.Equal(t, float64(2), cart[0].(map[string]any)["quantity"])

			if tc.check != nil {
				require.Error(t, err)
				tc.check(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantURL, resp.URL)
		})
	}
}

func TestCreateCheckoutSessionNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second)
	_, err := c.CreateCheckoutSession(context.Background(), testRequest())
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestCreateCheckoutSessionTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 50*time.Millisecond)
	_, err := c.CreateCheckoutSession(context.Background(), testRequest())
	assert.Error(t, err)
}
