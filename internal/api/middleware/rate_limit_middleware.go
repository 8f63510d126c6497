package middleware

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/ratelimit"
)

// NewRateLimitMiddleware 超過限制回 429
func NewRateLimitMiddleware(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	if limiter == nil {
		panic("rate limiter cannot be nil")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				response.ErrorJSON(w, http.StatusTooManyRequests, nil, "Too many checkout attempts, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
