package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/HolgerKurtz/meta-ads-insights/internal/model"
)

// RateLimitMessage is returned with 429 responses.
const RateLimitMessage = "rate limit exceeded; retry after the window resets"

// RateLimit limits each client IP to requestsPerMinute requests in a sliding
// one-minute window. The client IP is taken from X-Real-IP or
// X-Forwarded-For when present. Rejected requests get a JSON error body in
// the same envelope as every other API error.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceeded),
	)
}

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    http.StatusTooManyRequests,
			Message: RateLimitMessage,
		},
	})
}
