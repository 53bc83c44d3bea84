package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/sells-group/lead-qualifier/internal/ratelimit"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID tags every request with a UUID, reusing an inbound X-Request-ID
// when the caller supplies one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestIDFrom returns the request ID stored by the RequestID middleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RateLimiter is the admission-control surface the middleware needs.
type RateLimiter interface {
	Check(ctx context.Context, id ratelimit.Identity) ratelimit.Decision
}

// RateLimit enforces tiered quotas and annotates every response with the
// standard X-RateLimit-* headers. Denials get a 429 with Retry-After.
func RateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := ratelimit.IdentityFromRequest(r)
			decision := limiter.Check(r.Context(), identity)

			if decision.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			}
			if decision.Remaining != ratelimit.RemainingUnknown {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			}
			if !decision.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			}

			if !decision.Allowed {
				retryAfter := int(decision.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respondError(w, r, http.StatusTooManyRequests, "rate_limited",
					"rate limit exceeded for "+decision.Window+" window")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
