package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gymdesk/pkg/platform/httputil"
	"gymdesk/pkg/platform/middleware/metadata"
	"gymdesk/pkg/requestcontext"
)

// Policy is a request budget applied per client IP.
type Policy struct {
	Name     string
	Requests int
	Window   time.Duration
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

// Middleware enforces policy per client IP. Requires metadata.ClientMetadata
// upstream. Limiter errors fail open.
func Middleware(limiter Limiter, policy Policy, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := metadata.ClientIP(ctx)
			result, err := limiter.Allow(ctx, policy.Name+":"+ip, policy.Requests, policy.Window)
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed",
					"policy", policy.Name,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			if d, ok := limiter.(interface{ Degraded() bool }); ok && d.Degraded() {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}

			if !result.Allowed {
				retryAfter := result.RetryAfter(time.Now())
				logger.WarnContext(ctx, "rate limit exceeded",
					"policy", policy.Name,
					"client_ip", ip,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, errorResponse{
					Error:            "rate_limit_exceeded",
					ErrorDescription: "Too many requests from this device, try again shortly",
					RetryAfter:       retryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
