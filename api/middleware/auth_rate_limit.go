package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/songqueue-backend/api/responses"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
)

// RateLimiterStore counts attempts in a fixed window.
type RateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy caps attempts per client IP within a fixed window. A
// zero window or limit disables it.
type AuthRateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int64
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, limit: int64(ipLimit)}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p AuthRateLimitPolicy) scope(ip string) string {
	return "ip:" + p.name + ":" + ip
}

func (p AuthRateLimitPolicy) retryAfter() string {
	return strconv.Itoa(int(math.Ceil(p.window.Seconds())))
}

// AuthRateLimit throttles a route per client IP. Counter failures return a
// dependency error instead of letting the request through.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, attempts, err := store.FixedWindowAllow(ctx, policy.scope(ip), policy.limit, policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(policy.limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(policy.limit-attempts, 0), 10))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			logg.Warn(logg.WithFields(ctx, map[string]any{
				"policy":         policy.name,
				"ip":             ip,
				"attempts":       attempts,
				"limit":          policy.limit,
				"window_seconds": int(policy.window.Seconds()),
			}), "auth.rate_limit.blocked")
			w.Header().Set("Retry-After", policy.retryAfter())
			responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts, try again later"))
		})
	}
}
