package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per key in fixed Redis windows.
type RateLimiter struct {
	rdb     *redis.Client
	log     *slog.Logger
	prefix  string
	timeout time.Duration
}

func NewRateLimiter(rdb *redis.Client, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:     rdb,
		log:     log,
		prefix:  "megaqc:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

// Allow increments the counter for key. Redis failures allow the request.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration) {
	if limit <= 0 {
		return true, 0
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	count, err := rl.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.log.Error("redis rate limiter error", "op", "incr", "error", err)
		return true, 0
	}
	if count == 1 {
		if err := rl.rdb.Expire(ctx, redisKey, window).Err(); err != nil {
			rl.log.Error("redis rate limiter error", "op", "expire", "error", err)
		}
	}
	ttl, err := rl.rdb.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return int(count) <= limit, ttl
}

// LimitPosts rate limits POST requests per client IP under the given route
// name. Other methods pass through untouched.
func (rl *RateLimiter) LimitPosts(route string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			allowed, retry := rl.Allow(r.Context(), route+":"+clientIP(r), limit, window)
			if !allowed {
				rl.log.Warn("rate limit exceeded", "route", route, "ip", clientIP(r))
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Round(time.Second)/time.Second)))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return host
}
