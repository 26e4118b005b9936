package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tripmate/tripmate-api/pkg/logger"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int           // Max requests per window
	Window   time.Duration // Time window duration
}

// RateLimiter is a fixed-window limiter backed by redis. Redis errors fail
// open: a broken limiter must not take auth down with it.
type RateLimiter struct {
	client *redis.Client
	config RateLimitConfig
	onDeny func(w http.ResponseWriter, r *http.Request)
}

func NewRateLimiter(client *redis.Client, config RateLimitConfig, onDeny func(w http.ResponseWriter, r *http.Request)) *RateLimiter {
	if onDeny == nil {
		onDeny = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"statusCode":%d,"error":"RATE_LIMITED","message":"Too many requests, please try again later."}`, http.StatusTooManyRequests)
		}
	}
	return &RateLimiter{
		client: client,
		config: config,
		onDeny: onDeny,
	}
}

// Middleware returns the rate limiting middleware, keyed by client IP and
// request path.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientIP(r) + ":" + r.URL.Path

			if !rl.allow(r.Context(), key) {
				rl.onDeny(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Hash the key for privacy
	hasher := sha256.New()
	hasher.Write([]byte(key))
	hashedKey := fmt.Sprintf("ratelimit:%x", hasher.Sum(nil))

	count, err := rl.client.Incr(ctx, hashedKey).Result()
	if err != nil {
		logger.WarnContext(ctx, "Rate limit check failed", "error", err)
		return true
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, hashedKey, rl.config.Window).Err(); err != nil {
			logger.WarnContext(ctx, "Rate limit expire failed", "error", err)
		}
	}

	return count <= int64(rl.config.Requests)
}

// ClientIP extracts the real client IP from the request
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP if there are multiple
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
