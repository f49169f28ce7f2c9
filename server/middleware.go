package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// authConfig holds admin authentication settings loaded from environment.
type authConfig struct {
	username string
	password string
	token    string
	enabled  bool
}

func loadAuthConfig() *authConfig {
	cfg := &authConfig{
		username: os.Getenv("ADMIN_USERNAME"),
		password: os.Getenv("ADMIN_PASSWORD"),
		token:    os.Getenv("ADMIN_TOKEN"),
	}
	cfg.enabled = (cfg.username != "" && cfg.password != "") || cfg.token != ""
	if !cfg.enabled {
		slog.Warn("admin authentication not configured, admin endpoints are UNPROTECTED; set ADMIN_USERNAME+ADMIN_PASSWORD or ADMIN_TOKEN for production")
	}
	return cfg
}

// adminAuth protects admin endpoints with token or Basic auth.
func adminAuth(next http.Handler, cfg *authConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cfg.enabled {
			next.ServeHTTP(w, r)
			return
		}

		if cfg.token != "" {
			tok := r.Header.Get("X-Admin-Token")
			if tok != "" && subtle.ConstantTimeCompare([]byte(tok), []byte(cfg.token)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}

		if cfg.username != "" && cfg.password != "" {
			user, pass, ok := r.BasicAuth()
			if ok &&
				subtle.ConstantTimeCompare([]byte(user), []byte(cfg.username)) == 1 &&
				subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.password)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="birthday-herald admin"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		slog.Warn("admin auth failed", slog.String("path", r.URL.Path), slog.String("remote_addr", r.RemoteAddr))
	})
}

// rateLimiterConfig holds rate limiting settings.
type rateLimiterConfig struct {
	enabled       bool
	requestsPerIP int
	window        time.Duration
}

func loadRateLimiterConfig() *rateLimiterConfig {
	cfg := &rateLimiterConfig{
		enabled:       os.Getenv("RATE_LIMIT_ENABLED") != "0",
		requestsPerIP: 10,
		window:        time.Minute,
	}
	if v := os.Getenv("RATE_LIMIT_REQUESTS_PER_IP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.requestsPerIP = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.window = time.Duration(n) * time.Second
		}
	}
	return cfg
}

// ipRateLimiter implements a sliding-window limiter per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string][]time.Time
	cfg      *rateLimiterConfig
}

func newIPRateLimiter(ctx context.Context, cfg *rateLimiterConfig) *ipRateLimiter {
	rl := &ipRateLimiter{visitors: make(map[string][]time.Time), cfg: cfg}
	go rl.cleanupLoop(ctx)
	return rl
}

func (rl *ipRateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-ctx.Done():
			return
		}
	}
}

func (rl *ipRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-2 * rl.cfg.window)
	for ip, hits := range rl.visitors {
		if len(hits) == 0 || hits[len(hits)-1].Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *ipRateLimiter) allow(ip string) bool {
	if !rl.cfg.enabled {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.cfg.window)
	hits := rl.visitors[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= rl.cfg.requestsPerIP {
		rl.visitors[ip] = kept
		return false
	}
	rl.visitors[ip] = append(kept, now)
	return true
}

// rateLimitMiddleware rejects clients that exceed the per-IP budget.
func rateLimitMiddleware(next http.Handler, limiter *ipRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(limiter.cfg.window.Seconds())))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the caller's IP, honoring X-Forwarded-For behind proxies.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			ip = strings.TrimSpace(fwd[:idx])
		} else {
			ip = strings.TrimSpace(fwd)
		}
	}
	if idx := strings.LastIndex(ip, ":"); idx >= 0 {
		ip = ip[:idx]
	}
	return ip
}
