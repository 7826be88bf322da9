// Package security provides the outer HTTP middleware: CORS handling,
// per-client rate limiting and optional IP whitelisting. Identity and
// access control live outside this service.
package security

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"simplist/pkg/logger"
)

// Config holds middleware settings.
type Config struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	IPWhitelist    []string
}

// Middleware wraps next with request logging, CORS, IP filtering and rate
// limiting. Health probes pass through the rate limiter untouched.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	limiters := newLimiterPool(cfg.RPS, cfg.Burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogRequest(r)

			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
				w.Header().Set("Access-Control-Max-Age", "600")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if len(cfg.IPWhitelist) > 0 {
				ip := clientIP(r)
				if !ipWhitelisted(ip, cfg.IPWhitelist) {
					logger.Warn("request_blocked", "reason", "ip_not_whitelisted", "ip", ip, "path", r.URL.Path)
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
			}

			if r.URL.Path != "/healthz" && r.URL.Path != "/readyz" {
				if !limiters.allow(clientIP(r)) {
					logger.Warn("request_rate_limited", "remote", r.RemoteAddr, "path", r.URL.Path)
					http.Error(w, "too many requests", http.StatusTooManyRequests)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return h
	}
	return r.RemoteAddr
}

func ipWhitelisted(ip string, whitelist []string) bool {
	for _, w := range whitelist {
		if w == ip {
			return true
		}
		if _, cidr, err := net.ParseCIDR(w); err == nil {
			if p := net.ParseIP(ip); p != nil && cidr.Contains(p) {
				return true
			}
		}
	}
	return false
}

// limiterPool keeps one token bucket per client IP. RPS <= 0 disables
// limiting entirely.
type limiterPool struct {
	rps   float64
	burst int
	mu    sync.Mutex
	pool  map[string]*rate.Limiter
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if burst <= 0 {
		burst = 1
	}
	return &limiterPool{rps: rps, burst: burst, pool: map[string]*rate.Limiter{}}
}

func (p *limiterPool) allow(key string) bool {
	if p.rps <= 0 {
		return true
	}
	p.mu.Lock()
	l, ok := p.pool[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(p.rps), p.burst)
		p.pool[key] = l
	}
	p.mu.Unlock()
	return l.Allow()
}
