package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/response"
)

// MessageTooManyRequests is returned when a client exceeds its rate limit.
const MessageTooManyRequests = "Too many requests, please try again later"

// RateLimiter controls how frequently a caller may perform an action.
type RateLimiter interface {
	Allow(key string) bool
}

type budget struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client key. Idle buckets are swept
// at most once per ttl.
type ipRateLimiter struct {
	mu        sync.Mutex
	budgets   map[string]*budget
	every     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter allows requests events per window for each key, plus burst.
// Non-positive arguments fall back to one request per second with a burst of
// one and a five minute idle ttl.
func NewIPRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) RateLimiter {
	requests = max(requests, 1)
	burst = max(burst, 1)
	if window <= 0 {
		window = time.Second
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &ipRateLimiter{
		budgets: make(map[string]*budget),
		every:   rate.Every(window / time.Duration(requests)),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (l *ipRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		for k, b := range l.budgets {
			if now.Sub(b.lastSeen) > l.ttl {
				delete(l.budgets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.budgets[key]
	if !ok {
		b = &budget{tokens: rate.NewLimiter(l.every, l.burst)}
		l.budgets[key] = b
	}
	b.lastSeen = now
	return b.tokens.AllowN(now, 1)
}

// WithNowFunc overrides the clock in tests.
func (l *ipRateLimiter) WithNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Limit rejects requests over the per-client budget with a 429 envelope. The
// scope keeps separate budgets for routes sharing one limiter.
func Limit(limiter RateLimiter, scope string, proxies TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow(rateLimitKey(proxies.ClientIP(r), scope)) {
				response.Error(r.Context(), w, apierror.TooManyRequests(MessageTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(ip, scope string) string {
	if scope == "" {
		return ip
	}
	return scope + ":" + ip
}

// TrustedProxies lists the networks allowed to report the client address
// through X-Forwarded-For.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts CIDR ranges and bare addresses.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var proxies TrustedProxies
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			proxies = append(proxies, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		proxies = append(proxies, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return proxies, nil
}

func (p TrustedProxies) trusts(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the connection's remote address unless it belongs to a
// trusted proxy. Then X-Forwarded-For is walked from the nearest hop and the
// first untrusted entry wins, so clients cannot pick their own address.
func (p TrustedProxies) ClientIP(r *http.Request) string {
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		remote = host
	}
	if !p.trusts(remote) {
		return remote
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !p.trusts(hop) {
			return hop
		}
		remote = hop
	}
	return remote
}
