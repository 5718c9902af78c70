package httpserver

import (
	"sync"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/watchsync/internal/platform/errors"
)

// ConnectionLimits caps concurrent WebSocket sessions per instance and per client IP.
// A zero maximum disables that cap.
type ConnectionLimits struct {
	mu       sync.Mutex
	total    int
	perIP    map[string]int
	maxTotal int
	maxPerIP int
}

func NewConnectionLimits(maxTotal, maxPerIP int) *ConnectionLimits {
	return &ConnectionLimits{perIP: make(map[string]int), maxTotal: maxTotal, maxPerIP: maxPerIP}
}

// Acquire reserves a slot for ip. On failure the returned reason names the cap that was hit.
func (l *ConnectionLimits) Acquire(ip string) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxTotal > 0 && l.total >= l.maxTotal {
		return false, "global_limit"
	}
	if l.maxPerIP > 0 && l.perIP[ip] >= l.maxPerIP {
		return false, "per_ip_limit"
	}
	l.total++
	l.perIP[ip]++
	return true, ""
}

func (l *ConnectionLimits) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.perIP[ip] == 0 {
		return
	}
	l.total--
	l.perIP[ip]--
	if l.perIP[ip] == 0 {
		delete(l.perIP, ip)
	}
}

// Current returns the number of held slots.
func (l *ConnectionLimits) Current() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Middleware holds a slot for the lifetime of the wrapped handler, which for an
// upgrade route is the whole session.
func (l *ConnectionLimits) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			ok, reason := l.Acquire(ip)
			if !ok {
				if reason == "global_limit" {
					return apperrors.ExternalError("connection capacity reached", nil).WithField("reason", reason)
				}
				return apperrors.RateLimitedError("too many connections").WithField("reason", reason)
			}
			defer l.Release(ip)
			return next(c)
		}
	}
}
