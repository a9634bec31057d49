package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/config"
)

const (
	defaultLoginPerMinute = 10
	defaultLoginBurst     = 10

	// Limiters idle this long are dropped once the table grows past
	// maxTrackedClients.
	limiterIdleTTL    = 10 * time.Minute
	maxTrackedClients = 1024
)

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	every rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*trackedLimiter
}

type trackedLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiter(cfg config.LoginRateLimitConfig) *clientLimiter {
	perMinute, burst := cfg.AttemptsPerMinute, cfg.Burst
	if perMinute <= 0 {
		perMinute = defaultLoginPerMinute
	}
	if burst <= 0 {
		burst = defaultLoginBurst
	}
	return &clientLimiter{
		every:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		clients: make(map[string]*trackedLimiter),
	}
}

// reserve takes a token for addr. When none is left it returns false and
// how long the client should wait.
func (l *clientLimiter) reserve(addr string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.clients) >= maxTrackedClients {
		for k, t := range l.clients {
			if now.Sub(t.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
	}

	t, ok := l.clients[addr]
	if !ok {
		t = &trackedLimiter{lim: rate.NewLimiter(l.every, l.burst)}
		l.clients[addr] = t
	}
	t.lastSeen = now

	r := t.lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// rateLimited wraps next so each client address gets at most l's rate.
func (s *Server) rateLimited(l *clientLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ok, wait := l.reserve(host, time.Now())
		if !ok {
			s.logger.Warn("login rate limited", "remote", host)
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Round(time.Second)/time.Second)+1))
			writeError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "too many login attempts")
			return
		}
		next(w, r)
	}
}
