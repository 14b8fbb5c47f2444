package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// ownerTokenHeader carries the management credential.
const ownerTokenHeader = "X-Owner-Token"

// requireOwner verifies the caller's token owns the {orgID} in the path.
func (s *Server) requireOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := r.PathValue("orgID")
		token := r.Header.Get(ownerTokenHeader)
		if !s.auth.IsOwner(r.Context(), token, orgID) {
			writeError(w, http.StatusForbidden, "not an owner of this organization")
			return
		}
		next(w, r)
	}
}

// ipLimiter applies a token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		visitors: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ipLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.visitors[ip]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.visitors[ip] = lim
	}
	return lim
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.limiterFor(ip).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
