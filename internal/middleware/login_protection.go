package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginProtection combines two brute-force defenses on the login
// route: a per-IP token bucket on POSTs and a per-account lockout
// with exponential backoff.
type LoginProtection struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	attempts map[string]*loginAttempt

	ipRate  rate.Limit
	ipBurst int

	maxFailed     int
	baseLockout   time.Duration
	attemptWindow time.Duration
}

// loginAttempt tracks one account's recent failures.
type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig tunes the defenses. Zero values fall back to
// the defaults.
type LoginProtectionConfig struct {
	// IPRateLimit is POSTs per second per client IP.
	IPRateLimit float64
	// IPBurst is the token-bucket burst per IP.
	IPBurst int
	// MaxFailedAttempts locks the account when reached inside the window.
	MaxFailedAttempts int
	// LockoutDuration is the first lockout; each further lockout doubles it.
	LockoutDuration time.Duration
	// AttemptWindow bounds how long failures count against the account.
	AttemptWindow time.Duration
}

// DefaultLoginProtectionConfig returns the production defaults: one
// POST per two seconds with a burst of five, lockout after five
// failures in fifteen minutes.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates the protection state and starts its
// background sweep.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}

	lp := &LoginProtection{
		buckets:       make(map[string]*rate.Limiter),
		attempts:      make(map[string]*loginAttempt),
		ipRate:        rate.Limit(cfg.IPRateLimit),
		ipBurst:       cfg.IPBurst,
		maxFailed:     cfg.MaxFailedAttempts,
		baseLockout:   cfg.LockoutDuration,
		attemptWindow: cfg.AttemptWindow,
	}
	go lp.sweep()
	return lp
}

// CheckIPRateLimit reports whether a POST from this IP may proceed.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	lp.mu.Lock()
	bucket, ok := lp.buckets[ip]
	if !ok {
		bucket = rate.NewLimiter(lp.ipRate, lp.ipBurst)
		lp.buckets[ip] = bucket
	}
	lp.mu.Unlock()

	return bucket.Allow()
}

// IsAccountLocked reports whether the account is locked and for how
// much longer.
func (lp *LoginProtection) IsAccountLocked(username string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	attempt := lp.attempts[username]
	if attempt == nil || !time.Now().Before(attempt.lockedUntil) {
		return false, 0
	}
	return true, time.Until(attempt.lockedUntil)
}

// RecordFailedAttempt counts one failure against the account. When the
// failure crosses the threshold it locks the account and reports the
// lockout duration.
func (lp *LoginProtection) RecordFailedAttempt(username string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := time.Now()
	attempt := lp.attempts[username]
	switch {
	case attempt == nil:
		attempt = &loginAttempt{firstFailed: now}
		lp.attempts[username] = attempt
	case now.Sub(attempt.firstFailed) > lp.attemptWindow:
		attempt.count = 0
		attempt.firstFailed = now
	}

	attempt.count++
	if attempt.count < lp.maxFailed {
		return false, 0
	}

	// Each lockout doubles the previous one, capped at a day.
	lock := lp.baseLockout << attempt.lockouts
	if lock > 24*time.Hour || lock < lp.baseLockout {
		lock = 24 * time.Hour
	}
	attempt.lockedUntil = now.Add(lock)
	attempt.lockouts++
	attempt.count = 0

	slog.Warn("account locked after repeated failed logins",
		"username", username,
		"lockouts", attempt.lockouts,
		"duration", lock)

	return true, lock
}

// RecordSuccessfulLogin clears the account's failure history.
func (lp *LoginProtection) RecordSuccessfulLogin(username string) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	delete(lp.attempts, username)
}

// GetRemainingAttempts returns how many failures the account has left
// before lockout.
func (lp *LoginProtection) GetRemainingAttempts(username string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	attempt := lp.attempts[username]
	if attempt == nil || time.Since(attempt.firstFailed) > lp.attemptWindow {
		return lp.maxFailed
	}
	if remaining := lp.maxFailed - attempt.count; remaining > 0 {
		return remaining
	}
	return 0
}

// sweep drops expired attempt records and resets the bucket map when
// it grows unreasonably large.
func (lp *LoginProtection) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		lp.mu.Lock()
		for username, attempt := range lp.attempts {
			if now.After(attempt.lockedUntil) && now.Sub(attempt.firstFailed) > lp.attemptWindow {
				delete(lp.attempts, username)
			}
		}
		if len(lp.buckets) > 10000 {
			lp.buckets = make(map[string]*rate.Limiter)
			slog.Info("reset login rate-limit buckets", "reason", "size")
		}
		lp.mu.Unlock()
	}
}

// Middleware rate-limits POSTs per client IP. Reads pass through so
// the login page itself stays reachable.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			if !lp.CheckIPRateLimit(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"error":"Too many login attempts, slow down"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP resolves the client address, preferring reverse-proxy
// headers over the socket peer.
func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// First hop in the chain is the client.
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		return strings.TrimSpace(ip)
	}
	return r.RemoteAddr
}
