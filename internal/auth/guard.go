// Package auth implements the admin pseudo-login: a shared password, a
// sliding session window and a lockout derived from recent failures.
//
// This is a convenience gate, not a security boundary. The password is a
// plain configuration value.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/folio/internal/metrics"
	"github.com/joescharf/folio/internal/models"
	"github.com/joescharf/folio/internal/store"
)

// Session storage keys.
const (
	KeyAuth     = "portfolio_admin_auth"
	KeyAuthTime = "portfolio_admin_auth_time"
	KeyAttempts = "portfolio_access_attempts"

	adminPrefix = "portfolio_admin_"
)

// Defaults.
const (
	DefaultSessionTimeout = 4 * time.Hour
	DefaultLockoutWindow  = 15 * time.Minute
	DefaultMaxAttempts    = 10
	suspiciousFailures    = 3
)

// Guard tracks one visitor's admin session in a session store.
type Guard struct {
	st             store.Store
	secret         string
	now            func() time.Time
	sessionTimeout time.Duration
	lockoutWindow  time.Duration
	maxAttempts    int

	mu sync.Mutex
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithSecret sets the admin password. An empty secret never matches.
func WithSecret(secret string) Option {
	return func(g *Guard) { g.secret = secret }
}

// WithSessionTimeout sets the inactivity timeout.
func WithSessionTimeout(d time.Duration) Option {
	return func(g *Guard) { g.sessionTimeout = d }
}

// WithLockoutWindow sets both the failure window and the lockout length.
func WithLockoutWindow(d time.Duration) Option {
	return func(g *Guard) { g.lockoutWindow = d }
}

// WithMaxAttempts caps the attempt log.
func WithMaxAttempts(n int) Option {
	return func(g *Guard) { g.maxAttempts = n }
}

// NewGuard returns a Guard over the session store st.
func NewGuard(st store.Store, opts ...Option) *Guard {
	g := &Guard{
		st:             st,
		now:            time.Now,
		sessionTimeout: DefaultSessionTimeout,
		lockoutWindow:  DefaultLockoutWindow,
		maxAttempts:    DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate checks password, records the attempt and, on a match,
// starts the session. It does not refuse during lockout; callers check
// LockoutTimeRemaining first.
func (g *Guard) Authenticate(ctx context.Context, password, userAgent, ip string) (bool, error) {
	ok := g.secret != "" && subtle.ConstantTimeCompare([]byte(password), []byte(g.secret)) == 1

	if _, err := g.LogAccessAttempt(ctx, ok, userAgent, ip); err != nil {
		return false, err
	}
	if !ok {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return false, nil
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	if err := g.st.Set(ctx, KeyAuth, "true"); err != nil {
		return false, fmt.Errorf("store auth flag: %w", err)
	}
	if err := g.touch(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// IsAuthenticated reports whether the session is live. An expired session
// is logged out. A live one has its timestamp refreshed.
func (g *Guard) IsAuthenticated(ctx context.Context) (bool, error) {
	flag, ok, err := g.st.Get(ctx, KeyAuth)
	if err != nil || !ok {
		return false, err
	}
	at, ok, err := g.authTime(ctx)
	if err != nil || !ok {
		return false, err
	}

	if g.now().Sub(at) > g.sessionTimeout {
		return false, g.Logout(ctx)
	}
	if err := g.touch(ctx); err != nil {
		return false, err
	}
	return flag == "true", nil
}

// Logout removes every admin key. The attempt log is kept.
func (g *Guard) Logout(ctx context.Context) error {
	keys, err := g.st.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list session keys: %w", err)
	}
	for _, k := range keys {
		if strings.HasPrefix(k, adminPrefix) {
			if err := g.st.Remove(ctx, k); err != nil {
				return fmt.Errorf("remove %s: %w", k, err)
			}
		}
	}
	return nil
}

// RemainingSessionTime is the time left before the session expires, zero
// when there is no session.
func (g *Guard) RemainingSessionTime(ctx context.Context) (time.Duration, error) {
	at, ok, err := g.authTime(ctx)
	if err != nil || !ok {
		return 0, err
	}
	return max(0, g.sessionTimeout-g.now().Sub(at)), nil
}

// ExtendSession restarts the session window if the session is live.
func (g *Guard) ExtendSession(ctx context.Context) (bool, error) {
	ok, err := g.IsAuthenticated(ctx)
	if err != nil || !ok {
		return false, err
	}
	return true, g.touch(ctx)
}

// LogAccessAttempt appends an attempt to the capped log and returns it.
func (g *Guard) LogAccessAttempt(ctx context.Context, success bool, userAgent, ip string) (models.AccessAttempt, error) {
	if ip == "" {
		ip = "unknown"
	}
	now := g.now()
	attempt := models.AccessAttempt{
		Timestamp: now.UTC(),
		Success:   success,
		UserAgent: userAgent,
		IP:        ip,
		SessionID: newSessionID(now),
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	attempts, err := g.AccessAttempts(ctx)
	if err != nil {
		return models.AccessAttempt{}, err
	}
	attempts = append(attempts, attempt)
	if len(attempts) > g.maxAttempts {
		attempts = attempts[len(attempts)-g.maxAttempts:]
	}

	data, err := json.Marshal(attempts)
	if err != nil {
		return models.AccessAttempt{}, fmt.Errorf("encode attempts: %w", err)
	}
	if err := g.st.Set(ctx, KeyAttempts, string(data)); err != nil {
		return models.AccessAttempt{}, fmt.Errorf("store attempts: %w", err)
	}
	return attempt, nil
}

// AccessAttempts returns the attempt log, oldest first. An unreadable log
// reads as empty.
func (g *Guard) AccessAttempts(ctx context.Context) ([]models.AccessAttempt, error) {
	raw, ok, err := g.st.Get(ctx, KeyAttempts)
	if err != nil {
		return nil, fmt.Errorf("read attempts: %w", err)
	}
	attempts := []models.AccessAttempt{}
	if !ok {
		return attempts, nil
	}
	if err := json.Unmarshal([]byte(raw), &attempts); err != nil {
		return []models.AccessAttempt{}, nil
	}
	return attempts, nil
}

// IsSuspiciousActivity reports three or more failures strictly inside the
// lockout window.
func (g *Guard) IsSuspiciousActivity(ctx context.Context) (bool, error) {
	attempts, err := g.AccessAttempts(ctx)
	if err != nil {
		return false, err
	}
	return g.recentFailures(attempts) >= suspiciousFailures, nil
}

// LockoutTimeRemaining is zero unless activity is suspicious, in which case
// it is the lockout window minus the time since the latest failure.
func (g *Guard) LockoutTimeRemaining(ctx context.Context) (time.Duration, error) {
	attempts, err := g.AccessAttempts(ctx)
	if err != nil {
		return 0, err
	}
	if g.recentFailures(attempts) < suspiciousFailures {
		return 0, nil
	}

	var last time.Time
	for _, a := range attempts {
		if !a.Success && a.Timestamp.After(last) {
			last = a.Timestamp
		}
	}
	return max(0, g.lockoutWindow-g.now().Sub(last)), nil
}

func (g *Guard) recentFailures(attempts []models.AccessAttempt) int {
	cutoff := g.now().Add(-g.lockoutWindow)
	n := 0
	for _, a := range attempts {
		if !a.Success && a.Timestamp.After(cutoff) {
			n++
		}
	}
	return n
}

func (g *Guard) authTime(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := g.st.Get(ctx, KeyAuthTime)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// An unparsable stamp counts as infinitely old.
		return time.Time{}, true, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (g *Guard) touch(ctx context.Context) error {
	ms := strconv.FormatInt(g.now().UnixMilli(), 10)
	if err := g.st.Set(ctx, KeyAuthTime, ms); err != nil {
		return fmt.Errorf("store auth time: %w", err)
	}
	return nil
}

// FormatRemainingTime renders a session duration as "2h 5m", "5m" or
// "Expired".
func FormatRemainingTime(d time.Duration) string {
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return "Expired"
	}
}

// FormatLockout renders a lockout duration as m:ss.
func FormatLockout(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func newSessionID(now time.Time) string {
	entropy := rand.New(rand.NewSource(now.UnixNano()))
	return ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(entropy, 0)).String()
}
