// Package ratelimit provides admission control for mutating endpoints.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"splitboard/internal/cache"
	"splitboard/internal/observability"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter admits or rejects one action by identifier.
type Limiter interface {
	Check(ctx context.Context, identifier string) (Decision, error)
}

// Policy names a limit and its window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	// Comments allows 10 comments per minute per user.
	Comments = Policy{Name: "comments", Limit: 10, Window: time.Minute}
	// Uploads allows 5 uploads per day per user.
	Uploads = Policy{Name: "uploads", Limit: 5, Window: 24 * time.Hour}
	// Auth allows 5 register or login attempts per 15 minutes per IP.
	Auth = Policy{Name: "auth", Limit: 5, Window: 15 * time.Minute}
)

// FixedWindow counts actions in Redis with INCR and EXPIRE so every API
// instance shares one counter per identifier.
type FixedWindow struct {
	rdb    *redis.Client
	policy Policy
}

// NewFixedWindow returns a Redis backed limiter for policy.
func NewFixedWindow(rdb *redis.Client, policy Policy) *FixedWindow {
	return &FixedWindow{rdb: rdb, policy: policy}
}

// Check increments the identifier's counter and rejects once it passes the
// policy limit. The counter expires one window after its first increment.
func (f *FixedWindow) Check(ctx context.Context, identifier string) (Decision, error) {
	if f.rdb == nil {
		return Decision{}, errors.New("redis client is nil")
	}
	key := cache.RateLimitKey(f.policy.Name, identifier)

	cnt, err := f.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, err
	}
	if cnt == 1 {
		if err := f.rdb.Expire(ctx, key, f.policy.Window).Err(); err != nil {
			return Decision{}, err
		}
	}
	if cnt <= int64(f.policy.Limit) {
		return Decision{Allowed: true}, nil
	}

	ttl, err := f.rdb.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		// A counter without expiry would block forever.
		if ttl == -1 {
			f.rdb.Expire(ctx, key, f.policy.Window)
		}
		ttl = f.policy.Window
	}
	return Decision{Allowed: false, RetryAfter: ttl}, nil
}

// Local is an in-process token bucket per identifier. It is the fallback when
// Redis is unreachable, so limits hold per instance rather than globally.
type Local struct {
	policy   Policy
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocal returns an in-memory limiter for policy.
func NewLocal(policy Policy) *Local {
	return &Local{policy: policy, limiters: make(map[string]*rate.Limiter)}
}

func (l *Local) limiter(identifier string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[identifier]
	if !ok {
		every := rate.Every(l.policy.Window / time.Duration(l.policy.Limit))
		lim = rate.NewLimiter(every, l.policy.Limit)
		l.limiters[identifier] = lim
	}
	return lim
}

// Check consumes one token for identifier.
func (l *Local) Check(_ context.Context, identifier string) (Decision, error) {
	r := l.limiter(identifier).Reserve()
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true}, nil
}

// WithFallback uses primary and, when it errors, secondary.
type WithFallback struct {
	policy    Policy
	primary   Limiter
	secondary Limiter
}

// New returns the standard limiter for policy: Redis when rdb is set, the
// local bucket otherwise or whenever Redis fails.
func New(rdb *redis.Client, policy Policy) Limiter {
	local := NewLocal(policy)
	if rdb == nil {
		return &WithFallback{policy: policy, primary: local}
	}
	return &WithFallback{policy: policy, primary: NewFixedWindow(rdb, policy), secondary: local}
}

// Check implements Limiter and records the decision.
func (w *WithFallback) Check(ctx context.Context, identifier string) (Decision, error) {
	d, err := w.primary.Check(ctx, identifier)
	if err != nil && w.secondary != nil {
		observability.GlobalLogger.WarnContext(ctx, "rate limit store unavailable, using local limiter",
			"policy", w.policy.Name, "error", err)
		d, err = w.secondary.Check(ctx, identifier)
	}
	if err != nil {
		observability.RateLimitDecisions.WithLabelValues(w.policy.Name, "error").Inc()
		return d, err
	}
	result := "allowed"
	if !d.Allowed {
		result = "rejected"
	}
	observability.RateLimitDecisions.WithLabelValues(w.policy.Name, result).Inc()
	return d, nil
}

// Unlimited admits everything. It is used when rate limiting is disabled.
type Unlimited struct{}

// Check always allows.
func (Unlimited) Check(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}
