package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrRateLimitExceeded matches every *ExceededError via errors.Is.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// ExceededError rejects a request until RetryAfter has passed.
type ExceededError struct {
	Key        string
	Limit      int
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit of %d exceeded for %s, retry after %ds", e.Limit, e.Key, e.RetryAfterSeconds())
}

func (e *ExceededError) Is(target error) bool { return target == ErrRateLimitExceeded }

// RetryAfterSeconds rounds RetryAfter up to whole seconds, at least 1.
func (e *ExceededError) RetryAfterSeconds() int {
	s := int(math.Ceil(e.RetryAfter.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// Limiter counts requests per identity key.
type Limiter interface {
	// CheckAndIncrement records one request for key, or returns an
	// *ExceededError without recording it when the window is full.
	CheckAndIncrement(ctx context.Context, key string) error
}

// Limit allows Requests per sliding Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Policy holds separate limits for signed-in users and anonymous callers.
type Policy struct {
	Authenticated Limit
	Anonymous     Limit
}

const anonymousPrefix = "ip_"

// For picks the limit that applies to key.
func (p Policy) For(key string) Limit {
	if IsAnonymous(key) {
		return p.Anonymous
	}
	return p.Authenticated
}

// IdentityKey is the user id when there is one, otherwise a key derived
// from the client address.
func IdentityKey(userID, clientAddr string) string {
	if userID = strings.TrimSpace(userID); userID != "" {
		return userID
	}
	return anonymousPrefix + clientAddr
}

// IsAnonymous reports whether key was derived from a client address.
func IsAnonymous(key string) bool {
	return strings.HasPrefix(key, anonymousPrefix)
}
