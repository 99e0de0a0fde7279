package cache

import (
	"context"
	"errors"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/FreshFox/internal/pkg/env"
)

const (
	AppliedEventKeyPrefix   = "billing:applied:"
	DefaultAppliedEventTTL  = 24 * time.Hour
	appliedEventLookupLimit = 250 * time.Millisecond
)

// AppliedEvents remembers gateway event ids that were committed, so hot
// retries can be acknowledged without opening a database transaction.
// Redis errors are logged and treated as a miss.
type AppliedEvents struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAppliedEvents wraps client. A non-positive ttl uses DefaultAppliedEventTTL.
func NewAppliedEvents(client *redis.Client, ttl time.Duration) *AppliedEvents {
	if ttl <= 0 {
		ttl = DefaultAppliedEventTTL
	}
	return &AppliedEvents{client: client, ttl: ttl}
}

// NewAppliedEventsFromEnv uses the shared client and APPLIED_EVENT_CACHE_TTL.
func NewAppliedEventsFromEnv() *AppliedEvents {
	return NewAppliedEvents(GetClient(), env.GetEnvDuration("APPLIED_EVENT_CACHE_TTL", DefaultAppliedEventTTL))
}

func (a *AppliedEvents) AppliedStatus(ctx context.Context, eventID string) (string, bool) {
	lookupCtx, cancel := context.WithTimeout(ctx, appliedEventLookupLimit)
	defer cancel()

	status, err := a.client.Get(lookupCtx, AppliedEventKeyPrefix+eventID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			fiberlog.Warnf("[Cache] Applied event lookup failed for %s: %v", eventID, err)
		}
		return "", false
	}
	return status, true
}

func (a *AppliedEvents) RememberApplied(ctx context.Context, eventID, resultingStatus string) {
	if err := a.client.Set(ctx, AppliedEventKeyPrefix+eventID, resultingStatus, a.ttl).Err(); err != nil {
		fiberlog.Warnf("[Cache] Failed to remember applied event %s: %v", eventID, err)
	}
}
