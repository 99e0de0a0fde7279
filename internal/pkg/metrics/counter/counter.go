package counter

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/FreshFox/internal/pkg/cache"
)

const (
	webhookOutcomesKey   = "billing:counters:webhook_outcomes"
	webhookEventTypesKey = "billing:counters:webhook_event_types"
	counterWriteTimeout  = 250 * time.Millisecond
)

// WebhookCounters keeps running totals of webhook handling in Redis hashes
// so every app instance reports into the same numbers.
type WebhookCounters struct {
	client *redis.Client
}

func NewWebhookCounters(client *redis.Client) *WebhookCounters {
	return &WebhookCounters{client: client}
}

// Default uses the shared cache client.
func Default() *WebhookCounters {
	return NewWebhookCounters(cache.GetClient())
}

// AddWebhookOutcome increments the outcome counter and, when known, the
// per event type counter.
func (w *WebhookCounters) AddWebhookOutcome(ctx context.Context, outcome, eventType string) error {
	ctx, cancel := context.WithTimeout(ctx, counterWriteTimeout)
	defer cancel()

	pipe := w.client.TxPipeline()
	pipe.HIncrBy(ctx, webhookOutcomesKey, outcome, 1)
	if eventType != "" {
		pipe.HIncrBy(ctx, webhookEventTypesKey, eventType, 1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// WebhookStats is a point in time copy of the counters.
type WebhookStats struct {
	Outcomes   map[string]int64 `json:"outcomes"`
	EventTypes map[string]int64 `json:"event_types"`
}

func (w *WebhookCounters) Snapshot(ctx context.Context) (*WebhookStats, error) {
	outcomes, err := w.readHash(ctx, webhookOutcomesKey)
	if err != nil {
		return nil, err
	}
	eventTypes, err := w.readHash(ctx, webhookEventTypesKey)
	if err != nil {
		return nil, err
	}
	return &WebhookStats{Outcomes: outcomes, EventTypes: eventTypes}, nil
}

func (w *WebhookCounters) readHash(ctx context.Context, key string) (map[string]int64, error) {
	data, err := w.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for field, raw := range data {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}
