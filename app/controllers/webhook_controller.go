package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FreshFox/app/models"
	"github.com/ManuelReschke/FreshFox/internal/pkg/billing"
	"github.com/ManuelReschke/FreshFox/internal/pkg/database"
	"github.com/ManuelReschke/FreshFox/internal/pkg/env"
	"github.com/ManuelReschke/FreshFox/internal/pkg/metrics/counter"
)

const defaultWebhookTimeout = 15 * time.Second

// WebhookReconciler applies one raw gateway notification.
type WebhookReconciler interface {
	Reconcile(ctx context.Context, raw []byte) (*billing.Result, error)
}

var appliedEventCache billing.AppliedEventCache

// SetAppliedEventCache enables the duplicate fast path for webhook requests.
func SetAppliedEventCache(cache billing.AppliedEventCache) {
	appliedEventCache = cache
}

var webhookCounters *counter.WebhookCounters

// SetWebhookCounters enables outcome counting for webhook requests.
func SetWebhookCounters(c *counter.WebhookCounters) {
	webhookCounters = c
}

var newWebhookReconciler = func() WebhookReconciler {
	svc := billing.NewServiceFromDB(database.GetDB())
	if appliedEventCache != nil {
		svc.WithAppliedEventCache(appliedEventCache)
	}
	return svc
}

// HandleGatewayWebhook receives billing gateway notifications. Business
// rejections are acknowledged so the gateway stops retrying; only transient
// failures answer 5xx.
func HandleGatewayWebhook(c *fiber.Ctx) error {
	gateway := strings.ToLower(strings.TrimSpace(c.Params("gateway")))
	if gateway != billing.ProviderAsaas {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_gateway"})
	}

	if !billing.VerifyWebhookAccessToken(c.Get(billing.AccessTokenHeader), env.GetEnv("GATEWAY_WEBHOOK_TOKEN", "")) {
		fiberlog.Warnf("[Webhook] Rejected %s delivery from %s: invalid access token", gateway, c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_token"})
	}

	rawBody := append([]byte(nil), c.BodyRaw()...)
	ctx, cancel := context.WithTimeout(context.Background(), env.GetEnvDuration("WEBHOOK_TIMEOUT", defaultWebhookTimeout))
	defer cancel()

	res, err := newWebhookReconciler().Reconcile(ctx, rawBody)
	if err != nil {
		if billing.IsRejection(err) {
			fiberlog.Warnf("[Webhook] Acknowledged rejected %s event: %v", gateway, err)
			countWebhookOutcome(models.DeliveryOutcomeRejected, "")
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
		}
		fiberlog.Errorf("[Webhook] Failed to reconcile %s event: %v", gateway, err)
		countWebhookOutcome(models.DeliveryOutcomeFailed, "")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reconcile_failed"})
	}

	if res.Duplicate {
		fiberlog.Infof("[Webhook] Duplicate event %s (%s) acknowledged", res.EventID, res.EventType)
		countWebhookOutcome(models.DeliveryOutcomeDuplicate, string(res.EventType))
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": true})
	}

	fiberlog.Infof("[Webhook] Applied %s %s to %s %d: %s -> %s",
		res.EventType, res.EventID, res.TargetKind, res.TargetID, res.PreviousStatus, res.ResultingStatus)
	countWebhookOutcome(models.DeliveryOutcomeApplied, string(res.EventType))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

func countWebhookOutcome(outcome, eventType string) {
	if webhookCounters == nil {
		return
	}
	if err := webhookCounters.AddWebhookOutcome(context.Background(), outcome, eventType); err != nil {
		fiberlog.Warnf("[Webhook] Failed to count %s outcome: %v", outcome, err)
	}
}

// HandleWebhookStats reports the webhook outcome counters.
func HandleWebhookStats(c *fiber.Ctx) error {
	if webhookCounters == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "counters_disabled"})
	}
	stats, err := webhookCounters.Snapshot(c.UserContext())
	if err != nil {
		fiberlog.Errorf("[Webhook] Failed to read counters: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "counters_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}
