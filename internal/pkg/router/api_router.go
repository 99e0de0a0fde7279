package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/FreshFox/app/controllers"
	"github.com/ManuelReschke/FreshFox/internal/pkg/env"
)

type ApiRouter struct {
	// limiterStorage is shared across instances; nil keeps counters in memory.
	limiterStorage fiber.Storage
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        env.GetEnvInt("API_RATE_LIMIT", 300),
		Expiration: time.Minute,
		Storage:    h.limiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited"})
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	api.Post("/webhooks/:gateway", controllers.HandleGatewayWebhook)
}

func NewApiRouter(limiterStorage fiber.Storage) *ApiRouter {
	return &ApiRouter{limiterStorage: limiterStorage}
}
