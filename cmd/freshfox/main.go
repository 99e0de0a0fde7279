package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/FreshFox/app/controllers"
	"github.com/ManuelReschke/FreshFox/internal/pkg/cache"
	"github.com/ManuelReschke/FreshFox/internal/pkg/database"
	"github.com/ManuelReschke/FreshFox/internal/pkg/env"
	"github.com/ManuelReschke/FreshFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/FreshFox/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	controllers.SetAppliedEventCache(cache.NewAppliedEventsFromEnv())
	controllers.SetWebhookCounters(counter.Default())

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/freshfox to project root
		"../../../", // Fallback
	}

	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			basePath = path
			break
		}
	}

	// init fiber app; webhook bodies are small JSON documents
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	metricsAuth := basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	})
	app.Get("/metrics", metricsAuth, monitor.New())
	app.Get("/metrics/webhooks", metricsAuth, controllers.HandleWebhookStats)

	// SWAGGER / OPENAPI
	if basePath != "" {
		openAPICfg := swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}
		app.Use(swagger.New(openAPICfg))
	} else {
		log.Printf("Warning: openapi.yml not found, API docs disabled")
	}

	// ROUTER
	router.InstallRouter(app, router.NewApiRouter(cache.NewFiberStorage(cache.LimiterDatabase)))

	return app
}
