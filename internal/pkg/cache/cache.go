package cache

import (
	"context"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/FreshFox/internal/pkg/env"
)

const setupPingTimeout = 3 * time.Second

var client *redis.Client

// clientOptions reads the shared redis connection from CACHE_* settings.
func clientOptions() *redis.Options {
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       env.GetEnvInt("CACHE_DB", 0),
	}
}

// SetupCache connects the client shared by the applied-event cache and the
// webhook counters. An unreachable server is only a warning; both callers
// degrade to the database path.
func SetupCache() {
	opts := clientOptions()
	client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), setupPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		fiberlog.Warnf("[Cache] Could not connect to redis at %s (db %d): %v", opts.Addr, opts.DB, err)
		return
	}
	fiberlog.Infof("[Cache] Connected to redis at %s (db %d)", opts.Addr, opts.DB)
}

// GetClient returns the shared client, connecting on first use.
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}
