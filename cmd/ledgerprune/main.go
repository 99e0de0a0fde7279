package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/ManuelReschke/FreshFox/internal/pkg/billing"
	"github.com/ManuelReschke/FreshFox/internal/pkg/database"
	"github.com/ManuelReschke/FreshFox/internal/pkg/env"
)

const defaultRetentionDays = 90

func main() {
	env.SetupEnvFile()

	days := flag.Int("days", env.GetEnvInt("LEDGER_RETENTION_DAYS", defaultRetentionDays), "delete ledger rows applied more than this many days ago")
	flag.Parse()

	if *days <= 0 {
		log.Fatalf("Retention must be at least one day, got %d", *days)
	}

	db, err := database.Open()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	retention := time.Duration(*days) * 24 * time.Hour
	deleted, err := billing.NewServiceFromDB(db).PruneLedger(ctx, retention)
	if err != nil {
		log.Fatalf("Failed to prune event ledger: %v", err)
	}
	log.Printf("Pruned %d ledger rows older than %d days", deleted, *days)
}
