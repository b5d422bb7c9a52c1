package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"minitrack/db"
	"minitrack/ledger"
	"minitrack/stats"
	"minitrack/store"
)

func main() {
	ctx := context.Background()

	connString := os.Getenv("DATABASE_URL")
	maxConns := int32(0)
	if v := os.Getenv("DATABASE_MAX_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("parse DATABASE_MAX_CONNS: %v", err)
		}
		maxConns = int32(n)
	}

	pool, err := db.NewPool(ctx, connString, maxConns)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	repo := store.NewRepository(pool, ledger.New())

	units, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("load collection snapshot: %v", err)
	}

	summary := stats.Summarize(units)
	log.Printf("collection ready: %d units, %d models, %.2f%% complete",
		summary.TotalUnits, summary.TotalModels, summary.CompletionPercentage)
}
