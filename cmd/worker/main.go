package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeclock/internal/config"
	"timeclock/internal/queue"
	"timeclock/internal/store"
	"timeclock/internal/summary"
)

// Worker consumes summary refresh messages, calls the text-generation
// service, and caches the result through the gateway. The API never
// waits on this path; a failure here only leaves the previous summary
// in place.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	var gw store.Gateway
	switch cfg.StoreBackend {
	case "memory":
		log.Fatal("worker requires a durable store backend (redis or postgres)")
	case "redis":
		gw = store.NewRedis(cfg.RedisAddr)
	default:
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer func() { _ = pg.Close() }()
		gw = pg
	}

	// An in-memory queue lives inside one process; the worker would never
	// see messages the api publishes.
	if cfg.QueueBackend == "memory" {
		log.Fatal("worker requires the redis queue backend")
	}
	redisClient := store.NewRedis(cfg.RedisAddr)
	q := queue.NewRedisQueue(redisClient.Client, "timeclock:summary")

	sum := summary.New(cfg.SummaryServiceURL, cfg.SummaryAPIKey, cfg.SummaryModel, cfg.SummarySkip)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "summary" {
			continue
		}

		day := string(msg.Body)
		log.Printf("refreshing summary for %s", day)

		employees, err := gw.Employees(ctx)
		if err != nil {
			log.Printf("load employees failed: %v", err)
			continue
		}
		punches, err := gw.Punches(ctx)
		if err != nil {
			log.Printf("load punches failed: %v", err)
			continue
		}

		text, err := sum.Generate(ctx, employees, punches)
		if err != nil {
			// Fallback text still gets cached so the dashboard shows
			// something rather than staying stale.
			log.Printf("summary generate failed: %v", err)
		}
		if err := gw.SaveSummary(ctx, text); err != nil {
			log.Printf("summary cache write failed: %v", err)
			continue
		}
		log.Printf("summary refreshed (%d chars)", len(text))

		time.Sleep(10 * time.Millisecond) // Small delay between processing
	}

	log.Println("worker stopped")
}
