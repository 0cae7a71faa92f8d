// Package main runs a single fetch-process cycle and exits. Useful for
// cron scheduling and local smoke testing (--use-memory).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"crypto-market-pipeline/internal/alerting"
	"crypto-market-pipeline/internal/notify"
	"crypto-market-pipeline/internal/observability"
	"crypto-market-pipeline/internal/pipeline"
	"crypto-market-pipeline/internal/qa"
	"crypto-market-pipeline/internal/source"
	"crypto-market-pipeline/internal/storage/memory"
	"crypto-market-pipeline/internal/storage/migrations"
	pgstore "crypto-market-pipeline/internal/storage/postgres"
)

func main() {
	sourceURL := flag.String("source-url", os.Getenv("SOURCE_URL"), "Market data API base URL (default: public CoinGecko)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	topN := flag.Int("top-n", 10, "Number of top records to fetch")

	flag.Parse()

	logger := log.New(os.Stdout, "[pipeline] ", log.LstdFlags)
	ctx := context.Background()

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	var (
		runner  *pipeline.Runner
		alerter *alerting.Alerter
	)
	metrics := observability.NewMetrics("crypto_pipeline")
	notifier := notify.NewConsole(logger)

	if *useMemory {
		qaStore := memory.NewQAStore()
		recorder := qa.NewRecorder(qaStore, logger, metrics)
		alerter = alerting.New(alerting.Options{
			Notifier: notifier,
			QAStore:  qaStore,
			Recorder: recorder,
			Logger:   logger,
			Metrics:  metrics,
		})
		runner = pipeline.New(pipeline.Options{
			EntityStore:        memory.NewEntityStore(),
			PriceSnapshotStore: memory.NewPriceSnapshotStore(),
			Recorder:           recorder,
			Alerter:            alerter,
			Logger:             logger,
			Metrics:            metrics,
		})
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}

		qaStore := pgstore.NewQAStore(pool)
		recorder := qa.NewRecorder(qaStore, logger, metrics)
		alerter = alerting.New(alerting.Options{
			Notifier: notifier,
			QAStore:  qaStore,
			Recorder: recorder,
			Logger:   logger,
			Metrics:  metrics,
		})
		runner = pipeline.New(pipeline.Options{
			EntityStore:        pgstore.NewEntityStore(pool),
			PriceSnapshotStore: pgstore.NewPriceSnapshotStore(pool),
			Recorder:           recorder,
			Alerter:            alerter,
			Logger:             logger,
			Metrics:            metrics,
		})
	}

	client := source.NewClient(*sourceURL)
	records, err := client.TopMarkets(ctx, *topN)
	if err != nil {
		logger.Fatalf("fetch top markets: %v", err)
	}

	summary, err := runner.Run(ctx, records)
	if err != nil {
		logger.Fatalf("run aborted: %v", err)
	}

	if _, err := alerter.CheckDailyQA(ctx); err != nil {
		logger.Printf("daily qa check: %v", err)
	}

	fmt.Printf("fetched=%d accepted=%d duplicates=%d coercion_failures=%d alerts=%d\n",
		summary.Fetched, summary.Accepted, summary.Duplicates, summary.CoercionFailures, summary.Alerts)
}
