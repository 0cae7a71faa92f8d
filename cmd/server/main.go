// Package main runs the market-data pipeline as a long-lived service:
// fetch top-N records on a fixed interval, process them, persist accepted
// records, QA-log rejections and raise threshold alerts.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"crypto-market-pipeline/internal/alerting"
	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/notify"
	"crypto-market-pipeline/internal/observability"
	"crypto-market-pipeline/internal/pipeline"
	"crypto-market-pipeline/internal/qa"
	"crypto-market-pipeline/internal/source"
	"crypto-market-pipeline/internal/storage"
	chstore "crypto-market-pipeline/internal/storage/clickhouse"
	"crypto-market-pipeline/internal/storage/memory"
	"crypto-market-pipeline/internal/storage/migrations"
	pgstore "crypto-market-pipeline/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	sourceURL := flag.String("source-url", os.Getenv("SOURCE_URL"), "Market data API base URL (default: public CoinGecko)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "Optional ClickHouse connection string for price snapshots")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	topN := flag.Int("top-n", 10, "Number of top records to fetch per run")
	interval := flag.Duration("interval", 30*time.Minute, "Pipeline run interval")
	priceThreshold := flag.Float64("price-threshold", alerting.DefaultPriceChangeThreshold, "Absolute 24h change percentage that fires a price alert")
	qaThreshold := flag.Int("qa-threshold", alerting.DefaultDailyQAThreshold, "Daily QA-entry count that fires an alert")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")
	smtpAddr := flag.String("smtp-addr", os.Getenv("SMTP_ADDR"), "Optional SMTP relay host:port for email alerts")
	smtpFrom := flag.String("smtp-from", os.Getenv("SMTP_FROM"), "Alert email sender")
	smtpTo := flag.String("smtp-to", os.Getenv("SMTP_TO"), "Comma-separated alert email recipients")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	// Create stores and apply migrations
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("create stores: %v", err)
	}
	defer cleanup()

	// Metrics endpoint
	metrics := observability.NewMetrics("crypto_pipeline")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		logger.Printf("metrics listening on %s", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server: %v", err)
		}
	}()

	// Wire components
	notifier := buildNotifier(logger, *smtpAddr, *smtpFrom, *smtpTo)
	recorder := qa.NewRecorder(stores.qa, logger, metrics)
	alerter := alerting.New(alerting.Options{
		Notifier:             notifier,
		QAStore:              stores.qa,
		Recorder:             recorder,
		Logger:               logger,
		Metrics:              metrics,
		PriceChangeThreshold: *priceThreshold,
		DailyQAThreshold:     *qaThreshold,
	})
	runner := pipeline.New(pipeline.Options{
		EntityStore:        stores.entities,
		PriceSnapshotStore: stores.prices,
		Recorder:           recorder,
		Alerter:            alerter,
		Logger:             logger,
		Metrics:            metrics,
	})
	client := source.NewClient(*sourceURL)

	logger.Printf("pipeline started: top-n=%d interval=%s", *topN, *interval)

	// Run once immediately, then on every tick. A failed run does not stop
	// the loop; the next tick tries again.
	runOnce(ctx, logger, client, runner, alerter, recorder, *topN)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Print("stopped")
			return
		case <-ticker.C:
			runOnce(ctx, logger, client, runner, alerter, recorder, *topN)
		}
	}
}

// runOnce executes a single fetch-process cycle followed by the daily QA
// check.
func runOnce(
	ctx context.Context,
	logger *log.Logger,
	client *source.Client,
	runner *pipeline.Runner,
	alerter *alerting.Alerter,
	recorder *qa.Recorder,
	topN int,
) {
	records, err := client.TopMarkets(ctx, topN)
	if err != nil {
		logger.Printf("fetch failed: %v", err)
		recorder.Record(ctx, nil, domain.ClassAPIError, err.Error())
		return
	}

	summary, err := runner.Run(ctx, records)
	if err != nil {
		logger.Printf("run aborted: %v", err)
	}
	logger.Printf("run summary: fetched=%d accepted=%d duplicates=%d coercion_failures=%d alerts=%d",
		summary.Fetched, summary.Accepted, summary.Duplicates, summary.CoercionFailures, summary.Alerts)

	if _, err := alerter.CheckDailyQA(ctx); err != nil {
		logger.Printf("daily qa check: %v", err)
	}
}

// serverStores bundles the three store interfaces the pipeline needs.
type serverStores struct {
	entities storage.EntityStore
	prices   storage.PriceSnapshotStore
	qa       storage.QAStore
}

// createStores builds the configured storage backends and applies their
// migrations. Prices land in ClickHouse when a DSN is given, in PostgreSQL
// otherwise.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*serverStores, func(), error) {
	if useMemory {
		return &serverStores{
			entities: memory.NewEntityStore(),
			prices:   memory.NewPriceSnapshotStore(),
			qa:       memory.NewQAStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	stores := &serverStores{
		entities: pgstore.NewEntityStore(pool),
		prices:   pgstore.NewPriceSnapshotStore(pool),
		qa:       pgstore.NewQAStore(pool),
	}
	cleanup := func() { pool.Close() }

	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			conn.Close()
			pool.Close()
			return nil, nil, err
		}
		stores.prices = chstore.NewPriceSnapshotStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}

// buildNotifier returns console-only delivery unless SMTP is configured.
func buildNotifier(logger *log.Logger, smtpAddr, smtpFrom, smtpTo string) notify.Notifier {
	console := notify.NewConsole(logger)
	if smtpAddr == "" || smtpFrom == "" || smtpTo == "" {
		return console
	}
	recipients := strings.Split(smtpTo, ",")
	for i := range recipients {
		recipients[i] = strings.TrimSpace(recipients[i])
	}
	return notify.Multi{console, notify.NewSMTP(smtpAddr, smtpFrom, recipients)}
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
