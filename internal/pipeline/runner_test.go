package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"crypto-market-pipeline/internal/alerting"
	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/observability"
	"crypto-market-pipeline/internal/qa"
	"crypto-market-pipeline/internal/storage"
	"crypto-market-pipeline/internal/storage/memory"
)

// recordingNotifier captures notifications.
type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(message string) error {
	n.messages = append(n.messages, message)
	return nil
}

// failingEntityStore rejects every upsert.
type failingEntityStore struct{}

func (failingEntityStore) Upsert(context.Context, domain.Entity) error {
	return errors.New("connection refused")
}

func (failingEntityStore) GetByID(context.Context, string) (*domain.Entity, error) {
	return nil, storage.ErrNotFound
}

type testEnv struct {
	runner   *Runner
	entities *memory.EntityStore
	prices   *memory.PriceSnapshotStore
	qaStore  *memory.QAStore
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithEntities(t, memory.NewEntityStore())
}

func newTestEnvWithEntities(t *testing.T, entities storage.EntityStore) *testEnv {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	metrics := observability.NewTestMetrics()
	qaStore := memory.NewQAStore()
	recorder := qa.NewRecorder(qaStore, logger, metrics)
	notifier := &recordingNotifier{}
	alerter := alerting.New(alerting.Options{
		Notifier: notifier,
		QAStore:  qaStore,
		Recorder: recorder,
		Logger:   logger,
		Metrics:  metrics,
	})
	prices := memory.NewPriceSnapshotStore()

	env := &testEnv{
		prices:   prices,
		qaStore:  qaStore,
		notifier: notifier,
	}
	if ms, ok := entities.(*memory.EntityStore); ok {
		env.entities = ms
	}
	env.runner = New(Options{
		EntityStore:        entities,
		PriceSnapshotStore: prices,
		Recorder:           recorder,
		Alerter:            alerter,
		Logger:             logger,
		Metrics:            metrics,
		Now:                func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) },
	})
	return env
}

func validRecord(id string) domain.RawRecord {
	return domain.RawRecord{
		"id":                          id,
		"name":                        " Bit coin! ",
		"symbol":                      "btc",
		"current_price":               50000.0,
		"market_cap":                  900000000000.0,
		"total_volume":                1e9,
		"high_24h":                    51000.0,
		"low_24h":                     49000.0,
		"price_change_percentage_24h": 2.1,
	}
}

func TestRunAcceptsCleanRecord(t *testing.T) {
	env := newTestEnv(t)

	summary, err := env.runner.Run(context.Background(), []domain.RawRecord{validRecord("btc")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Accepted != 1 {
		t.Errorf("Accepted = %d, want 1", summary.Accepted)
	}

	entity, err := env.entities.GetByID(context.Background(), "btc")
	if err != nil {
		t.Fatalf("entity not upserted: %v", err)
	}
	if entity.Name != "Bit Coin" || entity.Symbol != "BTC" {
		t.Errorf("entity = %+v, want normalized name and symbol", entity)
	}

	snaps, err := env.prices.GetByRecordID(context.Background(), "btc")
	if err != nil || len(snaps) != 1 {
		t.Fatalf("snapshots = %v (%v), want exactly 1", snaps, err)
	}
	if snaps[0].Price != 50000 {
		t.Errorf("snapshot price = %v, want 50000", snaps[0].Price)
	}

	if entries := env.qaStore.All(); len(entries) != 0 {
		t.Errorf("clean record produced %d QA entries: %+v", len(entries), entries)
	}
	if len(env.notifier.messages) != 0 {
		t.Errorf("clean record fired alerts: %v", env.notifier.messages)
	}
}

func TestRunRejectsDuplicateWithinRun(t *testing.T) {
	env := newTestEnv(t)

	summary, err := env.runner.Run(context.Background(), []domain.RawRecord{
		validRecord("btc"),
		validRecord("btc"),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Accepted != 1 || summary.Duplicates != 1 {
		t.Errorf("summary = %+v, want 1 accepted and 1 duplicate", summary)
	}

	dups, err := env.qaStore.GetByClassification(context.Background(), domain.ClassDuplicate)
	if err != nil {
		t.Fatalf("GetByClassification failed: %v", err)
	}
	if len(dups) != 1 {
		t.Fatalf("got %d duplicado entries, want exactly 1", len(dups))
	}
	if dups[0].RecordID != "btc" {
		t.Errorf("QA RecordID = %q, want btc", dups[0].RecordID)
	}

	if env.prices.Len() != 1 {
		t.Errorf("stored %d snapshots, want 1", env.prices.Len())
	}
}

func TestRunAcceptsSameIDAcrossRuns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.runner.Run(ctx, []domain.RawRecord{validRecord("btc")}); err != nil {
		t.Fatalf("run 1 failed: %v", err)
	}
	summary, err := env.runner.Run(ctx, []domain.RawRecord{validRecord("btc")})
	if err != nil {
		t.Fatalf("run 2 failed: %v", err)
	}

	if summary.Duplicates != 0 {
		t.Error("id seen in a previous run was treated as duplicate")
	}
	if env.prices.Len() != 2 {
		t.Errorf("stored %d snapshots across two runs, want 2", env.prices.Len())
	}
}

func TestRunRejectsUnparsableNumericField(t *testing.T) {
	env := newTestEnv(t)

	bad := validRecord("btc")
	bad["current_price"] = "not-a-number"

	summary, err := env.runner.Run(context.Background(), []domain.RawRecord{bad})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Accepted != 0 || summary.CoercionFailures != 1 {
		t.Errorf("summary = %+v, want 0 accepted and 1 coercion failure", summary)
	}
	if env.prices.Len() != 0 {
		t.Error("rejected record was persisted")
	}

	entries, err := env.qaStore.GetByClassification(context.Background(), domain.ClassBadType)
	if err != nil || len(entries) != 1 {
		t.Fatalf("got %d tipo_incorrecto entries (%v), want 1", len(entries), err)
	}
	if entries[0].Detail == "" {
		t.Error("coercion failure detail missing")
	}
}

func TestRunRejectionDoesNotAbortRun(t *testing.T) {
	env := newTestEnv(t)

	bad := validRecord("bad")
	bad["market_cap"] = "garbage"

	summary, err := env.runner.Run(context.Background(), []domain.RawRecord{
		bad,
		validRecord("eth"),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Accepted != 1 {
		t.Errorf("record after a rejection was not processed: %+v", summary)
	}
}

func TestRunPriceAlertFiresAndLandsOnQATrail(t *testing.T) {
	env := newTestEnv(t)

	hot := validRecord("doge")
	hot["price_change_percentage_24h"] = 15.0

	summary, err := env.runner.Run(context.Background(), []domain.RawRecord{hot})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Alerts != 1 {
		t.Errorf("Alerts = %d, want 1", summary.Alerts)
	}
	if len(env.notifier.messages) != 1 {
		t.Fatalf("got %d notifications, want 1", len(env.notifier.messages))
	}

	alerts, err := env.qaStore.GetByClassification(context.Background(), domain.ClassPriceAlert)
	if err != nil || len(alerts) != 1 {
		t.Fatalf("got %d alerta_precio entries (%v), want 1", len(alerts), err)
	}
	if alerts[0].RecordID != "doge" {
		t.Errorf("alert QA RecordID = %q, want doge", alerts[0].RecordID)
	}
}

func TestRunPersistenceFailureAbortsRun(t *testing.T) {
	env := newTestEnvWithEntities(t, failingEntityStore{})

	summary, err := env.runner.Run(context.Background(), []domain.RawRecord{
		validRecord("btc"),
		validRecord("eth"),
	})
	if err == nil {
		t.Fatal("expected persistence failure to propagate")
	}
	if summary.Accepted != 0 {
		t.Errorf("Accepted = %d, want 0", summary.Accepted)
	}
	if env.prices.Len() != 0 {
		t.Error("snapshot written despite entity upsert failure")
	}
}
