// Package pipeline composes the per-record decision procedure and the
// per-run orchestration.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"crypto-market-pipeline/internal/alerting"
	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/observability"
	"crypto-market-pipeline/internal/qa"
	"crypto-market-pipeline/internal/storage"
	"crypto-market-pipeline/internal/transform"
)

// Options configures a Runner.
type Options struct {
	EntityStore        storage.EntityStore
	PriceSnapshotStore storage.PriceSnapshotStore
	Recorder           *qa.Recorder
	Alerter            *alerting.Alerter
	Logger             *log.Logger
	Metrics            *observability.Metrics

	// Now is the clock used for snapshot timestamps. nil means time.Now.
	Now func() time.Time
}

// Runner processes one batch of raw records per call. It holds no per-run
// state: the dedup set lives inside Run, so every run starts from an empty
// set and an id reappearing on the next run is not a duplicate.
type Runner struct {
	entities storage.EntityStore
	prices   storage.PriceSnapshotStore
	recorder *qa.Recorder
	alerter  *alerting.Alerter
	logger   *log.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// Summary reports what one run did.
type Summary struct {
	Fetched          int
	Accepted         int
	Duplicates       int
	CoercionFailures int
	Alerts           int
}

// New creates a Runner.
func New(opts Options) *Runner {
	r := &Runner{
		entities: opts.EntityStore,
		prices:   opts.PriceSnapshotStore,
		recorder: opts.Recorder,
		alerter:  opts.Alerter,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run processes records sequentially in source order. Each record is
// accepted or rejected independently; a rejection lands on the QA trail and
// never aborts the run. The only fatal condition is a store write failing
// for an accepted record, which aborts the remainder of the run.
func (r *Runner) Run(ctx context.Context, records []domain.RawRecord) (Summary, error) {
	start := r.now()
	seen := transform.NewSeenSet()

	summary := Summary{Fetched: len(records)}
	r.metrics.RecordsFetched.Add(float64(len(records)))

	for _, raw := range records {
		enriched := r.process(ctx, raw, seen, &summary)
		if enriched == nil {
			continue
		}

		if err := r.entities.Upsert(ctx, enriched.Entity()); err != nil {
			r.metrics.RunsTotal.WithLabelValues("aborted").Inc()
			return summary, fmt.Errorf("upsert entity %s: %w", enriched.ID, err)
		}
		if err := r.prices.Append(ctx, enriched.Snapshot()); err != nil {
			r.metrics.RunsTotal.WithLabelValues("aborted").Inc()
			return summary, fmt.Errorf("append price snapshot %s: %w", enriched.ID, err)
		}

		summary.Accepted++
		r.metrics.RecordsAccepted.Inc()
		r.logger.Printf("stored %s (%s) at $%g", enriched.Name, enriched.Symbol, enriched.CurrentPrice)

		if r.alerter.CheckPrice(ctx, enriched) {
			summary.Alerts++
		}
	}

	r.metrics.RunsTotal.WithLabelValues("completed").Inc()
	r.metrics.RunDuration.Observe(r.now().Sub(start).Seconds())
	r.metrics.LastSuccessfulRun.SetToCurrentTime()

	return summary, nil
}

// process walks one record through its states:
//
//	RECEIVED -> RESTRICTED -> IDENTITY_CHECKED -> TYPE_COERCED -> ENRICHED
//
// with rejection exits after the identity check (duplicate) and the type
// coercion (unparsable numeric field). Restriction is total, so RECEIVED
// itself has no reject path. Name/symbol normalization happens between
// restriction and the identity check and never rejects. Returns nil when
// the record was rejected; the QA entry has already been written then.
func (r *Runner) process(ctx context.Context, raw domain.RawRecord, seen transform.SeenSet, summary *Summary) *domain.EnrichedRecord {
	rec := transform.RestrictToSchema(raw)

	rec[domain.FieldName] = transform.NormalizeName(rec[domain.FieldName])
	rec[domain.FieldSymbol] = transform.NormalizeSymbol(rec[domain.FieldSymbol])

	// Dedup on the raw identifier, before coercion.
	if !seen.CheckAndMark(transform.IdentityKey(rec[domain.FieldID])) {
		summary.Duplicates++
		r.metrics.RecordsRejected.WithLabelValues(string(domain.ClassDuplicate)).Inc()
		r.recorder.Record(ctx, rec, domain.ClassDuplicate, "duplicate id within this run")
		return nil
	}

	if err := transform.CoerceTypes(rec); err != nil {
		summary.CoercionFailures++
		r.metrics.RecordsRejected.WithLabelValues(string(domain.ClassBadType)).Inc()
		r.recorder.Record(ctx, rec, domain.ClassBadType, err.Error())
		return nil
	}

	return transform.Enrich(rec, r.now())
}
