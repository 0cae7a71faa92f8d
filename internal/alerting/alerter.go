// Package alerting raises threshold-based warnings from pipeline output.
package alerting

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/notify"
	"crypto-market-pipeline/internal/observability"
	"crypto-market-pipeline/internal/qa"
	"crypto-market-pipeline/internal/storage"
)

// Default thresholds, overridable via Options.
const (
	DefaultPriceChangeThreshold = 10.0 // percent, absolute
	DefaultDailyQAThreshold     = 5
)

// Options configures an Alerter.
type Options struct {
	Notifier notify.Notifier
	QAStore  storage.QAStore
	Recorder *qa.Recorder
	Logger   *log.Logger
	Metrics  *observability.Metrics

	// PriceChangeThreshold is the absolute 24h percentage change at or
	// above which a price alert fires. 0 means the default.
	PriceChangeThreshold float64
	// DailyQAThreshold is the QA-entry count per calendar day at or above
	// which the daily alert fires. 0 means the default.
	DailyQAThreshold int

	// Now is the clock, test-overridable. nil means time.Now.
	Now func() time.Time
}

// Alerter checks enriched records and the QA tally against thresholds.
type Alerter struct {
	notifier       notify.Notifier
	qaStore        storage.QAStore
	recorder       *qa.Recorder
	logger         *log.Logger
	metrics        *observability.Metrics
	priceThreshold float64
	dailyThreshold int
	now            func() time.Time
}

// New creates an Alerter.
func New(opts Options) *Alerter {
	a := &Alerter{
		notifier:       opts.Notifier,
		qaStore:        opts.QAStore,
		recorder:       opts.Recorder,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		priceThreshold: opts.PriceChangeThreshold,
		dailyThreshold: opts.DailyQAThreshold,
		now:            opts.Now,
	}
	if a.priceThreshold == 0 {
		a.priceThreshold = DefaultPriceChangeThreshold
	}
	if a.dailyThreshold == 0 {
		a.dailyThreshold = DefaultDailyQAThreshold
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// CheckPrice fires a warning when the record's absolute 24h change reaches
// the threshold. A fired alert is dual-purposed: it is delivered as a
// notification and recorded on the QA trail as alerta_precio.
func (a *Alerter) CheckPrice(ctx context.Context, rec *domain.EnrichedRecord) bool {
	if math.Abs(rec.ChangePct24h) < a.priceThreshold {
		return false
	}

	message := fmt.Sprintf("price alert: %s moved %.2f%% in 24h", rec.Name, rec.ChangePct24h)
	a.logger.Print(message)
	if err := a.notifier.Notify(message); err != nil {
		a.logger.Printf("alert delivery failed: %v", err)
	}

	a.recorder.Record(ctx, rec.Fields(), domain.ClassPriceAlert, message)

	a.metrics.PriceAlertsFired.Inc()
	return true
}

// CheckDailyQA fires a warning when today's QA-entry count reaches the
// threshold. Independent of any single run; safe to call on its own
// schedule.
func (a *Alerter) CheckDailyQA(ctx context.Context) (bool, error) {
	count, err := a.qaStore.CountOnDay(ctx, a.now())
	if err != nil {
		return false, fmt.Errorf("count daily qa entries: %w", err)
	}
	if count < a.dailyThreshold {
		return false, nil
	}

	message := fmt.Sprintf("qa alert: %d records failed validation today", count)
	a.logger.Print(message)
	if err := a.notifier.Notify(message); err != nil {
		a.logger.Printf("alert delivery failed: %v", err)
	}

	a.metrics.DailyQAAlerts.Inc()
	return true, nil
}
