// Package qa records rejected and anomalous records to the QA trail.
package qa

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/observability"
	"crypto-market-pipeline/internal/storage"
	"crypto-market-pipeline/internal/transform"
)

// Recorder appends QA entries on a strictly best-effort basis: Record never
// returns an error and never panics, whatever the payload and whatever the
// store does. Failures are visible only through the log and the
// qa_appends_failed_total counter, so a QA problem can never abort the
// pipeline that reports it.
type Recorder struct {
	store   storage.QAStore
	logger  *log.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store storage.QAStore, logger *log.Logger, metrics *observability.Metrics) *Recorder {
	return &Recorder{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Record appends one QA entry describing raw and why it was flagged.
//
// Degradation rules, applied in order:
//   - raw present but not a key-value record: payload dropped, classification
//     forced to INVALID_FORMAT.
//   - classification SUCCESS but the payload carries no id: rescued to
//     MISSING_FIELD (a structurally incomplete record must not be labeled
//     successful).
//   - payload fails JSON serialization: stored as "{}" and reclassified as a
//     serialization error.
//   - store append fails: logged, counted, swallowed.
func (r *Recorder) Record(ctx context.Context, raw any, classification domain.Classification, detail string) {
	record, ok := raw.(map[string]any)
	if raw != nil && !ok {
		r.logger.Printf("qa: payload is %T, not a record; dropping it", raw)
		record = nil
		classification = domain.ClassInvalidFormat
		detail = "raw input was not a key-value record"
	}

	recordID := extractID(record)
	if recordID == "" && classification == domain.ClassSuccess {
		classification = domain.ClassMissingField
		detail = "no id field present in raw data"
	}

	payload := "{}"
	if record != nil {
		data, err := json.Marshal(record)
		if err != nil {
			r.logger.Printf("qa: serialize payload: %v", err)
			r.metrics.QASerializationErrs.Inc()
			classification = domain.ClassSerialization
			detail = err.Error()
		} else {
			payload = string(data)
		}
	}

	entry := domain.QAEntry{
		RecordID:       recordID,
		Classification: classification,
		Detail:         detail,
		RawPayload:     payload,
		SnapshotTS:     r.now(),
	}

	if err := r.store.Append(ctx, entry); err != nil {
		// Best-effort contract: never propagate, never retry.
		r.logger.Printf("qa: append entry (id=%q, classification=%s): %v", recordID, classification, err)
		r.metrics.QAAppendsFailed.Inc()
		return
	}

	r.metrics.QAEntriesWritten.WithLabelValues(string(classification)).Inc()
	r.logger.Printf("qa: recorded id=%q classification=%s", recordID, classification)
}

// extractID pulls the identifier out of a payload, empty when unknown.
func extractID(record map[string]any) string {
	if record == nil {
		return ""
	}
	v, ok := record[domain.FieldID]
	if !ok || v == nil || domain.IsAbsent(v) {
		return ""
	}
	return transform.Stringify(v)
}
