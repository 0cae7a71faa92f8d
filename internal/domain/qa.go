package domain

import "time"

// Classification is the reason code attached to a QA entry. The values are
// stored verbatim in the QA table, so they must not be renamed.
type Classification string

const (
	// ClassDuplicate marks a record whose id was already accepted this run.
	ClassDuplicate Classification = "duplicado"
	// ClassBadType marks a record with a numeric field that failed coercion.
	ClassBadType Classification = "tipo_incorrecto"
	// ClassMissingField marks a structurally incomplete record.
	ClassMissingField Classification = "MISSING_FIELD"
	// ClassInvalidFormat marks raw input that was not a key-value record at all.
	ClassInvalidFormat Classification = "INVALID_FORMAT"
	// ClassSerialization marks a payload that could not be serialized for storage.
	ClassSerialization Classification = "JSON_ERROR"
	// ClassPriceAlert marks the QA trail entry of a fired price alert.
	ClassPriceAlert Classification = "alerta_precio"
	// ClassAPIError marks a failed fetch from the market source.
	ClassAPIError Classification = "API_ERROR"
	// ClassSuccess is reserved; the recorder rescues it to ClassMissingField
	// when the payload carries no id.
	ClassSuccess Classification = "SUCCESS"
)

// QAEntry is one append-only quality-assurance record. Never mutated after
// creation.
type QAEntry struct {
	// RecordID is the id extracted from the offending payload, or empty
	// when none could be determined.
	RecordID       string
	Classification Classification
	Detail         string
	// RawPayload is the best-effort JSON serialization of the original
	// input, "{}" when serialization failed or there was no payload.
	RawPayload string
	SnapshotTS time.Time
}
