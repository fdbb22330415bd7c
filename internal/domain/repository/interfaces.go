package repository

import (
	"context"

	"IPOPulse/internal/domain/models"
)

// SourceAdapter wraps one external data source behind the common
// fetch/parse/result contract. Implementations never return an error:
// every internal failure is folded into the SourceResult failure
// variant, and every call is reported to the activity log exactly once.
type SourceAdapter interface {
	Name() string
	Offerings(ctx context.Context) models.SourceResult
	DemandFigures(ctx context.Context) models.SourceResult
	SentimentSignals(ctx context.Context) models.SourceResult
}

// ActivitySink records fetch-attempt outcomes. Append-only; a failing
// sink must never fail the pass that produced the entry.
type ActivitySink interface {
	Record(ctx context.Context, entry models.ActivityEntry) error
	Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error)
	Close() error
}

// ListingStore is the persistence collaborator boundary. Its upsert
// policy is prefer-incoming-unless-null, the inverse of the in-memory
// aggregation merge; the two policies are intentionally distinct.
type ListingStore interface {
	UpsertRecord(ctx context.Context, rec models.Offering) (int64, error)
	BulkUpsert(ctx context.Context, recs []models.Offering) ([]models.Offering, error)
	ExistingSymbols(ctx context.Context) (map[string]struct{}, error)
	Close() error
}

// PassPublisher hands a completed pass downstream.
type PassPublisher interface {
	PublishPass(ctx context.Context, res *models.AggregateResult) error
	Close() error
}

// Metrics abstracts the Prometheus recorder for the aggregation core.
type Metrics interface {
	RecordFetchAttempt(source string, attempt int)
	RecordSourceOutcome(source, operation, outcome string, records int, seconds float64)
	RecordValidationReject(reason string)
	RecordPassDuration(operation string, seconds float64)
	RecordQuotaUsed(used int)
}
