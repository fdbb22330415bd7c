package activity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/domain/repository"
	"IPOPulse/pkg/logger"
)

// Recorder is the activity logger: every adapter call's outcome goes
// through here exactly once, regardless of internal fetch retries.
// Sink failures are logged and swallowed; observability must never
// fail a pass.
type Recorder struct {
	sink    repository.ActivitySink
	metrics repository.Metrics
	log     *logger.Logger
}

func NewRecorder(sink repository.ActivitySink, metrics repository.Metrics, log *logger.Logger) *Recorder {
	return &Recorder{sink: sink, metrics: metrics, log: log}
}

// Record appends one fetch-outcome row.
func (r *Recorder) Record(ctx context.Context, source string, op models.Operation, res models.SourceResult) {
	outcome := "success"
	if !res.Success {
		outcome = "error"
		// per-attempt deadlines expire inside the fetch client and only
		// surface through the result's error text
		if strings.Contains(res.Err, context.DeadlineExceeded.Error()) ||
			ctx.Err() == context.DeadlineExceeded {
			outcome = "timeout"
		}
	}

	entry := models.ActivityEntry{
		ID:        uuid.NewString(),
		Source:    source,
		Operation: op,
		Outcome:   outcome,
		Records:   len(res.Data),
		LatencyMs: res.ResponseTimeMs,
		Error:     res.Err,
		At:        time.Now().UTC(),
	}

	if r.metrics != nil {
		r.metrics.RecordSourceOutcome(source, string(op), outcome, entry.Records, float64(entry.LatencyMs)/1000)
	}

	ev := r.log.Info
	if !res.Success {
		ev = r.log.Warn
	}
	ev("fetch outcome",
		logger.String("source", source),
		logger.String("operation", string(op)),
		logger.String("outcome", outcome),
		logger.Int("records", entry.Records),
		logger.Int64("latency_ms", entry.LatencyMs),
	)

	if r.sink == nil {
		return
	}
	// the sink write gets its own short deadline so a stalled store
	// cannot stall the pass
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.sink.Record(sctx, entry); err != nil {
		r.log.Warn("activity sink write failed", logger.Error(err))
	}
}

// Recent returns the latest activity rows for health reporting.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if r.sink == nil {
		return nil, nil
	}
	return r.sink.Recent(ctx, limit)
}
