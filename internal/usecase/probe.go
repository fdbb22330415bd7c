package usecase

import (
	"context"
	"fmt"
	"time"

	"IPOPulse/internal/domain/models"
)

// healthReader is implemented by adapters that can answer a health
// check with a single request instead of a full operation.
type healthReader interface {
	HealthRead(ctx context.Context) models.SourceResult
}

// Probe runs a named source's cheapest read operation and reports
// success and latency without feeding the result into the merge
// pipeline. Used for standalone health checks only.
func (a *Aggregator) Probe(ctx context.Context, source string) models.ProbeResult {
	ad, ok := a.adapters[source]
	if !ok {
		return models.ProbeResult{
			Source:  source,
			Success: false,
			Error:   fmt.Sprintf("unknown source %q", source),
		}
	}

	start := time.Now()
	res := a.guard(ad, func() models.SourceResult {
		if hr, ok := ad.(healthReader); ok {
			return hr.HealthRead(ctx)
		}
		return ad.Offerings(ctx)
	})
	probe := models.ProbeResult{
		Source:    source,
		Success:   res.Success,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if !res.Success {
		probe.Error = res.Err
	}
	return probe
}

// QuotaStatus exposes the rate-limited source's budget, or a zero
// status when no source is gated.
func (a *Aggregator) QuotaStatus() models.QuotaStatus {
	if a.gate == nil {
		return models.QuotaStatus{}
	}
	return a.gate.Status()
}
