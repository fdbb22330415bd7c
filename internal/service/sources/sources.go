package sources

import (
	"context"
	"fmt"
	"time"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/domain/repository"
	"IPOPulse/internal/service/activity"
	"IPOPulse/internal/service/quota"
	"IPOPulse/internal/service/ratelimit"
	"IPOPulse/pkg/browser"
	"IPOPulse/pkg/config"
	"IPOPulse/pkg/fetch"
	"IPOPulse/pkg/logger"
)

// Deps carries the shared collaborators every adapter needs.
type Deps struct {
	Recorder *activity.Recorder
	Limiter  *ratelimit.Limiter
	Gate     *quota.Gate
	Metrics  repository.Metrics
	Log      *logger.Logger
}

// base implements the result-wrapping half of the adapter contract:
// internal failures become the failure variant, and every call reports
// to the activity log exactly once, here, regardless of how many fetch
// retries happened inside.
type base struct {
	name     string
	recorder *activity.Recorder
	log      *logger.Logger
}

func (b *base) Name() string { return b.name }

func (b *base) wrap(ctx context.Context, op models.Operation, start time.Time, data []models.Offering, err error) models.SourceResult {
	res := models.SourceResult{
		Source:         b.name,
		Timestamp:      time.Now().UTC(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		res.Data = []models.Offering{}
		res.Err = err.Error()
	} else {
		res.Success = true
		res.Data = data
		if res.Data == nil {
			res.Data = []models.Offering{}
		}
	}
	if b.recorder != nil {
		b.recorder.Record(ctx, b.name, op, res)
	}
	return res
}

// Build constructs the adapter for one configured source.
func Build(sc config.SourceConfig, deps Deps) (repository.SourceAdapter, error) {
	client := fetch.NewClient(
		fetch.WithTimeout(sc.Timeout),
		fetch.WithRetries(sc.Retries),
		fetch.WithBackoff(sc.BaseBackoff),
		fetch.WithLogger(deps.Log.With(logger.String("source", sc.Name))),
		fetch.WithAttemptHook(func(attempt int) {
			if deps.Metrics != nil {
				deps.Metrics.RecordFetchAttempt(sc.Name, attempt)
			}
		}),
	)

	b := base{name: sc.Name, recorder: deps.Recorder, log: deps.Log}

	switch sc.Kind {
	case "structured":
		return newMarketAPI(sc, b, client, deps.Gate), nil
	case "document":
		return newGMPWatch(sc, b, client, deps.Limiter), nil
	case "rendered":
		rf := browser.New(
			browser.WithTimeout(sc.Timeout),
			browser.WithLogger(deps.Log.With(logger.String("source", sc.Name))),
		)
		return newIPOBoard(sc, b, rf, client, deps.Limiter), nil
	default:
		return nil, fmt.Errorf("source %s: unknown kind %q", sc.Name, sc.Kind)
	}
}

// BuildAll constructs every configured adapter.
func BuildAll(cfgs []config.SourceConfig, deps Deps) ([]repository.SourceAdapter, error) {
	out := make([]repository.SourceAdapter, 0, len(cfgs))
	for _, sc := range cfgs {
		ad, err := Build(sc, deps)
		if err != nil {
			return nil, err
		}
		out = append(out, ad)
	}
	return out, nil
}
