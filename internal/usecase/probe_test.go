package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/domain/repository"
	"IPOPulse/pkg/logger"
)

// checkableAdapter counts which path a health check takes: the
// dedicated single-request read or the full offerings operation.
type checkableAdapter struct {
	fakeAdapter
	healthCalls    int
	offeringsCalls int
}

func (c *checkableAdapter) HealthRead(context.Context) models.SourceResult {
	c.healthCalls++
	return models.SourceResult{
		Success:   true,
		Data:      []models.Offering{},
		Source:    c.name,
		Timestamp: time.Now().UTC(),
	}
}

func (c *checkableAdapter) Offerings(context.Context) models.SourceResult {
	c.offeringsCalls++
	return c.result()
}

func TestProbeUsesSingleRequestRead(t *testing.T) {
	ad := &checkableAdapter{fakeAdapter: fakeAdapter{name: "a"}}
	agg := NewAggregator([]repository.SourceAdapter{ad}, nil, "", logger.Nop())

	res := agg.Probe(context.Background(), "a")

	assert.True(t, res.Success)
	assert.Equal(t, 1, ad.healthCalls, "health checks take the cheapest read")
	assert.Equal(t, 0, ad.offeringsCalls, "a health check must not run a full pass")
}

func TestProbeFallsBackToOfferings(t *testing.T) {
	ad := &fakeAdapter{name: "plain", data: []models.Offering{offering("AAA", "Alpha Industries")}}
	agg := NewAggregator([]repository.SourceAdapter{ad}, nil, "", logger.Nop())

	res := agg.Probe(context.Background(), "plain")
	assert.True(t, res.Success)
}

func TestProbeUnknownSource(t *testing.T) {
	agg := NewAggregator(nil, nil, "", logger.Nop())

	res := agg.Probe(context.Background(), "ghost")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "ghost")
}

func TestProbeRecoversPanic(t *testing.T) {
	ad := &fakeAdapter{name: "broken", panics: true}
	agg := NewAggregator([]repository.SourceAdapter{ad}, nil, "", logger.Nop())

	res := agg.Probe(context.Background(), "broken")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "panic")
}
