package quota

import (
	"sync"
	"time"

	"IPOPulse/internal/domain/models"
)

// FetchType is one of the scheduled fetch kinds for the rate-limited
// source. Each type owns one time-of-day window and runs at most once
// per calendar day.
type FetchType string

const (
	FetchOpen     FetchType = "open"
	FetchUpcoming FetchType = "upcoming"
	FetchListed   FetchType = "listed"
)

// Window is a daily time-of-day slot owned by one fetch type.
type Window struct {
	Type   FetchType
	Start  string // "15:04" in the gate's timezone
	Length time.Duration
}

// Gate tracks the rolling daily request budget and the per-fetch-type
// scheduled windows for the rate-limited source. All state is scoped to
// the instance; nothing is process-global. Counters are mutex-guarded
// because pagination fetches consume from concurrent goroutines and a
// lost update would blow the external quota for the rest of the day.
type Gate struct {
	mu sync.Mutex

	dailyLimit int
	loc        *time.Location
	windows    []Window
	now        func() time.Time

	// state below is reset on day rollover
	date         string
	requestCount int
	ran          map[FetchType]bool
}

type Option func(*Gate)

// WithClock injects a clock; tests use it to simulate day rollover.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func NewGate(dailyLimit int, loc *time.Location, windows []Window, opts ...Option) *Gate {
	g := &Gate{
		dailyLimit: dailyLimit,
		loc:        loc,
		windows:    windows,
		now:        time.Now,
		ran:        make(map[FetchType]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.date = g.today()
	return g
}

func (g *Gate) today() string {
	return g.now().In(g.loc).Format("2006-01-02")
}

// rollover resets counters when the tracked date is no longer today.
// Callers hold g.mu.
func (g *Gate) rollover() {
	if today := g.today(); today != g.date {
		g.date = today
		g.requestCount = 0
		g.ran = make(map[FetchType]bool)
	}
}

// CanRequest reports whether the daily budget still has room.
func (g *Gate) CanRequest() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()
	return g.requestCount < g.dailyLimit
}

// Consume records one permitted outbound request. The budget tracks
// requests attempted, not records obtained, so callers consume before
// the network call and never refund. Returns false when the budget was
// already exhausted, in which case no request may be made.
func (g *Gate) Consume() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()
	if g.requestCount >= g.dailyLimit {
		return false
	}
	g.requestCount++
	return true
}

// ScheduledFetchType maps the current time of day to at most one fetch
// type: the window containing now, provided that type has not already
// run today. Marks the type as run when claimed.
func (g *Gate) ScheduledFetchType() (FetchType, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()

	now := g.now().In(g.loc)
	for _, w := range g.windows {
		start, err := time.Parse("15:04", w.Start)
		if err != nil {
			continue
		}
		open := time.Date(now.Year(), now.Month(), now.Day(), start.Hour(), start.Minute(), 0, 0, g.loc)
		if now.Before(open) || now.After(open.Add(w.Length)) {
			continue
		}
		if g.ran[w.Type] {
			continue
		}
		g.ran[w.Type] = true
		return w.Type, true
	}
	return "", false
}

// Status reports the current budget for the quota endpoint.
func (g *Gate) Status() models.QuotaStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollover()
	return models.QuotaStatus{
		Date:      g.date,
		Used:      g.requestCount,
		Remaining: g.dailyLimit - g.requestCount,
		Limit:     g.dailyLimit,
	}
}
