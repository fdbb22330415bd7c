package quota

import (
	"testing"
	"time"
)

func TestGateConsumeUntilExhausted(t *testing.T) {
	g := NewGate(25, time.UTC, nil)

	for i := 0; i < 25; i++ {
		if !g.Consume() {
			t.Fatalf("request %d refused inside budget", i+1)
		}
	}
	if g.Consume() {
		t.Fatalf("request 26 should be refused")
	}
	if g.CanRequest() {
		t.Fatalf("CanRequest should report exhausted")
	}
}

func TestGateNeverRefunds(t *testing.T) {
	g := NewGate(1, time.UTC, nil)
	if !g.Consume() {
		t.Fatalf("first consume refused")
	}
	// A failed fetch after Consume does not return budget.
	if g.Consume() {
		t.Fatalf("budget refunded")
	}
}

func TestGateDayRollover(t *testing.T) {
	now := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	g := NewGate(1, time.UTC, nil, WithClock(func() time.Time { return now }))

	if !g.Consume() {
		t.Fatalf("first consume refused")
	}
	if g.Consume() {
		t.Fatalf("budget should be exhausted")
	}

	now = now.Add(2 * time.Hour) // past midnight
	if !g.Consume() {
		t.Fatalf("budget should reset on day rollover")
	}
}

func TestGateRolloverRespectsTimezone(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 20:00 UTC = 01:30 IST next day; the budget day is the IST day.
	now := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	g := NewGate(1, kolkata, nil, WithClock(func() time.Time { return now }))

	if !g.Consume() {
		t.Fatalf("first consume refused")
	}

	now = time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	if !g.Consume() {
		t.Fatalf("IST day rolled over at 18:30 UTC, budget should reset")
	}
}

func TestGateScheduledFetchTypeOncePerDay(t *testing.T) {
	windows := []Window{
		{Type: FetchOpen, Start: "10:00", Length: 45 * time.Minute},
		{Type: FetchUpcoming, Start: "13:30", Length: 45 * time.Minute},
	}

	now := time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC)
	g := NewGate(25, time.UTC, windows, WithClock(func() time.Time { return now }))

	ft, ok := g.ScheduledFetchType()
	if !ok || ft != FetchOpen {
		t.Fatalf("expected open window claim, got %q ok=%v", ft, ok)
	}

	// Second wakeup inside the same window is a no-op.
	if _, ok := g.ScheduledFetchType(); ok {
		t.Fatalf("open window claimed twice in one day")
	}

	now = time.Date(2026, 3, 2, 13, 40, 0, 0, time.UTC)
	ft, ok = g.ScheduledFetchType()
	if !ok || ft != FetchUpcoming {
		t.Fatalf("expected upcoming window claim, got %q ok=%v", ft, ok)
	}

	// Next day, the open window is claimable again.
	now = time.Date(2026, 3, 3, 10, 15, 0, 0, time.UTC)
	ft, ok = g.ScheduledFetchType()
	if !ok || ft != FetchOpen {
		t.Fatalf("expected open window after rollover, got %q ok=%v", ft, ok)
	}
}

func TestGateOutsideWindows(t *testing.T) {
	windows := []Window{{Type: FetchOpen, Start: "10:00", Length: 45 * time.Minute}}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	g := NewGate(25, time.UTC, windows, WithClock(func() time.Time { return now }))

	if _, ok := g.ScheduledFetchType(); ok {
		t.Fatalf("no window is open at 09:00")
	}
}

func TestGateStatus(t *testing.T) {
	g := NewGate(25, time.UTC, nil)
	g.Consume()
	g.Consume()

	st := g.Status()
	if st.Used != 2 || st.Limit != 25 {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.Remaining != 23 {
		t.Fatalf("unexpected remaining %d", st.Remaining)
	}
}
