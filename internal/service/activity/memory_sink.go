package activity

import (
	"context"
	"sync"

	"IPOPulse/internal/domain/models"
)

// MemorySink keeps the most recent activity rows in a ring buffer. Used
// when no ClickHouse sink is configured, and in tests.
type MemorySink struct {
	mu      sync.Mutex
	entries []models.ActivityEntry
	next    int
	full    bool
}

func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemorySink{entries: make([]models.ActivityEntry, capacity)}
}

func (s *MemorySink) Record(_ context.Context, entry models.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.next] = entry
	s.next = (s.next + 1) % len(s.entries)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// Recent returns up to limit rows, newest first.
func (s *MemorySink) Recent(_ context.Context, limit int) ([]models.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.next
	if s.full {
		size = len(s.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]models.ActivityEntry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.entries)) % len(s.entries)
		out = append(out, s.entries[idx])
	}
	return out, nil
}

func (s *MemorySink) Close() error { return nil }
