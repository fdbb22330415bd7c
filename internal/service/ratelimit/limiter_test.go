package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowDrainsBucket(t *testing.T) {
	l := New()

	if !l.Allow("src", 2, 0) {
		t.Fatalf("first token refused")
	}
	if !l.Allow("src", 2, 0) {
		t.Fatalf("second token refused")
	}
	if l.Allow("src", 2, 0) {
		t.Fatalf("bucket should be empty")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()

	if !l.Allow("a", 1, 0) {
		t.Fatalf("token for a refused")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("a's drain should not affect b")
	}
}

func TestWaitRefills(t *testing.T) {
	l := New()

	if !l.Allow("src", 1, 50) {
		t.Fatalf("first token refused")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Wait(ctx, "src", 1, 50); err != nil {
		t.Fatalf("wait should succeed once refilled: %v", err)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()
	l.Allow("src", 1, 0) // drain; zero refill means no token ever returns

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "src", 1, 0); err == nil {
		t.Fatalf("expected context deadline error")
	}
}
