package signal

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("c1") {
			t.Fatalf("attempt %d rejected below limit", i+1)
		}
	}
	if rl.Allow("c1") {
		t.Fatalf("attempt over limit allowed")
	}
}

func TestRateLimiterIsolatesConnections(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	if !rl.Allow("c1") {
		t.Fatalf("first c1 attempt rejected")
	}
	if !rl.Allow("c2") {
		t.Fatalf("c2 throttled by c1's window")
	}
	if rl.Allow("c1") {
		t.Fatalf("second c1 attempt allowed")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(2, 10*time.Millisecond)

	rl.Allow("c1")
	rl.Allow("c1")
	if rl.Allow("c1") {
		t.Fatalf("attempt over limit allowed")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow("c1") {
		t.Fatalf("attempt rejected after window expired")
	}
}

func TestRateLimiterForget(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	rl.Allow("c1")
	rl.Forget("c1")

	if !rl.Allow("c1") {
		t.Fatalf("attempt rejected after Forget")
	}
}
