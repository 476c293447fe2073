package likes

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryTrackerClaimOnce(t *testing.T) {
	tr := NewMemoryTracker(time.Hour)
	ctx := context.Background()
	key := Key("visitor:USER1", "p1")

	ok, err := tr.Claim(ctx, key)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = tr.Claim(ctx, key)
	if err != nil || ok {
		t.Fatalf("second claim: ok=%v err=%v", ok, err)
	}

	ok, _ = tr.Claim(ctx, Key("visitor:USER2", "p1"))
	if !ok {
		t.Fatal("another caller must be able to claim")
	}
	ok, _ = tr.Claim(ctx, Key("visitor:USER1", "p2"))
	if !ok {
		t.Fatal("another project must be claimable")
	}
}

func TestMemoryTrackerExpiry(t *testing.T) {
	tr := NewMemoryTracker(time.Minute)
	now := time.Now()
	tr.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := tr.Claim(ctx, "k"); !ok {
		t.Fatal("first claim rejected")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := tr.Claim(ctx, "k"); !ok {
		t.Fatal("claim after ttl rejected")
	}
}

func TestMemoryTrackerRelease(t *testing.T) {
	tr := NewMemoryTracker(time.Hour)
	ctx := context.Background()
	_, _ = tr.Claim(ctx, "k")
	_ = tr.Release(ctx, "k")
	if ok, _ := tr.Claim(ctx, "k"); !ok {
		t.Fatal("claim after release rejected")
	}
}

func TestMemoryTrackerSweep(t *testing.T) {
	tr := NewMemoryTracker(time.Minute)
	now := time.Now()
	tr.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = tr.Claim(ctx, "old")
	now = now.Add(time.Hour)
	for i := 1; i < sweepEvery; i++ {
		_, _ = tr.Claim(ctx, "fresh")
	}
	if n := tr.Len(); n != 1 {
		t.Fatalf("expected expired claim swept, have %d entries", n)
	}
}

func TestMemoryTrackerConcurrentClaims(t *testing.T) {
	tr := NewMemoryTracker(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := tr.Claim(ctx, "same"); ok {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if accepted != 1 {
		t.Fatalf("accepted %d claims, want 1", accepted)
	}
}
