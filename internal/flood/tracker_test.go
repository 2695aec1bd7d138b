package flood

import (
	"sync"
	"testing"
	"time"
)

func TestRecordAndCheckTriggersAtThreshold(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if tracker.RecordAndCheck(1, 100, base.Add(time.Duration(i)*time.Second), 5, 5*time.Second) {
			t.Fatalf("message %d should not trigger, threshold is 5", i+1)
		}
	}
	if !tracker.RecordAndCheck(1, 100, base.Add(4*time.Second), 5, 5*time.Second) {
		t.Fatal("fifth message inside the window should trigger")
	}
}

func TestRecordAndCheckPrunesOldEntries(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		tracker.RecordAndCheck(1, 100, base.Add(time.Duration(i)*time.Second), 5, 5*time.Second)
	}
	// 10s later the first four entries are stale, so this is message 1 of 5.
	if tracker.RecordAndCheck(1, 100, base.Add(10*time.Second), 5, 5*time.Second) {
		t.Fatal("stale entries must not count toward the threshold")
	}
}

func TestRecordAndCheckBoundaryEntryExpires(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tracker.RecordAndCheck(1, 100, base, 2, 5*time.Second)
	// An entry exactly windowDuration old sits on the cutoff and is pruned.
	if tracker.RecordAndCheck(1, 100, base.Add(5*time.Second), 2, 5*time.Second) {
		t.Fatal("entry exactly at the window edge should have expired")
	}
	if !tracker.RecordAndCheck(1, 100, base.Add(6*time.Second), 2, 5*time.Second) {
		t.Fatal("two entries inside the window should trigger")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		tracker.RecordAndCheck(1, 100, now, 20, time.Minute)
	}
	if tracker.RecordAndCheck(1, 200, now, 2, time.Minute) {
		t.Fatal("another user in the same chat must start from a clean window")
	}
	if tracker.RecordAndCheck(2, 100, now, 2, time.Minute) {
		t.Fatal("the same user in another chat must start from a clean window")
	}
}

func TestResetClearsWindow(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		tracker.RecordAndCheck(1, 100, now, 5, 5*time.Second)
	}
	tracker.Reset(1, 100)
	if tracker.RecordAndCheck(1, 100, now, 5, 5*time.Second) {
		t.Fatal("reset window must not retrigger on the next message")
	}
	if got := tracker.Len(); got != 1 {
		t.Fatalf("expected 1 tracked key after reset and re-record, got %d", got)
	}
}

func TestPruneDropsIdleKeys(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tracker.RecordAndCheck(1, 100, base, 5, 5*time.Second)
	tracker.RecordAndCheck(1, 200, base.Add(9*time.Minute), 5, 5*time.Second)

	removed := tracker.Prune(base.Add(10*time.Minute), 5*time.Minute)
	if removed != 1 {
		t.Fatalf("expected 1 pruned key, got %d", removed)
	}
	if got := tracker.Len(); got != 1 {
		t.Fatalf("expected 1 remaining key, got %d", got)
	}

	if removed = tracker.Prune(base.Add(10*time.Minute), 5*time.Minute); removed != 0 {
		t.Fatalf("second prune should be a no-op, removed %d", removed)
	}
}

func TestRecordAndCheckConcurrent(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	triggered := make(chan struct{}, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if tracker.RecordAndCheck(1, 100, now, workers*perWorker, time.Minute) {
					triggered <- struct{}{}
				}
			}
		}()
	}
	wg.Wait()
	close(triggered)

	// All entries share one timestamp, so exactly the final record reaches
	// the threshold.
	if got := len(triggered); got != 1 {
		t.Fatalf("expected exactly 1 trigger, got %d", got)
	}
}
