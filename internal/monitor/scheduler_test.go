package monitor

import (
	"context"
	"sync"
	"testing"
	"time"
)

// countingRunner records RunCycle invocations and can hold each cycle
// open to expose overlap.
type countingRunner struct {
	mu      sync.Mutex
	count   int
	active  int
	overlap bool
	hold    time.Duration
}

func (r *countingRunner) RunCycle(_ context.Context) {
	r.mu.Lock()
	r.count++
	r.active++
	if r.active > 1 {
		r.overlap = true
	}
	r.mu.Unlock()

	if r.hold > 0 {
		time.Sleep(r.hold)
	}

	r.mu.Lock()
	r.active--
	r.mu.Unlock()
}

func (r *countingRunner) snapshot() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count, r.overlap
}

func TestSchedulerRunsImmediatelyOnStart(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, time.Hour, time.Millisecond)

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(time.Second)
	for {
		if count, _ := r.snapshot(); count >= 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("expected an immediate first cycle after Start")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerCoalescesRapidTriggers(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, time.Hour, 50*time.Millisecond)

	s.Start(context.Background())
	defer s.Stop()

	// Wait out the immediate startup run.
	time.Sleep(20 * time.Millisecond)

	// A burst of add/remove events within the debounce window.
	s.Trigger()
	s.Trigger()
	s.Trigger()

	time.Sleep(200 * time.Millisecond)

	count, _ := r.snapshot()
	if count != 2 { // startup run + one coalesced trigger run
		t.Fatalf("expected 2 cycles (startup + coalesced trigger), got %d", count)
	}
}

func TestSchedulerNeverOverlapsCycles(t *testing.T) {
	r := &countingRunner{hold: 100 * time.Millisecond}
	s := NewScheduler(r, time.Hour, 5*time.Millisecond)

	s.Start(context.Background())

	// Trigger while the startup cycle is still holding.
	time.Sleep(20 * time.Millisecond)
	s.Trigger()

	time.Sleep(300 * time.Millisecond)
	s.Stop()

	count, overlap := r.snapshot()
	if overlap {
		t.Fatal("cycles overlapped; triggered runs must wait for the running cycle")
	}
	if count != 2 {
		t.Fatalf("expected the triggered run to still happen, got %d cycles", count)
	}
}

func TestSchedulerTriggerIgnoredWhenStopped(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, time.Hour, time.Millisecond)

	s.Trigger()
	time.Sleep(50 * time.Millisecond)

	if count, _ := r.snapshot(); count != 0 {
		t.Fatalf("a stopped scheduler must ignore triggers, got %d cycles", count)
	}
}

func TestSchedulerStopPreventsFurtherRuns(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, time.Hour, time.Millisecond)

	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	before, _ := r.snapshot()
	s.Trigger()
	time.Sleep(50 * time.Millisecond)

	if after, _ := r.snapshot(); after != before {
		t.Fatalf("no cycles may run after Stop, went from %d to %d", before, after)
	}
}

func TestSchedulerStopWaitsForTriggeredRun(t *testing.T) {
	r := &countingRunner{hold: 100 * time.Millisecond}
	s := NewScheduler(r, time.Hour, time.Millisecond)

	s.Start(context.Background())

	// Let the startup cycle finish, then fire a trigger and give its
	// run time to start holding.
	time.Sleep(150 * time.Millisecond)
	s.Trigger()
	time.Sleep(20 * time.Millisecond)

	s.Stop()

	r.mu.Lock()
	active := r.active
	r.mu.Unlock()
	if active != 0 {
		t.Fatal("Stop returned while a triggered cycle was still running")
	}
}
