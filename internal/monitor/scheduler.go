package monitor

import (
	"context"
	"log"
	"sync"
	"time"
)

// CycleRunner is the single entry point the scheduler drives.
type CycleRunner interface {
	RunCycle(ctx context.Context)
}

// Scheduler runs the monitoring cycle on a fixed interval, starting
// with one immediate run, and accepts out-of-band triggers when the
// seller collection changes. Triggers within the debounce window are
// coalesced into a single extra run, and cycles never overlap: an
// on-change run that lands while a periodic run is in progress waits
// for it.
type Scheduler struct {
	runner       CycleRunner
	interval     time.Duration
	triggerDelay time.Duration

	runMu sync.Mutex // serializes RunCycle invocations

	mu      sync.Mutex // guards the fields below
	running bool
	pending bool
	ticker  *time.Ticker
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler builds a stopped scheduler.
func NewScheduler(runner CycleRunner, interval, triggerDelay time.Duration) *Scheduler {
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		triggerDelay: triggerDelay,
	}
}

// Start launches the periodic loop: one immediate cycle, then one
// every interval. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.ctx = ctx
	s.ticker = time.NewTicker(s.interval)
	s.done = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	log.Printf("Scheduler started: cycle every %v.", s.interval)

	go func() {
		defer close(s.done)
		s.run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.ticker.C:
				s.run(ctx)
			}
		}
	}()
}

// Stop halts the periodic loop and waits for any in-flight cycle to
// reach its next cancellation point.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.ticker.Stop()
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	// A trigger-fired cycle may still hold the run lock; wait it out.
	s.runMu.Lock()
	s.runMu.Unlock()
	log.Println("Scheduler stopped.")
}

// Trigger schedules one extra cycle shortly after a seller add/remove,
// giving the configuration write time to land. Repeated triggers
// within the delay window collapse into that one run.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.pending {
		return
	}
	s.pending = true
	ctx := s.ctx

	time.AfterFunc(s.triggerDelay, func() {
		s.mu.Lock()
		s.pending = false
		active := s.running
		s.mu.Unlock()
		if active {
			log.Println("Seller collection changed, running an extra cycle.")
			s.run(ctx)
		}
	})
}

// run serializes cycle invocations so a triggered run never overlaps a
// periodic one.
func (s *Scheduler) run(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	s.runner.RunCycle(ctx)
}
