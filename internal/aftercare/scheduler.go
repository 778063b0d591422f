package aftercare

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler fires the runner once per calendar day at the configured local
// hour. It is a thin time-driven trigger: all batch semantics live in the
// Runner, and the delivery markers make an extra manual run harmless.
type Scheduler struct {
	mu     sync.RWMutex
	runner *Runner
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
	now    func() time.Time
}

// NewScheduler creates a daily trigger for the given runner.
func NewScheduler(runner *Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		logger: logger,
		now:    time.Now,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)

		for {
			wait := time.Until(s.NextRun(s.now()))
			timer := time.NewTimer(wait)

			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				if _, err := s.runner.Run(ctx); err != nil {
					// The next day's run is the retry mechanism.
					s.logger.Error("daily aftercare run failed", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// NextRun returns the next scheduled fire time strictly after now: today at
// the configured hour if that is still ahead, otherwise the same hour
// tomorrow. Times are computed in the service reference timezone.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	loc := s.runner.cfg.location()
	local := now.In(loc)

	next := time.Date(local.Year(), local.Month(), local.Day(), s.runner.cfg.RunHour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
