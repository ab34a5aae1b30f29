// Package scheduler runs named jobs on fixed intervals. Jobs are
// independent: each gets its own goroutine and ticker, and a slow or
// panicking job never delays another.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Job is one unit of scheduled work. The error is logged, not acted on;
// the next tick runs regardless.
type Job func(ctx context.Context) error

type entry struct {
	name     string
	interval time.Duration
	job      Job
}

// Scheduler holds registered jobs until Run starts them.
type Scheduler struct {
	entries []entry
	logger  *slog.Logger
}

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates an empty Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a job. Must be called before Run.
func (s *Scheduler) Add(name string, interval time.Duration, job Job) error {
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	if job == nil {
		return fmt.Errorf("job %s: job func is required", name)
	}
	s.entries = append(s.entries, entry{name: name, interval: interval, job: job})
	return nil
}

// Run executes every job immediately, then on its interval, until ctx is
// cancelled. It blocks until all job goroutines have drained.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, e := range s.entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runJob(ctx, e)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, e entry) {
	logger := s.logger.With("job", e.name)
	s.invoke(ctx, logger, e)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.invoke(ctx, logger, e)
		}
	}
}

// invoke runs one iteration with panic containment. A panicking job must
// not take down the process or its own future ticks.
func (s *Scheduler) invoke(ctx context.Context, logger *slog.Logger, e entry) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	started := time.Now()
	if err := e.job(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("job failed", "error", err, "elapsed", time.Since(started))
		return
	}
	logger.Debug("job ran", "elapsed", time.Since(started))
}
