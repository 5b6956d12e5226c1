package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of background tasks allowed to run at once.
const DefaultConcurrency = 4

// Task is a unit of background work. ctx is cancelled when the supervisor shuts down.
type Task func(ctx context.Context) error

// Supervisor runs detached background tasks that never outlive Shutdown.
// At most one task per key runs at a time; triggers that arrive while it runs are
// folded into a single follow-up run.
type Supervisor struct {
	logger *zap.Logger
	clock  clockwork.Clock

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu       sync.Mutex
	closed   bool
	inflight map[string]*run
	tickers  sync.WaitGroup
}

// NewSupervisor creates a supervisor running at most limit tasks concurrently.
func NewSupervisor(logger *zap.Logger, clock clockwork.Clock, limit int) *Supervisor {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Supervisor{
		logger:   logger,
		clock:    clock,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]*run),
	}
	s.group.SetLimit(limit)

	return s
}

// run tracks the task running under a key and whether it must run again.
type run struct {
	fn    Task
	again bool
}

// Trigger starts fn in the background and returns immediately. When a task for key is
// already running, fn is queued to run once after it. Trigger reports false when the
// supervisor is saturated or has shut down.
func (s *Supervisor) Trigger(key string, fn Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	if r, busy := s.inflight[key]; busy {
		r.fn = fn
		r.again = true

		return true
	}

	started := s.group.TryGo(func() error {
		for task := fn; task != nil; task = s.next(key) {
			s.execute(key, task)
		}

		return nil
	})
	if !started {
		s.logger.Warn("background task dropped, supervisor saturated", zap.String("task", key))

		return false
	}

	s.inflight[key] = &run{fn: fn}

	return true
}

func (s *Supervisor) execute(key string, fn Task) {
	start := s.clock.Now()

	if err := fn(s.ctx); err != nil {
		s.logger.Error("background task failed", zap.String("task", key), zap.Error(err))

		return
	}

	s.logger.Debug("background task finished",
		zap.String("task", key),
		zap.Duration("duration", s.clock.Since(start)),
	)
}

// next returns the queued follow-up for key, or releases the key and returns nil.
func (s *Supervisor) next(key string) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.inflight[key]
	if r != nil && r.again && !s.closed {
		r.again = false

		return r.fn
	}

	delete(s.inflight, key)

	return nil
}

// Schedule triggers fn under key every interval until shutdown.
func (s *Supervisor) Schedule(key string, interval time.Duration, fn Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || interval <= 0 {
		return
	}

	ticker := s.clock.NewTicker(interval)

	s.tickers.Add(1)

	go func() {
		defer s.tickers.Done()
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.Chan():
				s.Trigger(key, fn)
			}
		}
	}()
}

// Wait blocks until every running task has returned.
func (s *Supervisor) Wait() {
	_ = s.group.Wait()
}

// Shutdown cancels running tasks and waits for them to return.
func (s *Supervisor) Shutdown() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.tickers.Wait()
	_ = s.group.Wait()

	return nil
}
