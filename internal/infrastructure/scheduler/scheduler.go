// Package scheduler provides a bounded worker pool for work that must not run on
// the request path: event publishing in the composite service and blocking
// store calls in the review service.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of work run by a worker
type Task func(ctx context.Context) error

// Config holds scheduler configuration
type Config struct {
	// Name identifies the pool in logs and metrics
	Name string
	// Workers is the number of concurrent workers
	Workers int
	// QueueSize bounds the backlog; submissions beyond it are rejected
	QueueSize int
	// TaskTimeout bounds a single fire-and-forget task
	TaskTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		Workers:     10,
		QueueSize:   100,
		TaskTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Workers <= 0 || c.QueueSize <= 0 {
		return fmt.Errorf("%w: workers=%d queue_size=%d", ErrInvalidConfig, c.Workers, c.QueueSize)
	}
	return nil
}

// Stats is a snapshot of scheduler counters
type Stats struct {
	Queued    int   `json:"queued"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Rejected  int64 `json:"rejected"`
}

type queuedTask struct {
	name string
	run  Task
	// ctx, when set, replaces the scheduler's own task context
	ctx context.Context
}

// Scheduler is a fixed-size worker pool with a bounded task queue
type Scheduler struct {
	config Config
	logger *zap.Logger

	tasks     chan queuedTask
	// lanes[i] is owned by worker i; tasks sharing a key run in submission order
	lanes     []chan queuedTask
	baseCtx   context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool

	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// New creates a scheduler; call Start before submitting
func New(config Config, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = 30 * time.Second
	}
	laneSize := (config.QueueSize + config.Workers - 1) / config.Workers
	lanes := make([]chan queuedTask, config.Workers)
	for i := range lanes {
		lanes[i] = make(chan queuedTask, laneSize)
	}
	return &Scheduler{
		config: config,
		logger: logger.Named("scheduler").With(zap.String("pool", config.Name)),
		tasks:  make(chan queuedTask, config.QueueSize),
		lanes:  lanes,
	}, nil
}

// Name returns the configured pool name
func (s *Scheduler) Name() string {
	return s.config.Name
}

// Start starts the workers
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	// Fire-and-forget tasks must outlive the request that submitted them.
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.logger.Info("Scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("task_timeout", s.config.TaskTimeout),
	)
	return nil
}

// Stop stops accepting work, drains the queue and waits for the workers.
// If ctx expires first, running tasks are cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	close(s.tasks)
	for _, lane := range s.lanes {
		close(lane)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.cancel()
		s.logger.Warn("Scheduler stop timed out, cancelling running tasks")
		return ctx.Err()
	}
}

// Submit queues a fire-and-forget task. It never blocks: a full queue
// yields ErrTaskQueueFull.
func (s *Scheduler) Submit(name string, task Task) error {
	return s.enqueue(s.tasks, queuedTask{name: name, run: task})
}

// SubmitKeyed queues a fire-and-forget task on the lane owned by
// key % Workers, so tasks submitted with the same key run one at a time in
// submission order. Each lane holds its share of QueueSize; a full lane
// yields ErrTaskQueueFull.
func (s *Scheduler) SubmitKeyed(key int, name string, task Task) error {
	return s.enqueue(s.lane(key), queuedTask{name: name, run: task})
}

func (s *Scheduler) lane(key int) chan queuedTask {
	i := key % len(s.lanes)
	if i < 0 {
		i += len(s.lanes)
	}
	return s.lanes[i]
}

// Do runs task on the pool and waits for its result. The task sees ctx, so a
// caller that gives up cancels the work too.
func (s *Scheduler) Do(ctx context.Context, name string, task Task) error {
	result := make(chan error, 1)
	err := s.enqueue(s.tasks, queuedTask{
		name: name,
		ctx:  ctx,
		run: func(taskCtx context.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					result <- fmt.Errorf("task %s panicked: %v", name, r)
					panic(r)
				}
			}()
			err = task(taskCtx)
			result <- err
			return err
		},
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) enqueue(queue chan queuedTask, t queuedTask) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case queue <- t:
		return nil
	default:
		s.rejected.Add(1)
		s.logger.Warn("Task rejected, queue full", zap.String("task", t.name))
		return ErrTaskQueueFull
	}
}

// Stats returns a snapshot of the counters
func (s *Scheduler) Stats() Stats {
	queued := len(s.tasks)
	for _, lane := range s.lanes {
		queued += len(lane)
	}
	return Stats{
		Queued:    queued,
		Active:    s.active.Load(),
		Completed: s.completed.Load(),
		Failed:    s.failed.Load(),
		Rejected:  s.rejected.Load(),
	}
}

func (s *Scheduler) worker(workerID int) {
	defer s.wg.Done()

	tasks, lane := s.tasks, s.lanes[workerID]
	for tasks != nil || lane != nil {
		select {
		case t, ok := <-tasks:
			if !ok {
				tasks = nil
				continue
			}
			s.runTask(workerID, t)
		case t, ok := <-lane:
			if !ok {
				lane = nil
				continue
			}
			s.runTask(workerID, t)
		}
	}
}

func (s *Scheduler) runTask(workerID int, t queuedTask) {
	s.active.Add(1)
	defer s.active.Add(-1)

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if t.ctx != nil {
		ctx, cancel = context.WithCancel(t.ctx)
	} else {
		ctx, cancel = context.WithTimeout(s.baseCtx, s.config.TaskTimeout)
	}
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.failed.Add(1)
			s.logger.Error("Task panicked",
				zap.Int("worker_id", workerID),
				zap.String("task", t.name),
				zap.Any("panic", r),
			)
		}
	}()

	if err := t.run(ctx); err != nil {
		s.failed.Add(1)
		s.logger.Warn("Task failed",
			zap.Int("worker_id", workerID),
			zap.String("task", t.name),
			zap.Error(err),
		)
		return
	}
	s.completed.Add(1)
}
