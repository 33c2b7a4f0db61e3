package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itx-nasir/phish-guard/internal/core"
	"github.com/itx-nasir/phish-guard/internal/ports"
	"go.uber.org/zap"
)

// ErrQueueFull is returned when the submission backlog is saturated
var ErrQueueFull = errors.New("analysis queue is full")

// Options configures the dispatcher
type Options struct {
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	ResultTTL    time.Duration
	CleanupFreq  time.Duration
}

type submission struct {
	id   string
	task ports.Task
}

// Dispatcher runs analysis tasks on a fixed worker pool and keeps
// their results in memory for polling until the TTL expires. A task
// error (as opposed to a degraded result) is retried with a fixed
// backoff up to MaxRetries times.
type Dispatcher struct {
	logger   *zap.Logger
	opts     Options
	mu       sync.RWMutex
	jobs     map[string]*ports.Job
	tasks    chan submission
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewDispatcher creates a dispatcher and starts its workers
func NewDispatcher(opts Options, logger *zap.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.CleanupFreq <= 0 {
		opts.CleanupFreq = time.Hour
	}

	d := &Dispatcher{
		logger: logger,
		opts:   opts,
		jobs:   make(map[string]*ports.Job),
		tasks:  make(chan submission, opts.Workers*16),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	// Background expiry of terminal jobs
	go d.startCleanupTask()

	return d
}

// Submit enqueues a task and returns its job ID
func (d *Dispatcher) Submit(analysisType string, task ports.Task) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	d.mu.Lock()
	d.jobs[id] = &ports.Job{
		ID:           id,
		AnalysisType: analysisType,
		State:        ports.JobStatePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.mu.Unlock()

	select {
	case d.tasks <- submission{id: id, task: task}:
		return id, nil
	default:
		d.mu.Lock()
		delete(d.jobs, id)
		d.mu.Unlock()
		return "", ErrQueueFull
	}
}

// Get returns a copy of the job for an ID
func (d *Dispatcher) Get(id string) (*ports.Job, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	job, ok := d.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

// Stop drains the workers and stops background maintenance. Jobs still
// pending are left in their current state.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			return
		case sub := <-d.tasks:
			d.run(sub)
		}
	}
}

func (d *Dispatcher) run(sub submission) {
	attempts := d.transition(sub.id, ports.JobStateRunning, nil, "")

	result, err := d.safeRun(sub)
	if err == nil {
		d.transition(sub.id, ports.JobStateSucceeded, result, "")
		return
	}

	if attempts <= d.opts.MaxRetries {
		d.logger.Warn("Analysis task failed, scheduling retry",
			zap.String("job_id", sub.id),
			zap.Int("attempt", attempts),
			zap.Error(err))
		d.transition(sub.id, ports.JobStateRetrying, nil, err.Error())
		d.requeueAfter(sub, d.opts.RetryBackoff)
		return
	}

	d.logger.Error("Analysis task failed permanently",
		zap.String("job_id", sub.id),
		zap.Int("attempts", attempts),
		zap.Error(err))
	d.transition(sub.id, ports.JobStateFailed, nil, err.Error())
}

// safeRun executes a task, converting a panic into an error so one bad
// task cannot take down a worker
func (d *Dispatcher) safeRun(sub submission) (result *core.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return sub.task(context.Background(), sub.id)
}

// transition updates a job's state and returns its attempt count
func (d *Dispatcher) transition(id string, state ports.JobState, result *core.AnalysisResult, errMsg string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	job, ok := d.jobs[id]
	if !ok {
		return 0
	}

	job.State = state
	job.UpdatedAt = time.Now().UTC()
	if state == ports.JobStateRunning {
		job.Attempts++
	}
	if result != nil {
		job.Result = result
	}
	job.Error = errMsg

	return job.Attempts
}

func (d *Dispatcher) requeueAfter(sub submission, backoff time.Duration) {
	time.AfterFunc(backoff, func() {
		select {
		case d.tasks <- sub:
		case <-d.stopCh:
		default:
			d.transition(sub.id, ports.JobStateFailed, nil, ErrQueueFull.Error())
		}
	})
}

func (d *Dispatcher) startCleanupTask() {
	ticker := time.NewTicker(d.opts.CleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.cleanup()
		case <-d.stopCh:
			return
		}
	}
}

func (d *Dispatcher) cleanup() {
	if d.opts.ResultTTL <= 0 {
		return
	}

	cutoff := time.Now().UTC().Add(-d.opts.ResultTTL)

	d.mu.Lock()
	defer d.mu.Unlock()

	expired := 0
	for id, job := range d.jobs {
		terminal := job.State == ports.JobStateSucceeded || job.State == ports.JobStateFailed
		if terminal && job.UpdatedAt.Before(cutoff) {
			delete(d.jobs, id)
			expired++
		}
	}

	if expired > 0 {
		d.logger.Debug("Expired completed jobs", zap.Int("expired_count", expired))
	}
}
