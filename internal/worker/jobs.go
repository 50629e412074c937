package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/logfields"
)

// Status is the lifecycle state of a dispatched job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// DefaultHistory is how many finished jobs are remembered.
const DefaultHistory = 100

// Job describes one dispatched operation.
type Job struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Result      any        `json:"result,omitempty"`
}

// Func is the work performed by a job. The returned value is stored as the job result.
type Func func(ctx context.Context) (any, error)

// Dispatcher starts jobs on a Group and records their outcome.
//
// Callers never wait on a job; abandoning a job only means nobody reads its entry.
type Dispatcher struct {
	group   Group
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	history int

	mu       sync.RWMutex
	jobs     map[string]*Job
	finished []string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithHistory overrides DefaultHistory.
func WithHistory(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.history = n
		}
	}
}

// NewDispatcher creates a dispatcher. Jobs run with a context derived from
// the background context, not the caller's request context.
func NewDispatcher(opts ...Option) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		ctx:     ctx,
		cancel:  cancel,
		logger:  slog.Default(),
		history: DefaultHistory,
		jobs:    make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch starts fn in the background and returns the job as first recorded.
func (d *Dispatcher) Dispatch(kind string, fn Func) (Job, error) {
	if fn == nil {
		return Job{}, errors.ValidationError("job function is required").WithContext("kind", kind).Build()
	}

	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusRunning,
		CreatedAt: time.Now().UTC(),
	}

	d.mu.Lock()
	d.jobs[job.ID] = job
	snapshot := *job
	d.mu.Unlock()

	started := d.group.Go(func() { d.run(job.ID, kind, fn) })
	if !started {
		d.mu.Lock()
		delete(d.jobs, job.ID)
		d.mu.Unlock()
		return Job{}, errors.RuntimeError("dispatcher is shutting down").
			WithContext("kind", kind).
			Build()
	}

	d.logger.Debug("Job dispatched", logfields.JobID(job.ID), slog.String("kind", kind))
	return snapshot, nil
}

// Get returns a copy of the job with id.
func (d *Dispatcher) Get(id string) (Job, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	job, ok := d.jobs[id]
	if !ok {
		return Job{}, errors.NotFoundError("job").WithContext("id", id).Build()
	}
	return *job, nil
}

// Wait blocks until the job with id has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context, id string) (Job, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		job, err := d.Get(id)
		if err != nil {
			return Job{}, err
		}
		if job.Status != StatusRunning {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Shutdown cancels running jobs and waits for them, bounded by ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.cancel()
	if err := d.group.StopAndWait(ctx); err != nil {
		return fmt.Errorf("waiting for jobs: %w", err)
	}
	return nil
}

func (d *Dispatcher) run(id, kind string, fn Func) {
	start := time.Now()
	result, err := d.call(fn)
	now := time.Now().UTC()

	d.mu.Lock()
	job := d.jobs[id]
	job.CompletedAt = &now
	job.Result = result
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
	} else {
		job.Status = StatusSucceeded
	}
	d.finished = append(d.finished, id)
	for len(d.finished) > d.history {
		delete(d.jobs, d.finished[0])
		d.finished = d.finished[1:]
	}
	d.mu.Unlock()

	attrs := []any{
		logfields.JobID(id),
		slog.String("kind", kind),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())),
	}
	if err != nil {
		d.logger.Warn("Job failed", append(attrs, logfields.Error(err))...)
		return
	}
	d.logger.Info("Job completed", attrs...)
}

func (d *Dispatcher) call(fn Func) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewError(errors.CategoryInternal, fmt.Sprintf("job panicked: %v", r)).Build()
		}
	}()
	return fn(d.ctx)
}
