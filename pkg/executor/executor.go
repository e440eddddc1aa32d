// Package executor runs loader tasks one at a time with a fixed delay before
// each task starts.
//
// The executor is the throttle between the petition pager and the petitions
// API: however many page and detail fetches are queued, only one of them is
// ever in flight, and each one starts interval after the previous finished.
package executor

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is a unit of work. The task is complete when the function returns, so a
// task that performs I/O must block until its request has succeeded or failed.
// Tasks report their own errors; the executor only sequences them.
type Task func(ctx context.Context)

// Executor serializes tasks. It is safe for concurrent use, including calls to
// Execute from inside a running task.
type Executor struct {
	mu       sync.Mutex
	tasks    []Task
	running  bool
	stopped  bool
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger
}

// New creates an executor that waits interval before starting each task.
func New(interval time.Duration, logger zerolog.Logger) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Executor{
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

// Execute queues a task and starts it when the executor is idle. It never
// blocks. Tasks submitted after Stop are dropped.
func (e *Executor) Execute(task Task) {
	if task == nil {
		return
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		tasksTotal.WithLabelValues("dropped").Inc()
		return
	}
	e.tasks = append(e.tasks, task)
	queueDepth.Set(float64(len(e.tasks)))
	e.mu.Unlock()

	e.poll()
}

// SetInterval changes the delay applied before future task starts. A task
// already waiting for its start keeps the delay it was scheduled with.
func (e *Executor) SetInterval(interval time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interval = interval
}

// Interval returns the current start delay.
func (e *Executor) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// Stop prevents any further task from starting. A task waiting for its start
// delay is abandoned; a task already running finishes, but the next one is
// not started. Queued tasks are dropped.
func (e *Executor) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	dropped := len(e.tasks)
	e.tasks = nil
	queueDepth.Set(0)
	e.mu.Unlock()

	e.cancel()
	e.logger.Debug().Int("dropped", dropped).Msg("Executor stopped")
}

// Stopped reports whether Stop has been called.
func (e *Executor) Stopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// Pending returns the number of queued tasks that have not started.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// Running reports whether a task is currently scheduled or in flight.
func (e *Executor) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// poll starts the next task if nothing is current.
func (e *Executor) poll() {
	e.mu.Lock()
	if e.running || e.stopped || len(e.tasks) == 0 {
		e.mu.Unlock()
		return
	}

	task := e.tasks[0]
	e.tasks[0] = nil
	e.tasks = e.tasks[1:]
	e.running = true
	interval := e.interval
	queueDepth.Set(float64(len(e.tasks)))
	e.mu.Unlock()

	go e.run(task, interval)
}

// run waits out the start delay, runs the task and polls for the next one.
func (e *Executor) run(task Task, interval time.Duration) {
	if interval > 0 {
		timer := time.NewTimer(interval)
		select {
		case <-e.ctx.Done():
			timer.Stop()
			tasksTotal.WithLabelValues("abandoned").Inc()
			return
		case <-timer.C:
		}
	}

	if e.Stopped() {
		tasksTotal.WithLabelValues("abandoned").Inc()
		return
	}

	e.invoke(task)

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()

	e.poll()
}

// invoke runs a task. A panic is logged and raised again, so it ends the
// process instead of leaving the queue stalled behind a half-run task.
func (e *Executor) invoke(task Task) {
	defer func() {
		if r := recover(); r != nil {
			tasksTotal.WithLabelValues("panicked").Inc()
			e.logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Task panicked")
			panic(r)
		}
	}()

	task(e.ctx)
	tasksTotal.WithLabelValues("completed").Inc()
}
