// Package worker runs periodic maintenance in the background: expired
// session state, idle schema cache entries and unused edit guards are
// dropped on a fixed interval.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/tradedesk/internal/metrics"
)

// Worker runs registered tasks on a fixed interval.
type Worker struct {
	config Config
	logger *slog.Logger

	mu       sync.Mutex
	tasks    []Task
	disabled map[string]bool

	// Synchronization
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a new Worker with the given configuration.
// The worker must be started with Start() and stopped with Stop().
func New(config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		config:   config,
		logger:   logger,
		disabled: make(map[string]bool),
		stopCh:   make(chan struct{}),
	}, nil
}

// Register adds a task. Task names must be unique. Call this before Start().
func (w *Worker) Register(task Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, t := range w.tasks {
		if t.Name() == task.Name() {
			w.logger.Warn("Overwriting existing task", "task", task.Name())
			w.tasks[i] = task
			return
		}
	}
	w.tasks = append(w.tasks, task)
	w.logger.Debug("Registered task", "task", task.Name())
}

// Start runs a pass every Interval until Stop is called or ctx ends.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
	w.logger.Info("Worker started", "interval", w.config.Interval, "tasks", len(w.tasks))
}

// Stop signals the loop to stop and waits for a running pass to finish.
// It respects the configured ShutdownTimeout.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopCh) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timeout exceeded, a task may still be running")
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs every enabled task once, one after another, and returns the
// number of items each removed. A failing task does not stop the pass.
func (w *Worker) RunOnce(ctx context.Context) map[string]int64 {
	w.mu.Lock()
	tasks := make([]Task, 0, len(w.tasks))
	for _, t := range w.tasks {
		if !w.disabled[t.Name()] {
			tasks = append(tasks, t)
		}
	}
	w.mu.Unlock()

	removed := make(map[string]int64, len(tasks))
	for _, t := range tasks {
		start := time.Now()
		n, err := w.run(ctx, t)
		if err != nil {
			logger := w.logger.With("task", t.Name(), "error", err)
			metrics.TaskFailed(t.Name(), IsPermanent(err))
			if IsPermanent(err) {
				logger.Error("Task failed permanently, removing it from the schedule")
				w.mu.Lock()
				w.disabled[t.Name()] = true
				w.mu.Unlock()
			} else {
				logger.Error("Task failed")
			}
			continue
		}
		removed[t.Name()] = n
		metrics.TaskCompleted(t.Name(), n, time.Since(start))
		if n > 0 {
			w.logger.Info("Task completed", "task", t.Name(), "removed", n)
		}
	}
	return removed
}

// run executes one task with the task timeout.
func (w *Worker) run(ctx context.Context, t Task) (int64, error) {
	taskCtx, cancel := context.WithTimeout(ctx, w.config.TaskTimeout)
	defer cancel()
	return t.Run(taskCtx)
}
