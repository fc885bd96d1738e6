// Package runner provides a thin execution harness around flows and agents:
// per-run ids, bounded execution time, cancellation, and run-scoped logging.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
)

// Target is anything that executes a request end to end. flow.Flow satisfies
// it directly; agents are wrapped with AgentTarget.
type Target interface {
	Execute(ctx context.Context, input string) (string, error)
}

// AgentTarget adapts an agent's Run signature to the Target interface.
type AgentTarget struct {
	Agent interface {
		Run(ctx context.Context, request string) (string, error)
	}
}

// Execute implements Target.
func (t AgentTarget) Execute(ctx context.Context, input string) (string, error) {
	return t.Agent.Run(ctx, input)
}

// Options holds configuration overrides passed to New.
type Options struct {
	// Timeout bounds a single run; zero means no bound beyond ctx.
	Timeout time.Duration
	Logger  *logging.RunLogger
}

// Result captures the outcome of one run.
type Result struct {
	RunID    string
	Output   string
	Duration time.Duration
}

// Runner executes a target per request, tracking active runs so they can be
// cancelled individually. Public methods are safe for concurrent use.
type Runner struct {
	target  Target
	timeout time.Duration
	logger  *logging.RunLogger

	mu         sync.Mutex
	activeRuns map[string]context.CancelFunc
}

// New constructs a Runner with optional overrides.
func New(target Target, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger: logging.NewRunLogger(nil),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		target:     target,
		timeout:    opts.Timeout,
		logger:     opts.Logger.WithComponent("runner"),
		activeRuns: make(map[string]context.CancelFunc),
	}
}

// Run executes one request against the target and blocks until it completes,
// fails, or is cancelled.
func (r *Runner) Run(ctx context.Context, input string) (*Result, error) {
	runID := core.NewID()
	logger := r.logger.WithRun(runID)

	ctx, cancel := context.WithCancel(ctx)
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	}

	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		delete(r.activeRuns, runID)
		r.mu.Unlock()
	}()

	logger.Info("run started", "input_len", len(input))
	start := time.Now()

	output, err := r.target.Execute(ctx, input)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error("run failed", "duration_ms", elapsed.Milliseconds(), "error", err.Error())
		return nil, fmt.Errorf("run %s failed: %w", runID, err)
	}

	logger.Info("run completed", "duration_ms", elapsed.Milliseconds())

	return &Result{RunID: runID, Output: output, Duration: elapsed}, nil
}

// Cancel aborts an active run. It reports whether the run id was known.
func (r *Runner) Cancel(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancel, ok := r.activeRuns[runID]
	if ok {
		cancel()
	}
	return ok
}

// ActiveRuns returns the ids of runs currently in flight.
func (r *Runner) ActiveRuns() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.activeRuns))
	for id := range r.activeRuns {
		ids = append(ids, id)
	}
	return ids
}
