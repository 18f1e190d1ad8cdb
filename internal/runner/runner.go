// File: internal/runner/runner.go
// Description: The driving loop around the pure core. The runner owns its
// schedule (injected clock, no ambient globals), guarantees at most one
// in-flight cycle per run, and maps operator controls 1:1 onto run status
// transitions. The reducer assumes single-writer semantics; the in-flight
// guard here is what provides them.

package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
	"github.com/feedpilot/feedpilot-cli/internal/agent"
	"github.com/feedpilot/feedpilot-cli/internal/config"
	"github.com/feedpilot/feedpilot-cli/internal/reducer"
)

// ErrCycleInFlight is returned when a tick arrives while the previous cycle
// is still executing. Callers skip the tick; they never queue.
var ErrCycleInFlight = errors.New("a cycle is already in flight for this run")

// Clock abstracts scheduling so tests can drive ticks manually.
type Clock interface {
	Now() time.Time
	// Tick returns a tick channel for the given interval and a stop function
	// releasing its resources.
	Tick(interval time.Duration) (<-chan time.Time, func())
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Tick(interval time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(interval)
	return ticker.C, ticker.Stop
}

// Option is a function that configures a Runner.
type Option func(*Runner)

// WithClock injects a custom clock. This is primarily used for testing.
func WithClock(clock Clock) Option {
	return func(r *Runner) {
		r.clock = clock
	}
}

// WithLimiter injects a custom rate limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(r *Runner) {
		r.limiter = limiter
	}
}

// Runner drives one run from idle to a terminal status.
type Runner struct {
	adapter  *agent.PlannerAdapter
	logger   *zap.Logger
	clock    Clock
	limiter  *rate.Limiter
	interval time.Duration

	mu       sync.Mutex
	state    schemas.RunState
	inFlight bool
	loopOn   bool

	quit     chan struct{}
	quitOnce sync.Once
	done     chan schemas.RunState
	doneOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a runner over an initial run state.
func New(cfg config.RunnerConfig, adapter *agent.PlannerAdapter, initial schemas.RunState, logger *zap.Logger, opts ...Option) (*Runner, error) {
	if adapter == nil {
		return nil, fmt.Errorf("cannot initialize runner with a nil planner adapter")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		if cfg.RateBurst > 0 {
			burst = cfg.RateBurst
		}
	}

	r := &Runner{
		adapter:  adapter,
		logger:   logger.Named("runner").With(zap.String("run_id", initial.RunID)),
		clock:    systemClock{},
		limiter:  rate.NewLimiter(limit, burst),
		interval: interval,
		state:    initial,
		quit:     make(chan struct{}),
		done:     make(chan schemas.RunState, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// State returns a deep copy of the current run state.
func (r *Runner) State() schemas.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Done delivers the terminal run state exactly once.
func (r *Runner) Done() <-chan schemas.RunState {
	return r.done
}

// Start transitions the run to running and launches the tick loop if one is
// not alive. Starting a terminal or shut-down run is an error.
func (r *Runner) Start(ctx context.Context) error {
	select {
	case <-r.quit:
		return fmt.Errorf("runner is shut down")
	default:
	}

	r.mu.Lock()
	if r.state.IsTerminal() {
		status := r.state.Status
		r.mu.Unlock()
		return fmt.Errorf("run already ended with status %s", status)
	}
	r.state.Status = schemas.StatusRunning
	spawn := !r.loopOn
	if spawn {
		r.loopOn = true
		r.wg.Add(1)
	}
	r.mu.Unlock()

	if spawn {
		go r.loop(ctx)
	}
	r.logger.Info("Run started", zap.Duration("interval", r.interval))
	return nil
}

// Stop pauses the run. The loop keeps ticking but executes no cycles until
// Start is called again. No-op on terminal runs.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.IsTerminal() {
		return
	}
	r.state.Status = schemas.StatusStopped
}

// Cancel is the driver-level manual stop: the run is marked stopped with the
// manual_stop end reason, the loop exits, and that state is delivered on
// Done. A cancelled runner is frozen; Start fails and Step executes nothing,
// so the delivered state is always the run's last.
func (r *Runner) Cancel() {
	r.mu.Lock()
	if !r.state.IsTerminal() {
		r.state.Status = schemas.StatusStopped
		r.state.EndReason = schemas.StopManualStop
	}
	final := r.state.Clone()
	r.mu.Unlock()

	r.quitOnce.Do(func() { close(r.quit) })
	r.deliver(final)
	r.logger.Info("Run cancelled by operator")
}

// Shutdown stops the loop and waits for it to exit. It does not alter run
// state, but the runner is frozen afterwards; use Cancel for the
// operator-facing manual stop.
func (r *Runner) Shutdown() {
	r.quitOnce.Do(func() { close(r.quit) })
	r.wg.Wait()
}

// Reset reinitializes the run to idle over a fresh feed snapshot with a new
// run id, preserving the current policy.
func (r *Runner) Reset(feedItems []schemas.FeedItem) schemas.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = reducer.NewRunState(feedItems, r.state.Policy)
	r.logger.Info("Run reset", zap.String("new_run_id", r.state.RunID))
	return r.state.Clone()
}

// Step executes exactly one cycle synchronously, leaving the run status as
// the reducer computes it. It returns ErrCycleInFlight when a cycle is
// already executing; a terminal, cancelled or shut-down run is returned
// unchanged.
func (r *Runner) Step(ctx context.Context) (schemas.RunState, error) {
	r.mu.Lock()
	if r.state.IsTerminal() {
		final := r.state.Clone()
		r.mu.Unlock()
		return final, nil
	}
	select {
	case <-r.quit:
		final := r.state.Clone()
		r.mu.Unlock()
		return final, nil
	default:
	}
	if r.inFlight {
		r.mu.Unlock()
		return schemas.RunState{}, ErrCycleInFlight
	}
	r.inFlight = true
	snapshot := r.state.Clone()
	r.mu.Unlock()

	startedAt := r.clock.Now()
	result := r.adapter.GetNextCycle(ctx, snapshot)
	next := reducer.Apply(snapshot, result.Cycle, reducer.Meta{
		PlannerSource: result.Source,
		LatencyMs:     result.LatencyMs,
	})

	r.mu.Lock()
	r.state = next
	r.inFlight = false
	final := next.Clone()
	r.mu.Unlock()

	if result.Warning != "" {
		r.logger.Warn("Cycle produced with fallback", zap.String("warning", result.Warning))
	}
	lastLog := final.Logs[len(final.Logs)-1]
	r.logger.Info("Cycle applied",
		zap.Int("step", final.Step),
		zap.String("action", string(lastLog.Action.Type)),
		zap.String("risk", string(lastLog.Risk)),
		zap.Float64("confidence", lastLog.Confidence),
		zap.Bool("success", lastLog.Success),
		zap.String("planner_source", string(lastLog.PlannerSource)),
		zap.String("stop_triggered", string(lastLog.StopTriggered)),
		zap.Duration("cycle_duration", r.clock.Now().Sub(startedAt)),
	)

	if final.IsTerminal() {
		r.deliver(final)
	}
	return final, nil
}

// loop executes cycles on the clock's schedule while the run is running. On
// exit it releases loopOn so a later Start spawns a fresh loop.
func (r *Runner) loop(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		r.loopOn = false
		r.mu.Unlock()
		r.wg.Done()
	}()
	ticks, stopTicks := r.clock.Tick(r.interval)
	defer stopTicks()

	for {
		select {
		case <-ctx.Done():
			r.markManualStop()
			return
		case <-r.quit:
			return
		case <-ticks:
			r.mu.Lock()
			running := r.state.Status == schemas.StatusRunning
			r.mu.Unlock()
			if !running {
				continue
			}
			if !r.limiter.Allow() {
				r.logger.Debug("Tick skipped by rate limiter")
				continue
			}

			next, err := r.Step(ctx)
			if err != nil {
				// Only the in-flight guard produces an error; skip the tick.
				continue
			}
			if next.IsTerminal() {
				r.logger.Info("Run reached terminal status",
					zap.String("status", string(next.Status)),
					zap.String("end_reason", string(next.EndReason)),
				)
				return
			}
		}
	}
}

// markManualStop records the driver-initiated stop when the surrounding
// context is cancelled mid-run.
func (r *Runner) markManualStop() {
	r.mu.Lock()
	if !r.state.IsTerminal() {
		r.state.Status = schemas.StatusStopped
		r.state.EndReason = schemas.StopManualStop
	}
	final := r.state.Clone()
	r.mu.Unlock()
	r.deliver(final)
}

func (r *Runner) deliver(final schemas.RunState) {
	r.doneOnce.Do(func() {
		r.done <- final
	})
}
