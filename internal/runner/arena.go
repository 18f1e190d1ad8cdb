// File: internal/runner/arena.go
package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

// Arena executes several independent runs in parallel. Run states share
// nothing, so the only coordination needed is lifecycle fan-in.
type Arena struct {
	runners []*Runner
	logger  *zap.Logger
}

// NewArena creates an arena over the given runners.
func NewArena(logger *zap.Logger, runners ...*Runner) (*Arena, error) {
	if len(runners) == 0 {
		return nil, fmt.Errorf("arena requires at least one runner")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Arena{
		runners: runners,
		logger:  logger.Named("arena"),
	}, nil
}

// Run starts every runner and blocks until all of them reach a terminal
// status or the context is cancelled. Each run's final state is returned in
// runner order.
func (a *Arena) Run(ctx context.Context) ([]schemas.RunState, error) {
	a.logger.Info("Arena starting", zap.Int("runs", len(a.runners)))

	finals := make([]schemas.RunState, len(a.runners))
	g, gctx := errgroup.WithContext(ctx)

	for i, r := range a.runners {
		i, r := i, r
		g.Go(func() error {
			if err := r.Start(gctx); err != nil {
				return fmt.Errorf("failed to start run: %w", err)
			}
			defer r.Shutdown()

			select {
			case final := <-r.Done():
				finals[i] = final
				return nil
			case <-gctx.Done():
				finals[i] = r.State()
				return gctx.Err()
			}
		})
	}

	err := g.Wait()
	a.logger.Info("Arena finished", zap.Int("runs", len(a.runners)), zap.Error(err))
	return finals, err
}
