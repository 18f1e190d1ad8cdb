// File: cmd/arena.go
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/feedpilot/feedpilot-cli/internal/observability"
	"github.com/feedpilot/feedpilot-cli/internal/reducer"
	"github.com/feedpilot/feedpilot-cli/internal/runner"
	"github.com/feedpilot/feedpilot-cli/internal/store"
)

var arenaRuns int

var arenaCmd = &cobra.Command{
	Use:   "arena",
	Short: "Execute several independent runs in parallel and compare outcomes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		if arenaRuns < 1 {
			return fmt.Errorf("--runs must be at least 1, got %d", arenaRuns)
		}
		if cmd.Flags().Changed("feed") {
			cfg.Feed.File = runFeedFile
		}

		feedItems, err := loadFeed()
		if err != nil {
			return err
		}

		runners := make([]*runner.Runner, 0, arenaRuns)
		for i := 0; i < arenaRuns; i++ {
			adapter, err := buildPlannerAdapter(logger)
			if err != nil {
				return err
			}
			initial := reducer.NewRunState(feedItems, cfg.RunPolicy())
			r, err := runner.New(cfg.Runner, adapter, initial, logger)
			if err != nil {
				return err
			}
			runners = append(runners, r)
		}

		arena, err := runner.NewArena(logger, runners...)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		finals, err := arena.Run(ctx)
		if err != nil {
			logger.Warn("Arena ended early", zap.Error(err))
		}

		fmt.Printf("\nArena results (%d runs):\n", len(finals))
		for i, final := range finals {
			fmt.Printf("  run %d: id=%s status=%s reason=%s steps=%d drafts=%d saved=%d muted=%d\n",
				i+1, final.RunID, final.Status, final.EndReason, final.Step,
				len(final.DraftQueue), len(final.SavedTopics), len(final.MutedTopics))
		}

		if cfg.Runner.SnapshotDir != "" {
			snapshots, err := store.New(cfg.Runner.SnapshotDir, logger)
			if err != nil {
				return err
			}
			for _, final := range finals {
				if final.RunID == "" {
					continue
				}
				if _, err := snapshots.Save(final); err != nil {
					return err
				}
			}
			logger.Info("Arena snapshots written", zap.String("dir", cfg.Runner.SnapshotDir))
		}
		return nil
	},
}

func init() {
	arenaCmd.Flags().IntVar(&arenaRuns, "runs", 2, "number of parallel independent runs")
	arenaCmd.Flags().StringVar(&runFeedFile, "feed", "", "path to a JSON feed snapshot (default: built-in sample feed)")
	rootCmd.AddCommand(arenaCmd)
}
