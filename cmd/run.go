// File: cmd/run.go
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
	"github.com/feedpilot/feedpilot-cli/internal/agent"
	"github.com/feedpilot/feedpilot-cli/internal/feed"
	"github.com/feedpilot/feedpilot-cli/internal/llmclient"
	"github.com/feedpilot/feedpilot-cli/internal/observability"
	"github.com/feedpilot/feedpilot-cli/internal/planner"
	"github.com/feedpilot/feedpilot-cli/internal/reducer"
	"github.com/feedpilot/feedpilot-cli/internal/runner"
	"github.com/feedpilot/feedpilot-cli/internal/store"
)

var (
	runGoal          string
	runTone          string
	runRiskTolerance string
	runPlannerMode   string
	runMaxActions    int
	runInterval      time.Duration
	runFeedFile      string
	runSnapshotDir   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one agent run from idle to a terminal status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		applyRunFlagOverrides(cmd)

		feedItems, err := loadFeed()
		if err != nil {
			return err
		}

		adapter, err := buildPlannerAdapter(logger)
		if err != nil {
			return err
		}

		initial := reducer.NewRunState(feedItems, cfg.RunPolicy())
		r, err := runner.New(cfg.Runner, adapter, initial, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := r.Start(ctx); err != nil {
			return err
		}
		defer r.Shutdown()

		final := <-r.Done()
		printRunSummary(final)

		if cfg.Runner.SnapshotDir != "" {
			snapshots, err := store.New(cfg.Runner.SnapshotDir, logger)
			if err != nil {
				return err
			}
			path, err := snapshots.Save(final)
			if err != nil {
				return err
			}
			logger.Info("Snapshot written", zap.String("path", path))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runGoal, "goal", "", "run goal: discover, engage or broadcast")
	runCmd.Flags().StringVar(&runTone, "tone", "", "draft tone: neutral, friendly or technical")
	runCmd.Flags().StringVar(&runRiskTolerance, "risk-tolerance", "", "risk tolerance: low, medium or high")
	runCmd.Flags().StringVar(&runPlannerMode, "planner", "", "planner mode: rule or external")
	runCmd.Flags().IntVar(&runMaxActions, "max-actions", 0, "maximum automatic actions before the run finishes")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "delay between cycles")
	runCmd.Flags().StringVar(&runFeedFile, "feed", "", "path to a JSON feed snapshot (default: built-in sample feed)")
	runCmd.Flags().StringVar(&runSnapshotDir, "snapshot-dir", "", "directory to write the terminal run snapshot to")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlagOverrides merges set flags over the loaded configuration.
func applyRunFlagOverrides(cmd *cobra.Command) {
	if cmd.Flags().Changed("goal") {
		cfg.Policy.Goal = runGoal
	}
	if cmd.Flags().Changed("tone") {
		cfg.Policy.Tone = runTone
	}
	if cmd.Flags().Changed("risk-tolerance") {
		cfg.Policy.RiskTolerance = runRiskTolerance
	}
	if cmd.Flags().Changed("planner") {
		cfg.Planner.Mode = runPlannerMode
	}
	if cmd.Flags().Changed("max-actions") {
		cfg.Policy.MaxAutoActions = runMaxActions
	}
	if cmd.Flags().Changed("interval") {
		cfg.Runner.Interval = runInterval
	}
	if cmd.Flags().Changed("feed") {
		cfg.Feed.File = runFeedFile
	}
	if cmd.Flags().Changed("snapshot-dir") {
		cfg.Runner.SnapshotDir = runSnapshotDir
	}
}

func loadFeed() ([]schemas.FeedItem, error) {
	if cfg.Feed.File != "" {
		return feed.LoadFile(cfg.Feed.File)
	}
	return feed.Sample(time.Now().UTC()), nil
}

// buildPlannerAdapter wires the rule planner and, in external mode, the
// configured text-completion backend.
func buildPlannerAdapter(logger *zap.Logger) (*agent.PlannerAdapter, error) {
	rule := planner.NewRulePlanner(logger)

	var completer schemas.TextCompleter
	if schemas.PlannerMode(cfg.Planner.Mode) == schemas.PlannerModeExternal {
		var err error
		completer, err = llmclient.NewCompleter(cfg.LLM, logger)
		if err != nil {
			return nil, fmt.Errorf("external planner mode requires a working completer: %w", err)
		}
	}

	return agent.NewPlannerAdapter(cfg.Planner, logger, rule, completer)
}

// printRunSummary writes the human-facing end-of-run report to stdout.
func printRunSummary(final schemas.RunState) {
	fmt.Printf("\nRun %s ended: status=%s reason=%s steps=%d\n", final.RunID, final.Status, final.EndReason, final.Step)

	fmt.Println("\nAction log:")
	for _, entry := range final.Logs {
		marker := "ok"
		if !entry.Success {
			marker = "failed"
		}
		fmt.Printf("  %2d. [%s] %s (risk=%s confidence=%.2f source=%s) %s\n",
			entry.Step, marker, entry.Action.Type, entry.Risk, entry.Confidence, entry.PlannerSource, entry.Result)
	}

	if len(final.DraftQueue) > 0 {
		fmt.Println("\nDrafts awaiting approval:")
		for _, d := range final.DraftQueue {
			fmt.Printf("  - %s (%s): %s\n", d.ID, d.Kind, d.Text)
		}
	}
	if len(final.SavedTopics) > 0 {
		fmt.Printf("\nSaved topics: %v\n", final.SavedTopics)
	}
	if len(final.MutedTopics) > 0 {
		fmt.Printf("Muted topics: %v\n", final.MutedTopics)
	}
}
