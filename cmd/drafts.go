// File: cmd/drafts.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/feedpilot/feedpilot-cli/internal/observability"
	"github.com/feedpilot/feedpilot-cli/internal/store"
)

var (
	draftsRunID   string
	draftsApprove string
	draftsReject  string
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect, approve or reject queued drafts on a stored run snapshot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		if cmd.Flags().Changed("snapshot-dir") {
			cfg.Runner.SnapshotDir = runSnapshotDir
		}
		if cfg.Runner.SnapshotDir == "" {
			return fmt.Errorf("drafts requires runner.snapshot_dir (or --snapshot-dir)")
		}
		snapshots, err := store.New(cfg.Runner.SnapshotDir, logger)
		if err != nil {
			return err
		}

		if draftsRunID == "" {
			runIDs, err := snapshots.List()
			if err != nil {
				return err
			}
			if len(runIDs) == 0 {
				fmt.Println("No run snapshots found.")
				return nil
			}
			fmt.Println("Stored runs:")
			for _, id := range runIDs {
				fmt.Printf("  - %s\n", id)
			}
			return nil
		}

		state, err := snapshots.Load(draftsRunID)
		if err != nil {
			return err
		}

		switch {
		case draftsApprove != "":
			draft, ok := state.ApproveDraft(draftsApprove)
			if !ok {
				return fmt.Errorf("draft %s not found on run %s", draftsApprove, draftsRunID)
			}
			if _, err := snapshots.Save(state); err != nil {
				return err
			}
			logger.Info("Draft approved", zap.String("draft_id", draft.ID), zap.String("run_id", draftsRunID))
			fmt.Printf("Approved %s (%s):\n%s\n", draft.ID, draft.Kind, draft.Text)

		case draftsReject != "":
			if !state.RejectDraft(draftsReject) {
				return fmt.Errorf("draft %s not found on run %s", draftsReject, draftsRunID)
			}
			if _, err := snapshots.Save(state); err != nil {
				return err
			}
			logger.Info("Draft rejected", zap.String("draft_id", draftsReject), zap.String("run_id", draftsRunID))
			fmt.Printf("Rejected %s\n", draftsReject)

		default:
			if len(state.DraftQueue) == 0 {
				fmt.Printf("Run %s has no queued drafts.\n", draftsRunID)
				return nil
			}
			fmt.Printf("Drafts queued on %s:\n", draftsRunID)
			for _, d := range state.DraftQueue {
				fmt.Printf("  - %s (%s): %s\n", d.ID, d.Kind, d.Text)
			}
		}
		return nil
	},
}

func init() {
	draftsCmd.Flags().StringVar(&draftsRunID, "run", "", "run id of the snapshot to inspect")
	draftsCmd.Flags().StringVar(&draftsApprove, "approve", "", "draft id to approve and remove from the queue")
	draftsCmd.Flags().StringVar(&draftsReject, "reject", "", "draft id to reject and remove from the queue")
	draftsCmd.Flags().StringVar(&runSnapshotDir, "snapshot-dir", "", "directory holding run snapshots")
	rootCmd.AddCommand(draftsCmd)
}
