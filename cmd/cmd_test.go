// File: cmd/cmd_test.go
package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name {
			return cmd
		}
	}
	t.Fatalf("command %q is not registered on the root command", name)
	return nil
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "feedpilot", rootCmd.Name())
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.Equal(t, Version, rootCmd.Version)
}

func TestRunCommandFlags(t *testing.T) {
	run := findCommand(t, "run")

	for _, flag := range []string{
		"goal",
		"tone",
		"risk-tolerance",
		"planner",
		"max-actions",
		"interval",
		"feed",
		"snapshot-dir",
	} {
		assert.NotNil(t, run.Flags().Lookup(flag), "run must expose --%s", flag)
	}
}

func TestDraftsCommandFlags(t *testing.T) {
	drafts := findCommand(t, "drafts")

	for _, flag := range []string{"run", "approve", "reject", "snapshot-dir"} {
		assert.NotNil(t, drafts.Flags().Lookup(flag), "drafts must expose --%s", flag)
	}
}

func TestArenaCommandFlags(t *testing.T) {
	arena := findCommand(t, "arena")

	runsFlag := arena.Flags().Lookup("runs")
	require.NotNil(t, runsFlag)
	assert.Equal(t, "2", runsFlag.DefValue)
	assert.NotNil(t, arena.Flags().Lookup("feed"))
}
