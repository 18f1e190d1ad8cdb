// File: internal/store/store_test.go
package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

func snapshotFixture() schemas.RunState {
	return schemas.RunState{
		RunID:  "run-abc12345",
		Status: schemas.StatusFinished,
		Step:   2,
		Policy: schemas.DefaultPolicy(),
		Feed: []schemas.FeedItem{
			{
				ID:              "p1",
				Author:          "aurora",
				Text:            "Indexer shipped.",
				Topic:           "infra",
				Sentiment:       schemas.SentimentPositive,
				EngagementScore: 60,
				CreatedAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			},
		},
		SeenItemIDs: []string{"p1"},
		SavedTopics: []string{"infra"},
		MutedTopics: []string{},
		DraftQueue:  []schemas.DraftItem{{ID: "draft-1", Kind: schemas.DraftReply, Text: "hi", TargetItemID: "p1"}},
		Logs: []schemas.LogEntry{
			{Step: 1, Action: schemas.Action{Type: schemas.ActionFollowTopic}, Success: true, PlannerSource: schemas.SourceRule},
			{Step: 2, Action: schemas.Action{Type: schemas.ActionSkip}, Success: true, StopTriggered: schemas.StopMaxActionsReached},
		},
		EndReason: schemas.StopMaxActionsReached,
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store, err := New(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)

	state := snapshotFixture()
	path, err := store.Save(state)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := store.Load(state.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(state, loaded); diff != "" {
		t.Fatalf("snapshot changed across save/load (-want +got):\n%s", diff)
	}
}

func TestStore_SaveRequiresRunID(t *testing.T) {
	store, err := New(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = store.Save(schemas.RunState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no runId")
}

func TestStore_LoadMissingSnapshot(t *testing.T) {
	store, err := New(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = store.Load("run-nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read snapshot")
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	first := snapshotFixture()
	second := snapshotFixture()
	second.RunID = "run-def67890"

	_, err = store.Save(first)
	require.NoError(t, err)
	_, err = store.Save(second)
	require.NoError(t, err)

	// Non-snapshot files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	runIDs, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"run-abc12345", "run-def67890"}, runIDs)
}

func TestStore_NewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	_, err := New(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestStore_NewRequiresDirectory(t *testing.T) {
	_, err := New("", zaptest.NewLogger(t))
	require.Error(t, err)
}
