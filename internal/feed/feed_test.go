// File: internal/feed/feed_test.go
package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

func itemAt(id string, createdAt time.Time) schemas.FeedItem {
	return schemas.FeedItem{
		ID:        id,
		Author:    "author-" + id,
		Text:      "text " + id,
		Topic:     "infra",
		Sentiment: schemas.SentimentNeutral,
		CreatedAt: createdAt,
	}
}

func TestMerge(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("orders newest first", func(t *testing.T) {
		merged := Merge(
			[]schemas.FeedItem{itemAt("old", base.Add(-time.Hour)), itemAt("new", base)},
			[]schemas.FeedItem{itemAt("middle", base.Add(-30 * time.Minute))},
		)
		require.Len(t, merged, 3)
		assert.Equal(t, "new", merged[0].ID)
		assert.Equal(t, "middle", merged[1].ID)
		assert.Equal(t, "old", merged[2].ID)
	})

	t.Run("deduplicates by id with first occurrence winning", func(t *testing.T) {
		original := itemAt("p1", base)
		original.Text = "original text"
		updated := itemAt("p1", base)
		updated.Text = "updated text"

		merged := Merge([]schemas.FeedItem{original}, []schemas.FeedItem{updated})
		require.Len(t, merged, 1)
		assert.Equal(t, "original text", merged[0].Text)
	})

	t.Run("equal timestamps keep relative order", func(t *testing.T) {
		merged := Merge(
			[]schemas.FeedItem{itemAt("a", base), itemAt("b", base)},
			[]schemas.FeedItem{itemAt("c", base)},
		)
		assert.Equal(t, "a", merged[0].ID)
		assert.Equal(t, "b", merged[1].ID)
		assert.Equal(t, "c", merged[2].ID)
	})

	t.Run("nil inputs are fine", func(t *testing.T) {
		assert.Empty(t, Merge(nil, nil))
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("reads and orders a snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "feed.json")
		content := `[
			{"id": "p1", "author": "a", "text": "t", "topic": "infra", "sentiment": "neutral", "engagementScore": 10, "createdAt": "2026-08-30T10:00:00Z"},
			{"id": "p2", "author": "b", "text": "t", "topic": "infra", "sentiment": "positive", "engagementScore": 20, "createdAt": "2026-08-30T11:00:00Z"}
		]`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		items, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "p2", items[0].ID, "newest item comes first")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read feed file")
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{not an array"), 0o644))

		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse feed file")
	})
}

func TestSample(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	first := Sample(now)
	second := Sample(now)
	assert.Equal(t, first, second, "the sample feed is deterministic for a fixed anchor")

	require.Len(t, first, 6)
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].CreatedAt.After(first[i-1].CreatedAt), "items must be newest first")
	}

	// One item deliberately trips the spam vocabulary.
	spamCount := 0
	for _, item := range first {
		if item.ID == "post-flux-04" {
			spamCount++
			assert.Contains(t, item.Text, "Guaranteed 1000x")
		}
	}
	assert.Equal(t, 1, spamCount)
}
