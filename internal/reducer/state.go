// File: internal/reducer/state.go
package reducer

import (
	"github.com/google/uuid"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

// NewRunState creates an idle run over an initial feed snapshot. Derived
// collections start empty but non-nil so serialization is stable from the
// first byte.
func NewRunState(feed []schemas.FeedItem, policy schemas.Policy) schemas.RunState {
	if policy.MaxAutoActions < 1 {
		policy.MaxAutoActions = 1
	}
	return schemas.RunState{
		RunID:       "run-" + uuid.NewString()[:8],
		Status:      schemas.StatusIdle,
		Policy:      policy,
		Feed:        append([]schemas.FeedItem(nil), feed...),
		SeenItemIDs: []string{},
		SavedTopics: []string{},
		MutedTopics: []string{},
		DraftQueue:  []schemas.DraftItem{},
		Logs:        []schemas.LogEntry{},
	}
}
