// File: internal/agent/prompt.go
package agent

import (
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

// systemPrompt is the fixed instruction describing the allowed action
// vocabulary and the required JSON shape. Responses that stray from it are
// sanitized or rejected; they can never reach the reducer unvalidated.
const systemPrompt = `You are the planner of 'feedpilot', an assistant that observes a social feed and proposes exactly one next action per cycle.
You receive the current run state as JSON and must respond with a single JSON object, no prose, no markdown.

Required response shape:
{"observe": string, "plan": string, "action": {"type": string, "targetItemId"?: string, "payload"?: {"draftText"?: string, "topic"?: string}, "reason": string, "expectedOutcome": string}, "resultPreview": string, "risk": "safe"|"medium"|"high", "confidence": number in [0,1]}

Allowed action types and their required fields:
- draft_post: payload.draftText
- draft_reply: targetItemId and payload.draftText
- bookmark_thread: targetItemId
- follow_topic: payload.topic
- mute_topic: payload.topic
- ask_user_approval: no required fields (attach payload.draftText when proposing text for review)
- skip: no required fields

Rules:
- Never propose an action for an item whose id is in seenItemIds or whose topic is in mutedTopics.
- Respect the policy goal, tone and riskTolerance.
- If no unseen, unmuted items remain, respond with a skip action and reason "no_relevant_posts".`

// stateView is the serialized subset of the run state the collaborator is
// allowed to see.
type stateView struct {
	Policy              schemas.Policy      `json:"policy"`
	Feed                []schemas.FeedItem  `json:"feed"`
	SeenItemIDs         []string            `json:"seenItemIds"`
	SavedTopics         []string            `json:"savedTopics"`
	MutedTopics         []string            `json:"mutedTopics"`
	DraftQueue          []schemas.DraftItem `json:"draftQueue"`
	Step                int                 `json:"step"`
	ConsecutiveFailures int                 `json:"consecutiveFailures"`
}

// buildUserPrompt serializes the run state view for the collaborator.
func buildUserPrompt(state schemas.RunState) (string, error) {
	view := stateView{
		Policy:              state.Policy,
		Feed:                state.Feed,
		SeenItemIDs:         state.SeenItemIDs,
		SavedTopics:         state.SavedTopics,
		MutedTopics:         state.MutedTopics,
		DraftQueue:          state.DraftQueue,
		Step:                state.Step,
		ConsecutiveFailures: state.ConsecutiveFailures,
	}

	serialized, err := json.MarshalToString(view)
	if err != nil {
		return "", fmt.Errorf("failed to serialize run state view: %w", err)
	}
	return "Current run state:\n" + serialized, nil
}
