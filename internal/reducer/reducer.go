// File: internal/reducer/reducer.go
// Description: The run state machine. Apply is the only way a RunState
// transitions after creation; it is pure and performs no I/O, which keeps
// every stop-condition path unit-testable.

package reducer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
	"github.com/feedpilot/feedpilot-cli/internal/risk"
)

// Meta carries provenance about how the cycle was produced.
type Meta struct {
	PlannerSource schemas.PlannerSource
	LatencyMs     int64
}

// Allows for deterministic draft IDs in tests.
var newDraftID = func() string {
	return "draft-" + uuid.NewString()[:8]
}

// appendUnique adds value to values if it is non-empty and not yet present.
func appendUnique(values []string, value string) []string {
	if value == "" {
		return values
	}
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}

// removeString filters value out of values, preserving order.
func removeString(values []string, value string) []string {
	out := values[:0:0]
	for _, existing := range values {
		if existing != value {
			out = append(out, existing)
		}
	}
	return out
}

// isNoRelevantSkip reports whether a skip action signals the empty candidate
// pool. The explicit reason code is authoritative; the substring checks keep
// compatibility with external planners that only emit the legacy strings.
func isNoRelevantSkip(cycle schemas.CycleOutput) bool {
	if cycle.Action.Type != schemas.ActionSkip {
		return false
	}
	if cycle.Action.ReasonCode == schemas.ReasonNoRelevantPosts {
		return true
	}
	return strings.Contains(cycle.Action.Reason, "no_relevant") ||
		strings.Contains(cycle.Observe, "No unseen posts")
}

// Apply validates the proposed cycle, folds its side effects into a new run
// state, evaluates stop conditions in priority order, and appends exactly one
// log entry. Applying to a terminal state returns the input unchanged, which
// guards against duplicate ticks racing a just-finished run.
//
// Stop-condition priority, highest first: duplicate content and the
// no-relevant sentinel (detected while executing the action), then high risk,
// then low confidence, then the failure streak, then the action budget.
func Apply(state schemas.RunState, cycle schemas.CycleOutput, meta Meta) schemas.RunState {
	if state.IsTerminal() {
		return state
	}

	next := state.Clone()
	next.Step = state.Step + 1

	result := cycle.ResultPreview
	success := true
	var stopTriggered schemas.StopReason

	if err := cycle.Action.Validate(); err != nil {
		// Shape violations fail the cycle but leave seen/topics/drafts alone.
		success = false
		result = fmt.Sprintf("Simulation failed: %s.", err)
	} else {
		next.SeenItemIDs = appendUnique(next.SeenItemIDs, cycle.Action.TargetItemID)

		switch cycle.Action.Type {
		case schemas.ActionDraftPost, schemas.ActionDraftReply:
			draftText := cycle.Action.DraftText()
			if risk.IsDuplicateDraft(draftText, next.DraftQueue) {
				success = false
				stopTriggered = schemas.StopDuplicateContent
				result = "Simulation halted due to duplicate draft content."
			} else {
				kind := schemas.DraftPost
				if cycle.Action.Type == schemas.ActionDraftReply {
					kind = schemas.DraftReply
				}
				next.DraftQueue = append(next.DraftQueue, schemas.DraftItem{
					ID:           newDraftID(),
					Kind:         kind,
					Text:         draftText,
					TargetItemID: cycle.Action.TargetItemID,
				})
			}

		case schemas.ActionAskUserApproval:
			if draftText := cycle.Action.DraftText(); draftText != "" {
				if risk.IsDuplicateDraft(draftText, next.DraftQueue) {
					success = false
					stopTriggered = schemas.StopDuplicateContent
					result = "Approval request matched an existing draft and was blocked."
				} else {
					kind := schemas.DraftPost
					if cycle.Action.TargetItemID != "" {
						kind = schemas.DraftReply
					}
					next.DraftQueue = append(next.DraftQueue, schemas.DraftItem{
						ID:           newDraftID(),
						Kind:         kind,
						Text:         draftText,
						TargetItemID: cycle.Action.TargetItemID,
					})
				}
			}

		case schemas.ActionFollowTopic:
			topic := cycle.Action.Topic()
			if topic == "" {
				topic, _ = state.TopicForItem(cycle.Action.TargetItemID)
			}
			next.SavedTopics = appendUnique(next.SavedTopics, topic)

		case schemas.ActionMuteTopic:
			topic := cycle.Action.Topic()
			if topic == "" {
				topic, _ = state.TopicForItem(cycle.Action.TargetItemID)
			}
			next.MutedTopics = appendUnique(next.MutedTopics, topic)
			next.SavedTopics = removeString(next.SavedTopics, topic)

		case schemas.ActionSkip:
			if isNoRelevantSkip(cycle) {
				stopTriggered = schemas.StopNoRelevantPosts
				result = "Run finished because there were no relevant posts left."
			}
		}
	}

	if success {
		next.ConsecutiveFailures = 0
	} else {
		next.ConsecutiveFailures = state.ConsecutiveFailures + 1
	}

	if stopTriggered == "" && risk.ShouldStopForRisk(cycle, state.Policy) {
		if cycle.Risk == schemas.RiskHigh && state.Policy.RiskTolerance != schemas.RiskToleranceHigh {
			stopTriggered = schemas.StopToxicityRiskHigh
			result = "Run stopped: high-risk content exceeded tolerance."
		} else {
			stopTriggered = schemas.StopLowConfidence
			result = "Run stopped: confidence dropped below policy threshold."
		}
	}

	if stopTriggered == "" && next.ConsecutiveFailures >= schemas.MaxConsecutiveFailures {
		stopTriggered = schemas.StopConsecutiveFailures
		result = "Run stopped after repeated failures."
	}

	if stopTriggered == "" && next.Step >= state.Policy.MaxAutoActions {
		stopTriggered = schemas.StopMaxActionsReached
		result = "Run reached max actions for this policy."
	}

	switch {
	case stopTriggered == schemas.StopConsecutiveFailures:
		next.Status = schemas.StatusError
	case stopTriggered != "":
		next.Status = schemas.StatusFinished
	case state.Status == schemas.StatusRunning:
		next.Status = schemas.StatusRunning
	default:
		next.Status = schemas.StatusStopped
	}

	plannerSource := meta.PlannerSource
	if plannerSource == "" {
		plannerSource = schemas.SourceRule
	}

	next.Logs = append(next.Logs, schemas.LogEntry{
		Step:          next.Step,
		Observe:       cycle.Observe,
		Plan:          cycle.Plan,
		Action:        cycle.Action,
		Result:        result,
		Risk:          cycle.Risk,
		Confidence:    cycle.Confidence,
		Success:       success,
		PlannerSource: plannerSource,
		LatencyMs:     meta.LatencyMs,
		StopTriggered: stopTriggered,
	})

	if stopTriggered != "" {
		next.EndReason = stopTriggered
	}

	return next
}
