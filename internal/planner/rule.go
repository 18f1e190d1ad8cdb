// File: internal/planner/rule.go
package planner

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
	"github.com/feedpilot/feedpilot-cli/internal/draft"
	"github.com/feedpilot/feedpilot-cli/internal/risk"
)

// RulePlanner is the deterministic decision function mapping a run snapshot
// to the next cycle proposal. It holds no state between calls.
type RulePlanner struct {
	logger *zap.Logger
}

// Statically assert that RulePlanner implements the CyclePlanner interface.
var _ schemas.CyclePlanner = (*RulePlanner)(nil)

// NewRulePlanner creates a rule planner.
func NewRulePlanner(logger *zap.Logger) *RulePlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulePlanner{logger: logger.Named("rule_planner")}
}

// clampConfidence rounds to two decimals and clamps into [0,1].
func clampConfidence(confidence float64) float64 {
	rounded := math.Round(confidence*100) / 100
	return math.Max(0, math.Min(1, rounded))
}

// candidatePool returns feed items that are unseen and whose topic is not
// muted, preserving original feed order.
func candidatePool(state schemas.RunState) []schemas.FeedItem {
	seen := make(map[string]struct{}, len(state.SeenItemIDs))
	for _, id := range state.SeenItemIDs {
		seen[id] = struct{}{}
	}
	muted := make(map[string]struct{}, len(state.MutedTopics))
	for _, topic := range state.MutedTopics {
		muted[topic] = struct{}{}
	}

	var pool []schemas.FeedItem
	for _, item := range state.Feed {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		if _, ok := muted[item.Topic]; ok {
			continue
		}
		pool = append(pool, item)
	}
	return pool
}

func sentimentScore(item schemas.FeedItem) int {
	switch item.Sentiment {
	case schemas.SentimentPositive:
		return 2
	case schemas.SentimentNeutral:
		return 1
	default:
		return 0
	}
}

// rankForGoal orders the pool by the goal's heuristic. SliceStable keeps the
// original feed order as the tie-break.
func rankForGoal(pool []schemas.FeedItem, goal schemas.Goal, savedTopics []string) []schemas.FeedItem {
	saved := make(map[string]struct{}, len(savedTopics))
	for _, topic := range savedTopics {
		saved[topic] = struct{}{}
	}
	isSaved := func(item schemas.FeedItem) bool {
		_, ok := saved[item.Topic]
		return ok
	}

	ranked := append([]schemas.FeedItem(nil), pool...)

	switch goal {
	case schemas.GoalDiscover:
		// Unsaved topics first, then by engagement.
		sort.SliceStable(ranked, func(i, j int) bool {
			iNew, jNew := !isSaved(ranked[i]), !isSaved(ranked[j])
			if iNew != jNew {
				return iNew
			}
			return ranked[i].EngagementScore > ranked[j].EngagementScore
		})
	case schemas.GoalEngage:
		// Saved topics first, then friendlier sentiment, then engagement.
		sort.SliceStable(ranked, func(i, j int) bool {
			iSaved, jSaved := isSaved(ranked[i]), isSaved(ranked[j])
			if iSaved != jSaved {
				return iSaved
			}
			if si, sj := sentimentScore(ranked[i]), sentimentScore(ranked[j]); si != sj {
				return si > sj
			}
			return ranked[i].EngagementScore > ranked[j].EngagementScore
		})
	default:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].EngagementScore > ranked[j].EngagementScore
		})
	}
	return ranked
}

// noRelevantItemsOutput is the sentinel cycle emitted when the candidate pool
// is empty. The reducer keys the no_relevant_posts stop condition off the
// action's reason code.
func noRelevantItemsOutput() schemas.CycleOutput {
	return schemas.CycleOutput{
		Observe: "No unseen posts remain after muted-topic filtering.",
		Plan:    "Skip action and wait for fresh feed inputs.",
		Action: schemas.Action{
			Type:            schemas.ActionSkip,
			Reason:          "no_relevant_posts",
			ReasonCode:      schemas.ReasonNoRelevantPosts,
			ExpectedOutcome: "avoid unnecessary low-value actions",
		},
		ResultPreview: "Agent stayed idle because no relevant posts were available.",
		Risk:          schemas.RiskSafe,
		Confidence:    0.92,
	}
}

func buildEngageAction(state schemas.RunState, item schemas.FeedItem, itemRisk schemas.RiskLevel) schemas.Action {
	if itemRisk == schemas.RiskHigh && state.Policy.RiskTolerance == schemas.RiskToleranceLow {
		return schemas.Action{
			Type:            schemas.ActionBookmarkThread,
			TargetItemID:    item.ID,
			Reason:          "high-risk discussion; store for later review instead of direct reply",
			ExpectedOutcome: "capture context without escalation",
		}
	}

	return schemas.Action{
		Type:         schemas.ActionDraftReply,
		TargetItemID: item.ID,
		Payload: &schemas.ActionPayload{
			DraftText: draft.ComposeReply(state.Policy.Tone, item.Author, item.Text, item.Topic),
		},
		Reason:          "engage mode prioritizes constructive replies on relevant feed content",
		ExpectedOutcome: "queue a high-signal reply for user approval",
	}
}

func buildDiscoverAction(state schemas.RunState, item schemas.FeedItem, itemRisk schemas.RiskLevel) schemas.Action {
	saved := false
	for _, topic := range state.SavedTopics {
		if topic == item.Topic {
			saved = true
			break
		}
	}

	if !saved {
		return schemas.Action{
			Type:            schemas.ActionFollowTopic,
			TargetItemID:    item.ID,
			Payload:         &schemas.ActionPayload{Topic: item.Topic},
			Reason:          "discover mode prefers adding new relevant topics",
			ExpectedOutcome: "expand tracked signal surface",
		}
	}

	if itemRisk == schemas.RiskHigh {
		return schemas.Action{
			Type:            schemas.ActionBookmarkThread,
			TargetItemID:    item.ID,
			Reason:          "high-risk thread stored for manual review",
			ExpectedOutcome: "maintain awareness while avoiding reactive posting",
		}
	}

	// Attach a drafted reply so the operator reviews concrete text, not an
	// abstract request.
	return schemas.Action{
		Type:         schemas.ActionAskUserApproval,
		TargetItemID: item.ID,
		Payload: &schemas.ActionPayload{
			DraftText: draft.ComposeReply(state.Policy.Tone, item.Author, item.Text, item.Topic),
		},
		Reason:          "discover mode found a potentially valuable interaction",
		ExpectedOutcome: "collect user guidance before drafting aggressively",
	}
}

func buildBroadcastAction(state schemas.RunState, item schemas.FeedItem) schemas.Action {
	return schemas.Action{
		Type: schemas.ActionDraftPost,
		Payload: &schemas.ActionPayload{
			DraftText: draft.ComposePost(state.Policy.Tone, item.Topic, state.SavedTopics),
		},
		Reason:          "broadcast mode prioritizes publishing a standalone update",
		ExpectedOutcome: "prepare a concise outbound post aligned to current signals",
	}
}

func riskToConfidence(level schemas.RiskLevel) float64 {
	switch level {
	case schemas.RiskSafe:
		return 0.85
	case schemas.RiskMedium:
		return 0.62
	default:
		return 0.38
	}
}

// PlanNextCycle produces the next cycle proposal using goal-specific
// heuristics. See the package tests for the exact ranking and confidence
// contract.
func (p *RulePlanner) PlanNextCycle(state schemas.RunState) schemas.CycleOutput {
	pool := candidatePool(state)
	if len(pool) == 0 {
		p.logger.Debug("Candidate pool empty, emitting sentinel skip", zap.String("run_id", state.RunID))
		return noRelevantItemsOutput()
	}

	candidate := rankForGoal(pool, state.Policy.Goal, state.SavedTopics)[0]
	assessment := risk.Assess(candidate, state.Policy)

	var action schemas.Action
	switch state.Policy.Goal {
	case schemas.GoalEngage:
		action = buildEngageAction(state, candidate, assessment.Risk)
	case schemas.GoalDiscover:
		action = buildDiscoverAction(state, candidate, assessment.Risk)
	default:
		action = buildBroadcastAction(state, candidate)
	}

	// Defensive replacement: the builders above only emit known types, but a
	// future heuristic must not be able to smuggle an unknown one past the
	// reducer.
	if !schemas.IsAllowedActionType(action.Type) {
		action = schemas.Action{
			Type:            schemas.ActionSkip,
			TargetItemID:    candidate.ID,
			Reason:          "planner produced unsupported action; falling back to skip",
			ExpectedOutcome: "prevent invalid state transitions",
		}
	}

	confidence := riskToConfidence(assessment.Risk)
	if state.Policy.Goal == schemas.GoalDiscover && action.Type == schemas.ActionFollowTopic {
		confidence += 0.08
	}
	if candidate.Sentiment == schemas.SentimentNegative {
		confidence -= 0.06
	}

	return schemas.CycleOutput{
		Observe: fmt.Sprintf("Observed %s on %s (%s, score %d).", candidate.Author, candidate.Topic, candidate.Sentiment, candidate.EngagementScore),
		Plan: fmt.Sprintf("Selected %s because goal=%s, tone=%s, riskTolerance=%s.",
			action.Type, state.Policy.Goal, state.Policy.Tone, state.Policy.RiskTolerance),
		Action:        action,
		ResultPreview: fmt.Sprintf("Simulated %s for post %s.", action.Type, candidate.ID),
		Risk:          assessment.Risk,
		Confidence:    clampConfidence(confidence),
	}
}
