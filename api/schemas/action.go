package schemas

import (
	"fmt"
)

// -- Action Schemas --

// ActionType enumerates the seven actions a planner may propose.
type ActionType string

const (
	ActionDraftPost       ActionType = "draft_post"
	ActionDraftReply      ActionType = "draft_reply"
	ActionBookmarkThread  ActionType = "bookmark_thread"
	ActionFollowTopic     ActionType = "follow_topic"
	ActionMuteTopic       ActionType = "mute_topic"
	ActionAskUserApproval ActionType = "ask_user_approval"
	ActionSkip            ActionType = "skip"
)

// AllowedActionTypes lists every action type the reducer will accept.
// Planner output carrying anything else is treated as an execution failure.
var AllowedActionTypes = []ActionType{
	ActionDraftPost,
	ActionDraftReply,
	ActionBookmarkThread,
	ActionFollowTopic,
	ActionMuteTopic,
	ActionAskUserApproval,
	ActionSkip,
}

// IsAllowedActionType reports whether t is one of the seven known types.
func IsAllowedActionType(t ActionType) bool {
	for _, allowed := range AllowedActionTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

// ReasonCode is a machine-readable tag attached to an action. The reducer
// keys stop conditions off these codes instead of sniffing reason text.
type ReasonCode string

const (
	// ReasonNoRelevantPosts marks the sentinel skip emitted when the
	// candidate pool is empty.
	ReasonNoRelevantPosts ReasonCode = "no_relevant_posts"
)

// ActionPayload carries the variant-specific fields of an action.
type ActionPayload struct {
	DraftText string `json:"draftText,omitempty"`
	Topic     string `json:"topic,omitempty"`
}

// Action is one proposed step against the feed. Reason and ExpectedOutcome
// are mandatory human-readable strings; the payload shape depends on Type
// and is enforced by Validate.
type Action struct {
	Type            ActionType     `json:"type"`
	TargetItemID    string         `json:"targetItemId,omitempty"`
	Payload         *ActionPayload `json:"payload,omitempty"`
	Reason          string         `json:"reason"`
	ReasonCode      ReasonCode     `json:"reasonCode,omitempty"`
	ExpectedOutcome string         `json:"expectedOutcome"`
}

// DraftText returns the payload draft text, or "" when absent.
func (a Action) DraftText() string {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.DraftText
}

// Topic returns the payload topic, or "" when absent.
func (a Action) Topic() string {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.Topic
}

// Validate enforces the per-variant shape invariants. A violation is an
// execution failure, never a crash: the reducer records a failed cycle and
// leaves derived state untouched.
func (a Action) Validate() error {
	switch a.Type {
	case ActionDraftPost:
		if a.DraftText() == "" {
			return fmt.Errorf("draft_post requires payload.draftText")
		}
	case ActionDraftReply:
		if a.TargetItemID == "" {
			return fmt.Errorf("draft_reply requires targetItemId")
		}
		if a.DraftText() == "" {
			return fmt.Errorf("draft_reply requires payload.draftText")
		}
	case ActionBookmarkThread:
		if a.TargetItemID == "" {
			return fmt.Errorf("bookmark_thread requires targetItemId")
		}
	case ActionFollowTopic, ActionMuteTopic:
		// The topic may also be resolved from the target item downstream.
		if a.Topic() == "" && a.TargetItemID == "" {
			return fmt.Errorf("%s requires payload.topic or targetItemId", a.Type)
		}
	case ActionAskUserApproval, ActionSkip:
		// No required fields.
	default:
		return fmt.Errorf("unsupported action type %q", a.Type)
	}
	return nil
}
