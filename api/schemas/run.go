package schemas

// -- Run Schemas --

// RunStatus is the coarse lifecycle state of a run.
type RunStatus string

const (
	StatusIdle     RunStatus = "idle"
	StatusRunning  RunStatus = "running"
	StatusStopped  RunStatus = "stopped"
	StatusFinished RunStatus = "finished"
	StatusError    RunStatus = "error"
)

// StopReason names why a run ended. Only consecutive_failures is fatal;
// every other reason is a graceful termination.
type StopReason string

const (
	StopManualStop          StopReason = "manual_stop"
	StopMaxActionsReached   StopReason = "max_actions_reached"
	StopToxicityRiskHigh    StopReason = "toxicity_risk_high"
	StopLowConfidence       StopReason = "low_confidence"
	StopDuplicateContent    StopReason = "duplicate_content_detected"
	StopRateLimitRisk       StopReason = "rate_limit_risk"
	StopNoRelevantPosts     StopReason = "no_relevant_posts"
	StopConsecutiveFailures StopReason = "consecutive_failures"
)

// MaxConsecutiveFailures is the fixed failure-streak ceiling. Reaching it
// transitions the run to the terminal error status.
const MaxConsecutiveFailures = 3

// DraftKind distinguishes queued standalone posts from replies.
type DraftKind string

const (
	DraftPost  DraftKind = "post"
	DraftReply DraftKind = "reply"
)

// DraftItem is a queued, not-yet-published draft awaiting external approval.
type DraftItem struct {
	ID           string    `json:"id"`
	Kind         DraftKind `json:"kind"`
	Text         string    `json:"text"`
	TargetItemID string    `json:"targetItemId,omitempty"`
}

// RunState is the full state of one observe/plan/act run. It is owned
// exclusively by the reducer: every transition after creation goes through
// Apply, and a terminal state (finished/error) is immutable apart from
// operator policy edits.
//
// Derived collections are slices, not maps, so that serializing and
// deserializing a state reproduces it byte for byte.
type RunState struct {
	RunID               string      `json:"runId"`
	Status              RunStatus   `json:"status"`
	Step                int         `json:"step"`
	Policy              Policy      `json:"policy"`
	Feed                []FeedItem  `json:"feed"`
	SeenItemIDs         []string    `json:"seenItemIds"`
	SavedTopics         []string    `json:"savedTopics"`
	MutedTopics         []string    `json:"mutedTopics"`
	DraftQueue          []DraftItem `json:"draftQueue"`
	Logs                []LogEntry  `json:"logs"`
	ConsecutiveFailures int         `json:"consecutiveFailures"`
	EndReason           StopReason  `json:"endReason,omitempty"`
}

// IsTerminal reports whether the run has ended. The reducer is a no-op on
// terminal states.
func (s RunState) IsTerminal() bool {
	return s.Status == StatusFinished || s.Status == StatusError
}

// Clone returns a deep copy safe to hand across goroutine boundaries.
func (s RunState) Clone() RunState {
	out := s
	out.Feed = append([]FeedItem(nil), s.Feed...)
	out.SeenItemIDs = append([]string(nil), s.SeenItemIDs...)
	out.SavedTopics = append([]string(nil), s.SavedTopics...)
	out.MutedTopics = append([]string(nil), s.MutedTopics...)
	out.DraftQueue = append([]DraftItem(nil), s.DraftQueue...)
	out.Logs = append([]LogEntry(nil), s.Logs...)
	return out
}

// TopicForItem looks up the topic of a feed item by id.
func (s RunState) TopicForItem(itemID string) (string, bool) {
	if itemID == "" {
		return "", false
	}
	for _, item := range s.Feed {
		if item.ID == itemID {
			return item.Topic, true
		}
	}
	return "", false
}

// MergePolicy applies a shallow operator edit between cycles. The terminal
// log is never touched.
func (s *RunState) MergePolicy(patch PolicyPatch) {
	if patch.Goal != nil {
		s.Policy.Goal = *patch.Goal
	}
	if patch.Tone != nil {
		s.Policy.Tone = *patch.Tone
	}
	if patch.RiskTolerance != nil {
		s.Policy.RiskTolerance = *patch.RiskTolerance
	}
	if patch.PlannerMode != nil {
		s.Policy.PlannerMode = *patch.PlannerMode
	}
	if patch.MaxAutoActions != nil && *patch.MaxAutoActions > 0 {
		s.Policy.MaxAutoActions = *patch.MaxAutoActions
	}
}

// RemoveDraft deletes a draft from the queue by id and returns it.
func (s *RunState) RemoveDraft(draftID string) (DraftItem, bool) {
	for i, draft := range s.DraftQueue {
		if draft.ID == draftID {
			s.DraftQueue = append(s.DraftQueue[:i:i], s.DraftQueue[i+1:]...)
			return draft, true
		}
	}
	return DraftItem{}, false
}

// ApproveDraft removes the draft from the queue and hands it back for
// publishing. Publishing itself is a collaborator concern.
func (s *RunState) ApproveDraft(draftID string) (DraftItem, bool) {
	return s.RemoveDraft(draftID)
}

// RejectDraft discards the draft from the queue.
func (s *RunState) RejectDraft(draftID string) bool {
	_, ok := s.RemoveDraft(draftID)
	return ok
}
