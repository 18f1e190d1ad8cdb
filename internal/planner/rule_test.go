// File: internal/planner/rule_test.go
package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

func testItem(id, topic string, sentiment schemas.Sentiment, engagement int) schemas.FeedItem {
	return schemas.FeedItem{
		ID:              id,
		Author:          "author-" + id,
		Text:            "text for " + id,
		Topic:           topic,
		Sentiment:       sentiment,
		EngagementScore: engagement,
		CreatedAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func testState(policy schemas.Policy, feed ...schemas.FeedItem) schemas.RunState {
	return schemas.RunState{
		RunID:       "run-test",
		Status:      schemas.StatusRunning,
		Policy:      policy,
		Feed:        feed,
		SeenItemIDs: []string{},
		SavedTopics: []string{},
		MutedTopics: []string{},
		DraftQueue:  []schemas.DraftItem{},
		Logs:        []schemas.LogEntry{},
	}
}

func TestPlanNextCycle_EmptyPoolEmitsSentinelSkip(t *testing.T) {
	planner := NewRulePlanner(zaptest.NewLogger(t))

	testCases := []struct {
		name  string
		state schemas.RunState
	}{
		{"empty feed", testState(schemas.DefaultPolicy())},
		{
			"everything already seen",
			func() schemas.RunState {
				s := testState(schemas.DefaultPolicy(), testItem("p1", "infra", schemas.SentimentPositive, 50))
				s.SeenItemIDs = []string{"p1"}
				return s
			}(),
		},
		{
			"everything muted",
			func() schemas.RunState {
				s := testState(schemas.DefaultPolicy(), testItem("p1", "infra", schemas.SentimentPositive, 50))
				s.MutedTopics = []string{"infra"}
				return s
			}(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cycle := planner.PlanNextCycle(tc.state)
			assert.Equal(t, schemas.ActionSkip, cycle.Action.Type)
			assert.Equal(t, schemas.ReasonNoRelevantPosts, cycle.Action.ReasonCode)
			assert.Equal(t, schemas.RiskSafe, cycle.Risk)
			assert.Equal(t, 0.92, cycle.Confidence)
		})
	}
}

func TestPlanNextCycle_EngageRanking(t *testing.T) {
	planner := NewRulePlanner(zaptest.NewLogger(t))
	policy := schemas.DefaultPolicy()
	policy.Goal = schemas.GoalEngage

	t.Run("saved topics beat sentiment and engagement", func(t *testing.T) {
		state := testState(policy,
			testItem("loud", "scaling", schemas.SentimentPositive, 99),
			testItem("saved", "infra", schemas.SentimentNeutral, 10),
		)
		state.SavedTopics = []string{"infra"}

		cycle := planner.PlanNextCycle(state)
		assert.Equal(t, schemas.ActionDraftReply, cycle.Action.Type)
		assert.Equal(t, "saved", cycle.Action.TargetItemID)
	})

	t.Run("friendlier sentiment wins within a tier", func(t *testing.T) {
		state := testState(policy,
			testItem("grumpy", "infra", schemas.SentimentNegative, 80),
			testItem("happy", "scaling", schemas.SentimentPositive, 20),
		)
		cycle := planner.PlanNextCycle(state)
		assert.Equal(t, "happy", cycle.Action.TargetItemID)
	})

	t.Run("feed order breaks exact ties", func(t *testing.T) {
		state := testState(policy,
			testItem("first", "infra", schemas.SentimentNeutral, 50),
			testItem("second", "scaling", schemas.SentimentNeutral, 50),
		)
		cycle := planner.PlanNextCycle(state)
		assert.Equal(t, "first", cycle.Action.TargetItemID)
	})

	t.Run("reply carries a drafted text payload", func(t *testing.T) {
		state := testState(policy, testItem("p1", "infra", schemas.SentimentPositive, 50))
		cycle := planner.PlanNextCycle(state)
		require.Equal(t, schemas.ActionDraftReply, cycle.Action.Type)
		require.NotNil(t, cycle.Action.Payload)
		assert.NotEmpty(t, cycle.Action.Payload.DraftText)
		assert.NoError(t, cycle.Action.Validate())
	})
}

func TestPlanNextCycle_EngageHighRiskLowTolerance(t *testing.T) {
	planner := NewRulePlanner(zaptest.NewLogger(t))
	policy := schemas.DefaultPolicy()
	policy.Goal = schemas.GoalEngage
	policy.Tone = schemas.ToneTechnical
	policy.RiskTolerance = schemas.RiskToleranceLow

	spam := testItem("spam", "trading", schemas.SentimentNegative, 90)
	spam.Text = "Guaranteed 1000x. Last spots in the signal room."
	state := testState(policy, spam)
	state.Policy.MaxAutoActions = 5

	cycle := planner.PlanNextCycle(state)
	assert.Equal(t, schemas.ActionBookmarkThread, cycle.Action.Type, "low tolerance converts the reply into a bookmark")
	assert.Equal(t, "spam", cycle.Action.TargetItemID)
	assert.Equal(t, schemas.RiskHigh, cycle.Risk)
	// Base 0.38 for high risk, minus 0.06 for negative sentiment.
	assert.Equal(t, 0.32, cycle.Confidence)
}

func TestPlanNextCycle_DiscoverRanking(t *testing.T) {
	planner := NewRulePlanner(zaptest.NewLogger(t))
	policy := schemas.DefaultPolicy()
	policy.Goal = schemas.GoalDiscover

	t.Run("unsaved topics come first and get followed", func(t *testing.T) {
		state := testState(policy,
			testItem("known", "infra", schemas.SentimentPositive, 95),
			testItem("fresh", "scaling", schemas.SentimentNeutral, 30),
		)
		state.SavedTopics = []string{"infra"}

		cycle := planner.PlanNextCycle(state)
		require.Equal(t, schemas.ActionFollowTopic, cycle.Action.Type)
		assert.Equal(t, "scaling", cycle.Action.Topic())
		// Base 0.85 for safe, plus the 0.08 follow bonus.
		assert.Equal(t, 0.93, cycle.Confidence)
	})

	t.Run("saved safe item asks for approval with draft text", func(t *testing.T) {
		state := testState(policy, testItem("p1", "infra", schemas.SentimentPositive, 40))
		state.SavedTopics = []string{"infra"}

		cycle := planner.PlanNextCycle(state)
		require.Equal(t, schemas.ActionAskUserApproval, cycle.Action.Type)
		assert.NotEmpty(t, cycle.Action.DraftText())
	})

	t.Run("saved high-risk item is bookmarked", func(t *testing.T) {
		spam := testItem("spam", "trading", schemas.SentimentNeutral, 10)
		spam.Text = "Guaranteed 1000x returns."
		state := testState(policy, spam)
		state.SavedTopics = []string{"trading"}

		cycle := planner.PlanNextCycle(state)
		assert.Equal(t, schemas.ActionBookmarkThread, cycle.Action.Type)
	})
}

func TestPlanNextCycle_BroadcastDraftsPost(t *testing.T) {
	planner := NewRulePlanner(zaptest.NewLogger(t))
	policy := schemas.DefaultPolicy()
	policy.Goal = schemas.GoalBroadcast

	state := testState(policy,
		testItem("quiet", "community", schemas.SentimentNeutral, 20),
		testItem("loud", "infra", schemas.SentimentNeutral, 80),
	)

	cycle := planner.PlanNextCycle(state)
	require.Equal(t, schemas.ActionDraftPost, cycle.Action.Type)
	assert.Contains(t, cycle.Action.DraftText(), "infra", "broadcast picks the highest-engagement topic")
	assert.Empty(t, cycle.Action.TargetItemID)
	assert.NoError(t, cycle.Action.Validate())
}

func TestPlanNextCycle_ConfidenceArithmetic(t *testing.T) {
	planner := NewRulePlanner(zaptest.NewLogger(t))

	t.Run("safe engage reply", func(t *testing.T) {
		policy := schemas.DefaultPolicy()
		state := testState(policy, testItem("p1", "infra", schemas.SentimentPositive, 30))
		cycle := planner.PlanNextCycle(state)
		assert.Equal(t, 0.85, cycle.Confidence)
	})

	t.Run("negative sentiment penalty applies", func(t *testing.T) {
		policy := schemas.DefaultPolicy()
		policy.RiskTolerance = schemas.RiskToleranceHigh
		// Negative sentiment floors to medium, then high tolerance lowers back
		// to safe. Base 0.85 minus 0.06.
		state := testState(policy, testItem("p1", "infra", schemas.SentimentNegative, 30))
		cycle := planner.PlanNextCycle(state)
		assert.Equal(t, 0.79, cycle.Confidence)
	})

	t.Run("confidence is always within bounds", func(t *testing.T) {
		policy := schemas.DefaultPolicy()
		policy.Goal = schemas.GoalDiscover
		state := testState(policy, testItem("p1", "infra", schemas.SentimentNegative, 90))
		cycle := planner.PlanNextCycle(state)
		assert.GreaterOrEqual(t, cycle.Confidence, 0.0)
		assert.LessOrEqual(t, cycle.Confidence, 1.0)
	})
}

func TestPlanNextCycle_DoesNotMutateState(t *testing.T) {
	planner := NewRulePlanner(zaptest.NewLogger(t))
	state := testState(schemas.DefaultPolicy(),
		testItem("p1", "infra", schemas.SentimentPositive, 50),
		testItem("p2", "scaling", schemas.SentimentNeutral, 40),
	)
	before := state.Clone()

	_ = planner.PlanNextCycle(state)
	_ = planner.PlanNextCycle(state)

	assert.Equal(t, before, state, "planning must be a pure read of the snapshot")
}
