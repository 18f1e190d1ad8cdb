package schemas

// -- Policy Schemas --

// Goal selects the planner's ranking and action-building heuristics.
type Goal string

const (
	GoalDiscover  Goal = "discover"
	GoalEngage    Goal = "engage"
	GoalBroadcast Goal = "broadcast"
)

// Tone selects the draft composer's template family.
type Tone string

const (
	ToneNeutral   Tone = "neutral"
	ToneFriendly  Tone = "friendly"
	ToneTechnical Tone = "technical"
)

// RiskTolerance shifts risk scores and confidence thresholds.
type RiskTolerance string

const (
	RiskToleranceLow    RiskTolerance = "low"
	RiskToleranceMedium RiskTolerance = "medium"
	RiskToleranceHigh   RiskTolerance = "high"
)

// PlannerMode selects between the deterministic rule planner and the
// external reasoning collaborator.
type PlannerMode string

const (
	PlannerModeRule     PlannerMode = "rule"
	PlannerModeExternal PlannerMode = "external"
)

// Policy is the operator-supplied contract governing a run. It may be edited
// between cycles but never mid-cycle.
type Policy struct {
	Goal           Goal          `json:"goal"`
	Tone           Tone          `json:"tone"`
	RiskTolerance  RiskTolerance `json:"riskTolerance"`
	PlannerMode    PlannerMode   `json:"plannerMode"`
	MaxAutoActions int           `json:"maxAutoActions"`
}

// PolicyPatch carries a shallow policy edit. Nil fields leave the current
// value untouched.
type PolicyPatch struct {
	Goal           *Goal          `json:"goal,omitempty"`
	Tone           *Tone          `json:"tone,omitempty"`
	RiskTolerance  *RiskTolerance `json:"riskTolerance,omitempty"`
	PlannerMode    *PlannerMode   `json:"plannerMode,omitempty"`
	MaxAutoActions *int           `json:"maxAutoActions,omitempty"`
}

// DefaultPolicy returns the policy a fresh run starts with when the operator
// has not supplied one.
func DefaultPolicy() Policy {
	return Policy{
		Goal:           GoalEngage,
		Tone:           ToneNeutral,
		RiskTolerance:  RiskToleranceMedium,
		PlannerMode:    PlannerModeRule,
		MaxAutoActions: 6,
	}
}
