package schemas

// -- Cycle Schemas --

// RiskLevel is the assessed danger level of an item or a proposed cycle.
type RiskLevel string

const (
	RiskSafe   RiskLevel = "safe"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// PlannerSource records which planner produced a cycle.
type PlannerSource string

const (
	SourceRule PlannerSource = "rule"
	// SourceExternal marks a cycle produced by the external reasoning
	// collaborator and accepted as-is.
	SourceExternal PlannerSource = "external"
	// SourceRuleFallback marks a cycle produced by the rule planner after an
	// external attempt failed, or relayed from a collaborator that applied
	// its own fallback.
	SourceRuleFallback PlannerSource = "rule_fallback"
)

// CycleOutput is one observe/plan/act proposal. Confidence is clamped to
// [0,1] and rounded to two decimals wherever it is produced.
type CycleOutput struct {
	Observe       string    `json:"observe"`
	Plan          string    `json:"plan"`
	Action        Action    `json:"action"`
	ResultPreview string    `json:"resultPreview"`
	Risk          RiskLevel `json:"risk"`
	Confidence    float64   `json:"confidence"`
}

// LogEntry is the immutable per-cycle snapshot appended by the reducer.
type LogEntry struct {
	Step          int           `json:"step"`
	Observe       string        `json:"observe"`
	Plan          string        `json:"plan"`
	Action        Action        `json:"action"`
	Result        string        `json:"result"`
	Risk          RiskLevel     `json:"risk"`
	Confidence    float64       `json:"confidence"`
	Success       bool          `json:"success"`
	PlannerSource PlannerSource `json:"plannerSource,omitempty"`
	LatencyMs     int64         `json:"latencyMs,omitempty"`
	StopTriggered StopReason    `json:"stopTriggered,omitempty"`
}
