package schemas

import (
	"context"
)

// -- Planner Interfaces --

// CyclePlanner produces the next cycle proposal from a run snapshot. It must
// be pure: identical snapshots yield identical proposals.
type CyclePlanner interface {
	PlanNextCycle(state RunState) CycleOutput
}

// CompletionRequest carries one prompt pair to a text-completion backend.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	// ForceJSONFormat asks the backend to emit a bare JSON object.
	ForceJSONFormat bool
}

// TextCompleter is the external reasoning collaborator boundary. A slow or
// failed completion must never block the caller beyond its context deadline.
type TextCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
