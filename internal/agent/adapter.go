// File: internal/agent/adapter.go
// Description: The external planner adapter. It routes on policy.plannerMode,
// bounds the collaborator call with a timeout, validates the reply against
// the same action contract the rule planner honors, and falls back to the
// rule planner on any failure so the loop always receives a valid cycle.

package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
	"github.com/feedpilot/feedpilot-cli/internal/config"
)

// Result is the outcome of producing one cycle, including its provenance.
type Result struct {
	Cycle     schemas.CycleOutput
	Source    schemas.PlannerSource
	LatencyMs int64
	// Warning carries the failure reason when the rule planner had to step in.
	Warning string
}

// PlannerAdapter produces the next cycle from whichever planner policy
// selects. It is safe for use across runs; all run state arrives as an
// argument.
type PlannerAdapter struct {
	cfg       config.PlannerConfig
	logger    *zap.Logger
	rule      schemas.CyclePlanner
	completer schemas.TextCompleter
}

// NewPlannerAdapter creates an adapter. The completer may be nil, in which
// case external mode degrades to a rule fallback with a warning instead of
// failing construction; the rule planner is mandatory.
func NewPlannerAdapter(cfg config.PlannerConfig, logger *zap.Logger, rule schemas.CyclePlanner, completer schemas.TextCompleter) (*PlannerAdapter, error) {
	if rule == nil {
		return nil, fmt.Errorf("planner adapter requires a rule planner")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 9 * time.Second
	}
	return &PlannerAdapter{
		cfg:       cfg,
		logger:    logger.Named("planner_adapter"),
		rule:      rule,
		completer: completer,
	}, nil
}

// ruleResult produces a cycle from the rule planner, tagged with the given
// source and optional warning.
func (a *PlannerAdapter) ruleResult(state schemas.RunState, source schemas.PlannerSource, warning string) Result {
	return Result{
		Cycle:   a.rule.PlanNextCycle(state),
		Source:  source,
		Warning: warning,
	}
}

// GetNextCycle produces the next cycle for the run. It never returns an
// error: every failure path degrades to the rule planner.
func (a *PlannerAdapter) GetNextCycle(ctx context.Context, state schemas.RunState) Result {
	if state.Policy.PlannerMode != schemas.PlannerModeExternal {
		return a.ruleResult(state, schemas.SourceRule, "")
	}
	if a.completer == nil {
		return a.ruleResult(state, schemas.SourceRuleFallback, "external planner not configured")
	}

	userPrompt, err := buildUserPrompt(state)
	if err != nil {
		return a.ruleResult(state, schemas.SourceRuleFallback, err.Error())
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	startTime := time.Now()
	response, err := a.completer.Complete(reqCtx, schemas.CompletionRequest{
		SystemPrompt:    systemPrompt,
		UserPrompt:      userPrompt,
		Temperature:     0.2,
		ForceJSONFormat: true,
	})
	latencyMs := time.Since(startTime).Milliseconds()

	if err != nil {
		a.logger.Warn("External planner failed, falling back to rule planner",
			zap.Error(err),
			zap.Int64("latency_ms", latencyMs),
		)
		return a.ruleResult(state, schemas.SourceRuleFallback, err.Error())
	}

	parsed, err := ParsePlannerResponse(response)
	if err != nil {
		a.logger.Warn("External planner response rejected, falling back to rule planner",
			zap.Error(err),
			zap.Int64("latency_ms", latencyMs),
		)
		return a.ruleResult(state, schemas.SourceRuleFallback, err.Error())
	}

	if parsed.LatencyMs > 0 {
		latencyMs = parsed.LatencyMs
	}

	// A collaborator that reports anything but an external source applied its
	// own fallback; surface that honestly rather than claiming the cycle was
	// externally reasoned.
	if parsed.Source != "" && parsed.Source != string(schemas.SourceExternal) {
		return Result{
			Cycle:     parsed.Cycle,
			Source:    schemas.SourceRuleFallback,
			LatencyMs: latencyMs,
			Warning:   parsed.ErrMsg,
		}
	}

	return Result{
		Cycle:     parsed.Cycle,
		Source:    schemas.SourceExternal,
		LatencyMs: latencyMs,
	}
}
