// File: internal/agent/sanitize.go
package agent

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

// ParsedResponse is the sanitized form of an external planner reply. The
// collaborator may answer with a bare cycle object or an envelope
// {cycle, source, latencyMs, error}; either way the cycle inside has been
// validated against the action contract.
type ParsedResponse struct {
	Cycle schemas.CycleOutput
	// Source is the collaborator-reported source, empty when the reply was a
	// bare cycle object.
	Source string
	// LatencyMs is the collaborator-reported latency, when present.
	LatencyMs int64
	// ErrMsg is the collaborator-reported error, when present.
	ErrMsg string
}

// A regex to robustly extract a JSON object from a markdown code block.
var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// rawEnvelope mirrors the collaborator's optional wrapper object.
type rawEnvelope struct {
	Cycle     json.RawMessage `json:"cycle"`
	Source    string          `json:"source"`
	LatencyMs int64           `json:"latencyMs"`
	Error     string          `json:"error"`
}

// rawCycle is the untrusted wire form of a CycleOutput. Everything is
// optional here; defaults and rejection happen in sanitizeCycle.
type rawCycle struct {
	Observe       string     `json:"observe"`
	Plan          string     `json:"plan"`
	Action        *rawAction `json:"action"`
	ResultPreview string     `json:"resultPreview"`
	Risk          string     `json:"risk"`
	Confidence    *float64   `json:"confidence"`
}

type rawAction struct {
	Type            string                 `json:"type"`
	TargetItemID    string                 `json:"targetItemId"`
	Payload         *schemas.ActionPayload `json:"payload"`
	Reason          string                 `json:"reason"`
	ReasonCode      string                 `json:"reasonCode"`
	ExpectedOutcome string                 `json:"expectedOutcome"`
}

// extractJSONObject pulls the first JSON object out of the response text,
// tolerating markdown fences and surrounding prose.
func extractJSONObject(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("empty response body")
	}

	if strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	if match := jsonBlockRegex.FindStringSubmatch(trimmed); len(match) == 2 {
		return strings.TrimSpace(match[1]), nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return trimmed[start : end+1], nil
}

func sanitizeString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func sanitizeRisk(value string) schemas.RiskLevel {
	switch schemas.RiskLevel(value) {
	case schemas.RiskSafe, schemas.RiskMedium, schemas.RiskHigh:
		return schemas.RiskLevel(value)
	default:
		return schemas.RiskMedium
	}
}

func sanitizeConfidence(value *float64) float64 {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return 0.5
	}
	rounded := math.Round(*value*100) / 100
	return math.Max(0, math.Min(1, rounded))
}

// sanitizeAction rejects unknown action types outright; everything else is
// defaulted. Shape invariants (payload fields per variant) are enforced
// later by the reducer, so a malformed-but-typed action becomes a failed
// cycle rather than a fallback.
func sanitizeAction(raw *rawAction) (schemas.Action, error) {
	if raw == nil {
		return schemas.Action{}, fmt.Errorf("response cycle is missing an action")
	}
	actionType := schemas.ActionType(strings.TrimSpace(raw.Type))
	if !schemas.IsAllowedActionType(actionType) {
		return schemas.Action{}, fmt.Errorf("disallowed action type %q", raw.Type)
	}

	action := schemas.Action{
		Type:            actionType,
		TargetItemID:    strings.TrimSpace(raw.TargetItemID),
		Reason:          sanitizeString(raw.Reason, "no reason provided"),
		ReasonCode:      schemas.ReasonCode(strings.TrimSpace(raw.ReasonCode)),
		ExpectedOutcome: sanitizeString(raw.ExpectedOutcome, "no expected outcome provided"),
	}
	if raw.Payload != nil {
		action.Payload = &schemas.ActionPayload{
			DraftText: strings.TrimSpace(raw.Payload.DraftText),
			Topic:     strings.TrimSpace(raw.Payload.Topic),
		}
	}
	return action, nil
}

func sanitizeCycle(raw rawCycle) (schemas.CycleOutput, error) {
	action, err := sanitizeAction(raw.Action)
	if err != nil {
		return schemas.CycleOutput{}, err
	}

	return schemas.CycleOutput{
		Observe:       sanitizeString(raw.Observe, "observe was omitted"),
		Plan:          sanitizeString(raw.Plan, "plan was omitted"),
		Action:        action,
		ResultPreview: sanitizeString(raw.ResultPreview, "result preview was omitted"),
		Risk:          sanitizeRisk(raw.Risk),
		Confidence:    sanitizeConfidence(raw.Confidence),
	}, nil
}

// ParsePlannerResponse validates an external planner reply against the cycle
// contract. Any deviation the sanitizer cannot default away returns an
// error, which the adapter converts into a rule fallback.
func ParsePlannerResponse(body string) (ParsedResponse, error) {
	object, err := extractJSONObject(body)
	if err != nil {
		return ParsedResponse{}, err
	}

	var envelope rawEnvelope
	if err := json.UnmarshalFromString(object, &envelope); err != nil {
		return ParsedResponse{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	cycleJSON := []byte(object)
	parsed := ParsedResponse{}
	if len(envelope.Cycle) > 0 {
		cycleJSON = envelope.Cycle
		parsed.Source = envelope.Source
		parsed.LatencyMs = envelope.LatencyMs
		parsed.ErrMsg = envelope.Error
	}

	var raw rawCycle
	if err := json.Unmarshal(cycleJSON, &raw); err != nil {
		return ParsedResponse{}, fmt.Errorf("failed to unmarshal cycle: %w", err)
	}

	cycle, err := sanitizeCycle(raw)
	if err != nil {
		return ParsedResponse{}, err
	}
	parsed.Cycle = cycle
	return parsed, nil
}
