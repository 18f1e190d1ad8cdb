// File: internal/risk/assessor.go
package risk

import (
	"regexp"
	"strings"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

// Assessment is the result of scoring a single feed item.
type Assessment struct {
	Risk    schemas.RiskLevel
	Reasons []string
}

// riskScore maps levels onto the 0..2 scale used for floor arithmetic.
var riskScore = map[schemas.RiskLevel]int{
	schemas.RiskSafe:   0,
	schemas.RiskMedium: 1,
	schemas.RiskHigh:   2,
}

// spamPattern is a small vocabulary of promotion-scam phrasings. Matching any
// of them floors the score to high regardless of engagement.
var spamPattern = regexp.MustCompile(`(?i)guaranteed|1000x|last spots|signal room`)

func scoreToRisk(score int) schemas.RiskLevel {
	switch {
	case score >= 2:
		return schemas.RiskHigh
	case score == 1:
		return schemas.RiskMedium
	default:
		return schemas.RiskSafe
	}
}

// adjustForTolerance shifts the base score by one step toward or away from
// high depending on policy tolerance, clamped to the 0..2 scale.
func adjustForTolerance(base schemas.RiskLevel, tolerance schemas.RiskTolerance) schemas.RiskLevel {
	score := riskScore[base]

	switch tolerance {
	case schemas.RiskToleranceLow:
		return scoreToRisk(min(score+1, 2))
	case schemas.RiskToleranceHigh:
		return scoreToRisk(max(score-1, 0))
	default:
		return base
	}
}

// Assess scores a feed item's danger level and adjusts it by policy risk
// tolerance. Each rule raises the score to at least its own floor; the rules
// are monotone, never additive.
func Assess(item schemas.FeedItem, policy schemas.Policy) Assessment {
	var reasons []string
	score := 0

	if item.Sentiment == schemas.SentimentNegative {
		score = max(score, 1)
		reasons = append(reasons, "negative_sentiment")
	}

	if item.Sentiment == schemas.SentimentNegative && item.EngagementScore >= 75 {
		score = max(score, 2)
		reasons = append(reasons, "toxicity_risk_high")
	}

	if item.EngagementScore >= 85 {
		score = max(score, 1)
		reasons = append(reasons, "high_virality")
	}

	if spamPattern.MatchString(item.Text) {
		score = max(score, 2)
		reasons = append(reasons, "spam_pattern_detected")
	}

	return Assessment{
		Risk:    adjustForTolerance(scoreToRisk(score), policy.RiskTolerance),
		Reasons: reasons,
	}
}

// nonAlnum strips everything except letters, digits and whitespace.
var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

// whitespaceRun collapses runs of whitespace to a single space.
var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeDraftText lowercases, strips punctuation and collapses whitespace
// so that cosmetically different drafts compare equal.
func NormalizeDraftText(text string) string {
	normalized := strings.ToLower(text)
	normalized = nonAlnum.ReplaceAllString(normalized, "")
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// IsDuplicateDraft reports whether draftText already exists in the queue
// under normalized-text equality. Empty normalized text never matches.
func IsDuplicateDraft(draftText string, existing []schemas.DraftItem) bool {
	normalized := NormalizeDraftText(draftText)
	if normalized == "" {
		return false
	}

	for _, draft := range existing {
		if NormalizeDraftText(draft.Text) == normalized {
			return true
		}
	}
	return false
}

// LowConfidenceThreshold returns the confidence floor below which a run
// stops. Cautious policies demand more certainty.
func LowConfidenceThreshold(policy schemas.Policy) float64 {
	switch policy.RiskTolerance {
	case schemas.RiskToleranceLow:
		return 0.58
	case schemas.RiskToleranceMedium:
		return 0.45
	default:
		return 0.35
	}
}

// ShouldStopForRisk reports whether a proposed cycle trips either the
// high-risk or the low-confidence stop condition.
func ShouldStopForRisk(cycle schemas.CycleOutput, policy schemas.Policy) bool {
	if cycle.Risk == schemas.RiskHigh && policy.RiskTolerance != schemas.RiskToleranceHigh {
		return true
	}
	return cycle.Confidence < LowConfidenceThreshold(policy)
}
