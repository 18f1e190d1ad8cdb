// File: internal/draft/composer.go
package draft

import (
	"fmt"
	"strings"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
)

// maxSnippetLen caps how much of the source text is quoted into a draft.
const maxSnippetLen = 90

// cleanSnippet collapses whitespace and truncates the source text so drafts
// stay short and stable under reformatting.
func cleanSnippet(text string) string {
	cleaned := strings.TrimSpace(strings.Join(strings.Fields(text), " "))
	// Truncate on rune boundaries so multibyte text never yields invalid UTF-8.
	if runes := []rune(cleaned); len(runes) > maxSnippetLen {
		cleaned = string(runes[:maxSnippetLen])
	}
	return cleaned
}

// tonePrefix selects the fixed opener for a tone.
func tonePrefix(tone schemas.Tone) string {
	switch tone {
	case schemas.ToneFriendly:
		return "Great point"
	case schemas.ToneTechnical:
		return "Technical take"
	default:
		return "Quick thought"
	}
}

// ComposeReply renders a reply draft for the given item. Pure and
// deterministic: identical inputs always produce identical text, which the
// duplicate-draft detector relies on.
func ComposeReply(tone schemas.Tone, author, text, topic string) string {
	snippet := cleanSnippet(text)
	prefix := tonePrefix(tone)

	switch tone {
	case schemas.ToneTechnical:
		return fmt.Sprintf("%s: %s context looks actionable.\n- Key signal: %s\n- Suggested next step: share one measurable example.", prefix, topic, snippet)
	case schemas.ToneFriendly:
		return fmt.Sprintf("%s, %s. %s I would love to hear one concrete follow-up you recommend.", prefix, author, snippet)
	default:
		return fmt.Sprintf("%s: %s Could you share one practical next step?", prefix, snippet)
	}
}

// ComposePost renders a standalone post draft for a topic, referencing up to
// two related topics the run already follows.
func ComposePost(tone schemas.Tone, topic string, relatedTopics []string) string {
	related := "community updates"
	if len(relatedTopics) > 0 {
		capped := relatedTopics
		if len(capped) > 2 {
			capped = capped[:2]
		}
		related = strings.Join(capped, ", ")
	}

	switch tone {
	case schemas.ToneTechnical:
		return fmt.Sprintf("Topic: %s.\n- Current signal: strong interest in %s.\n- Plan: share a concise thread with one metric, one tradeoff, one next action.", topic, related)
	case schemas.ToneFriendly:
		return fmt.Sprintf("Checking in on %s today. We are tracking %s and would love your practical tips.", topic, related)
	default:
		return fmt.Sprintf("Brief update on %s: we are tracking %s and collecting practical feedback.", topic, related)
	}
}
