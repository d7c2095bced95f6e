package summarizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gitmonhq/gitmon/models"
)

// BuildPrompt renders the analyst prompt for one suspicious event. The
// requested section headers are what Parse looks for; the model is asked for
// them but never trusted to deliver.
func BuildPrompt(evt *models.Event) string {
	return fmt.Sprintf(`You are a cybersecurity analyst reviewing GitHub activity. Analyze this suspicious event and provide a structured incident summary.

EVENT DATA:
Type: %s
Repository: %s
Actor: %s
Created: %s
Payload: %s

Provide EXACTLY this format:

ROOT_CAUSE:
• [bullet point 1]
• [bullet point 2]
• [bullet point 3]

IMPACT:
• [bullet point 1]
• [bullet point 2]
• [bullet point 3]

NEXT_STEPS:
• [bullet point 1]
• [bullet point 2]
• [bullet point 3]

OVERALL_SUMMARY:
[2-3 sentence overview]

Keep each section to exactly 3 bullet points. Be specific about technical details, potential risks, and actionable recommendations.`,
		evt.Type,
		orUnknown(evt.RepoName),
		orUnknown(evt.ActorName),
		evt.CreatedAt.UTC().Format(time.RFC3339),
		prettyPayload(evt.RawPayload),
	)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// prettyPayload re-indents the raw payload for the prompt, passing it through
// untouched when it is not valid JSON.
func prettyPayload(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
