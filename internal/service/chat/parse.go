package chat

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fallbackReply is used when the model produced no usable reply text.
const fallbackReply = "I'm listening."

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

type turnOutput struct {
	Reply        string  `json:"reply"`
	PhaseSummary *string `json:"phase_summary"`
}

// ExtractTurnOutput pulls the two-field turn shape out of untrusted model
// output. When no JSON object can be recovered the whole response becomes
// the reply and the summary is empty; the turn degrades instead of failing.
func ExtractTurnOutput(raw string) (reply, summary string) {
	match := jsonObjectRe.FindString(raw)
	if match != "" {
		var out turnOutput
		if err := json.Unmarshal([]byte(match), &out); err == nil {
			reply = strings.TrimSpace(out.Reply)
			if out.PhaseSummary != nil {
				summary = strings.TrimSpace(*out.PhaseSummary)
			}
			if reply == "" {
				reply = fallbackReply
			}
			return reply, summary
		}
	}

	reply = strings.TrimSpace(raw)
	if reply == "" {
		reply = fallbackReply
	}
	return reply, ""
}
