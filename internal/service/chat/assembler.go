package chat

import (
	"fmt"
	"strings"

	"github.com/sandevgo/parley/internal/core"
)

const (
	noContextPlaceholder = "No background context."
	noPhasesPlaceholder  = "Start of conversation (No phases yet)."
)

// PromptRequest carries everything the assembler is allowed to see. The
// recent slice is the only view of the message log it ever gets, which
// bounds the prompt size independently of conversation length.
type PromptRequest struct {
	SubjectContext string
	Phases         []core.Phase
	Recent         []core.Message
	UserMessage    string
	PhaseEnd       bool
	PhaseNumber    int
}

// BuildPrompt composes the model request: static subject context, then
// long-term memory (phase summaries), then the short-term window, then
// task instructions and the required two-field JSON output shape.
func BuildPrompt(req PromptRequest) string {
	subjectContext := req.SubjectContext
	if strings.TrimSpace(subjectContext) == "" {
		subjectContext = noContextPlaceholder
	}

	longTerm := noPhasesPlaceholder
	if len(req.Phases) > 0 {
		parts := make([]string, 0, len(req.Phases))
		for _, p := range req.Phases {
			parts = append(parts, fmt.Sprintf("[PHASE %d SUMMARY]: %s", p.Number, p.Summary))
		}
		longTerm = strings.Join(parts, "\n\n")
	}

	recent := req.Recent
	if len(recent) > core.ShortTermWindow {
		recent = recent[len(recent)-core.ShortTermWindow:]
	}
	lines := make([]string, 0, len(recent))
	for _, m := range recent {
		role := "User"
		if m.Role != core.RoleUser {
			role = "AI"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, m.Content))
	}
	shortTerm := strings.Join(lines, "\n")

	var sb strings.Builder
	sb.WriteString("ROLE: You are an elite mediation negotiator guiding a conflict toward resolution.\n\n")

	sb.WriteString("=== STATIC CONTEXT ===\n")
	sb.WriteString(subjectContext)
	sb.WriteString("\n\n")

	sb.WriteString("=== PREVIOUS COMPLETED PHASES ===\n")
	sb.WriteString(longTerm)
	sb.WriteString("\n\n")

	sb.WriteString("=== RECENT MESSAGES (Current Phase) ===\n")
	sb.WriteString(shortTerm)
	sb.WriteString("\n\n")

	sb.WriteString("TASK:\n")
	sb.WriteString(taskInstructions(req.UserMessage, req.PhaseEnd, req.PhaseNumber))
	sb.WriteString("\n\n")

	sb.WriteString("OUTPUT JSON FORMAT:\n")
	sb.WriteString(`{
  "reply": "response text...",
  "phase_summary": "Summary text ONLY if requested, otherwise null"
}`)

	return sb.String()
}

func taskInstructions(userMessage string, phaseEnd bool, phaseNumber int) string {
	if !phaseEnd {
		return fmt.Sprintf(
			"1. Analyze the USER'S MESSAGE (%q).\n"+
				"2. Generate a tactical REPLY (1-2 sentences).\n"+
				`3. "phase_summary" field should be NULL (do not summarize yet).`,
			userMessage,
		)
	}

	return fmt.Sprintf(
		"1. Analyze the USER'S MESSAGE (%q).\n"+
			"2. Generate a tactical REPLY (1-2 sentences).\n"+
			"3. CRITICAL: This is the end of Phase %d.\n"+
			`   You MUST summarize the last 5 exchanges (the content in RECENT MESSAGES) into the "phase_summary" field.`+"\n"+
			"   Focus on key decisions, emotional shifts, and the result of this block.",
		userMessage, phaseNumber,
	)
}
