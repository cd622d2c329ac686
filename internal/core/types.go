package core

import "time"

const (
	ParleyName          = "Parley"
	ParleyUserAgent     = "Parley-Mediator/0.1"
	ParleyRepositoryURL = "https://github.com/sandevgo/parley"
	ParleyVersion       = "0.1.0"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// PhaseBlockSize is the number of messages covered by a single phase
// summary: five complete user/assistant exchanges.
const PhaseBlockSize = 10

// ShortTermWindow is the maximum number of recent messages included
// verbatim in any prompt, regardless of total conversation length.
const ShortTermWindow = 10

type Message struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Phase is a durable summary of one completed block of PhaseBlockSize
// messages, used as compressed long-term memory.
type Phase struct {
	Number    int       `json:"phase_number"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ReportID  string    `json:"report_id"`
	Messages  []Message `json:"messages"`
	Phases    []Phase   `json:"phases"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is the analysis record a conversation is anchored to. ChatContext
// holds the compressed background handed to the model on every turn.
type Report struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Analysis    string    `json:"analysis"`
	ChatContext string    `json:"chat_context"`
	ModelUsed   string    `json:"model_used"`
	CreatedAt   time.Time `json:"created_at"`
}

// TurnResult is the outcome of one successful turn. PhaseCompleted is
// non-nil only when this turn closed a phase and a summary was recorded.
type TurnResult struct {
	Reply          string `json:"reply"`
	PhaseCompleted *Phase `json:"phase_completed,omitempty"`
}

const EventNewReply = "new_reply"

// Event is broadcast to observers after a successful turn.
type Event struct {
	Type           string    `json:"type"`
	OwnerID        string    `json:"owner_id"`
	ReportID       string    `json:"report_id"`
	Reply          string    `json:"reply_text"`
	PhaseCompleted *Phase    `json:"phase_completed,omitempty"`
	At             time.Time `json:"timestamp"`
}
