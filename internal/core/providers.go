package core

import "context"

// AIProvider sends an assembled prompt to a model and returns the raw
// assistant message. Output parsing happens on the caller side; providers
// make no promises about the response being well-formed.
type AIProvider interface {
	Chat(ctx context.Context, messages []Message) (Message, error)
}

// Notifier broadcasts turn events to observers. Publishing is
// fire-and-forget: a failed or dropped delivery never fails the turn.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}
