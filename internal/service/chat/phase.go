package chat

import "github.com/sandevgo/parley/internal/core"

// Phase boundaries are a pure function of message count. The user message
// is appended before the assistant reply, so the log length seen at
// decision time is odd: lengths 9, 19, 29, ... mark the end of a block of
// five exchanges (the pending reply will be message 10, 20, 30, ...).

// IsPhaseEnd reports whether the given post-user-append log length closes
// the current phase.
func IsPhaseEnd(messageCount int) bool {
	return messageCount%core.PhaseBlockSize == core.PhaseBlockSize-1
}

// PhaseNumber returns the 1-based number of the phase the given log
// length falls into.
func PhaseNumber(messageCount int) int {
	return (messageCount + core.PhaseBlockSize - 1) / core.PhaseBlockSize
}
