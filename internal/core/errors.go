package core

import "errors"

var (
	// ErrNotFound: owner, report or conversation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput: empty message or missing identifiers; nothing was mutated.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState: phase sequence violation. Indicates a programming or
	// concurrency bug and is never swallowed.
	ErrInvalidState = errors.New("invalid state")

	// ErrGeneration: the model call failed, timed out or produced nothing
	// usable. The pending user message stays committed for retry.
	ErrGeneration = errors.New("generation failed")

	// ErrStorage: the persistence layer is unavailable.
	ErrStorage = errors.New("storage unavailable")
)
