package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUserNotFound is returned when a banking record references an unknown user.
var ErrUserNotFound = errors.New("user not found")

// ErrCardNotFound is returned when a card ID cannot be found.
var ErrCardNotFound = errors.New("card not found")

// ErrUnknownTool is returned when a tool name is not in the dispatch table.
var ErrUnknownTool = errors.New("unknown tool")

// ErrCompletionUnavailable is returned when no completion service is configured
// or the service cannot be reached.
var ErrCompletionUnavailable = errors.New("completion service unavailable")

// ErrEmptyCompletion is returned when the service answers with no choices.
var ErrEmptyCompletion = errors.New("empty completion")

// ErrPruneUnsupported is returned when a store cannot drop idle sessions.
var ErrPruneUnsupported = errors.New("store does not support pruning")
