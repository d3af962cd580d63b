package services

import "errors"

// Component-boundary errors. Handlers translate these into JSON responses;
// nothing below the handler layer panics or leaks a raw transport error.
var (
	ErrChallengeNotFound       = errors.New("challenge not found")
	ErrVerificationUnavailable = errors.New("verification service unavailable")
	ErrAssistantUnavailable    = errors.New("assistant service unavailable")
	ErrEmptyMessage            = errors.New("message is empty")
	ErrNoUser                  = errors.New("no user bound to session")
	ErrModuleNotFound          = errors.New("learning module not found")
)
