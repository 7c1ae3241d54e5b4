package entity

import "fmt"

type AIErrorKind string

const (
	AIErrMissingKey   AIErrorKind = "missing_key"
	AIErrInvalidKey   AIErrorKind = "invalid_key"
	AIErrRateLimited  AIErrorKind = "rate_limited"
	AIErrModelLoading AIErrorKind = "model_loading"
	AIErrTimeout      AIErrorKind = "timeout"
	AIErrAPI          AIErrorKind = "api"
	AIErrBusy         AIErrorKind = "busy"
)

// AIError classifies a provider failure. None of these are retried
// automatically; the hint is surfaced verbatim to the user.
type AIError struct {
	Kind    AIErrorKind
	Status  int
	Message string
	Hint    string
}

func (e *AIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// UserMessage renders the error the way the popup shows it.
func (e *AIError) UserMessage() string {
	if e.Hint != "" {
		return e.Message + " " + e.Hint
	}
	return e.Message
}

func NewAIError(kind AIErrorKind, status int, message, hint string) *AIError {
	return &AIError{Kind: kind, Status: status, Message: message, Hint: hint}
}
