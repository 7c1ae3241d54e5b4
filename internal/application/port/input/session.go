package input

import (
	"context"

	"interactai/internal/domain/entity"
)

type SessionState string

const (
	StateIdle               SessionState = "idle"
	StateListening          SessionState = "listening"
	StateProcessingSnapshot SessionState = "processing_snapshot"
	StateProcessingAI       SessionState = "processing_ai"
	StateExecuting          SessionState = "executing"
	StateSuccess            SessionState = "success"
	StateError              SessionState = "error"
)

// SessionStatus is what the popup renders: current state plus the live
// transcript/response display.
type SessionStatus struct {
	State      SessionState `json:"state"`
	Transcript string       `json:"transcript,omitempty"`
	Response   string       `json:"response,omitempty"`
}

// SessionRunner drives one voice command through the full round trip:
// snapshot, interpretation, dispatch, feedback.
type SessionRunner interface {
	RunCommand(ctx context.Context, text string) (SessionStatus, error)
	RunQuickAction(ctx context.Context, action entity.QuickAction) (SessionStatus, error)
	ListenOnce(ctx context.Context) (SessionStatus, error)
	Status() SessionStatus
}
