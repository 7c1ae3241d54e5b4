package output

import (
	"context"

	"interactai/internal/domain/entity"
)

type CompletionRequest struct {
	Messages    []entity.ChatMessage
	MaxTokens   int
	Temperature float32
}

// LLMPort is the text-completion provider. Implementations classify provider
// failures into *entity.AIError; they never retry on their own.
type LLMPort interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// ValidateKey makes a minimal round trip to check the stored credential.
	ValidateKey(ctx context.Context) error
}
