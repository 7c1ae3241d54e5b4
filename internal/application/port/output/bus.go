package output

import (
	"context"
	"errors"

	"interactai/internal/domain/entity"
)

// ErrNoReceiver reports that the target context is not alive. The sender is
// expected to attempt reinjection and retry, bounded.
var ErrNoReceiver = errors.New("no receiving context")

// BusHandler processes one request inside a context's single-threaded event
// loop. It must always produce a response rather than fault.
type BusHandler func(ctx context.Context, req entity.BusRequest) entity.BusResponse

// MessageBus is the only transport between the popup, background and page
// contexts. Delivery is best-effort, at-most-once, per-context FIFO.
type MessageBus interface {
	Register(name entity.ContextName, h BusHandler)
	Unregister(name entity.ContextName)
	Alive(name entity.ContextName) bool

	// Send delivers one request and awaits its single structured response.
	Send(ctx context.Context, target entity.ContextName, req entity.BusRequest) (entity.BusResponse, error)

	Close()
}
