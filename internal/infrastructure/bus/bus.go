// Package bus provides the in-process message transport between the popup,
// background and page contexts. It mimics the host messaging model the rest
// of the system is written against: per-context single-threaded delivery,
// FIFO per channel, at-most-once, and a distinct "no receiver" failure when
// the target context is not alive.
package bus

import (
	"context"
	"fmt"
	"sync"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

const mailboxDepth = 16

type delivery struct {
	ctx   context.Context
	req   entity.BusRequest
	reply chan entity.BusResponse
}

type mailbox struct {
	queue chan delivery
	done  chan struct{}
}

type InProcBus struct {
	logger output.LoggerPort

	mu       sync.RWMutex
	contexts map[entity.ContextName]*mailbox
	closed   bool
}

var _ output.MessageBus = (*InProcBus)(nil)

func New(logger output.LoggerPort) *InProcBus {
	return &InProcBus{
		logger:   logger,
		contexts: make(map[entity.ContextName]*mailbox),
	}
}

// Register installs a context's handler and starts its event loop. A second
// Register for the same name replaces the previous incarnation.
func (b *InProcBus) Register(name entity.ContextName, h output.BusHandler) {
	box := &mailbox{
		queue: make(chan delivery, mailboxDepth),
		done:  make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if old, ok := b.contexts[name]; ok {
		close(old.done)
	}
	b.contexts[name] = box
	b.mu.Unlock()

	go b.run(name, box, h)
}

func (b *InProcBus) run(name entity.ContextName, box *mailbox, h output.BusHandler) {
	for {
		select {
		case <-box.done:
			return
		case d := <-box.queue:
			resp := b.handle(h, d)
			select {
			case d.reply <- resp:
			case <-d.ctx.Done():
			}
		}
	}
}

// handle guarantees a response even when the handler faults.
func (b *InProcBus) handle(h output.BusHandler, d delivery) (resp entity.BusResponse) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Bus handler panicked", "type", d.req.Type, "panic", r)
			resp = entity.BusResponse{ID: d.req.ID, OK: false, Error: fmt.Sprintf("handler panic: %v", r)}
		}
	}()
	return h(d.ctx, d.req)
}

// Unregister removes a context. It does not wait for in-flight work; senders
// blocked on a reply from the dying context fail through their own timeout.
func (b *InProcBus) Unregister(name entity.ContextName) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if box, ok := b.contexts[name]; ok {
		close(box.done)
		delete(b.contexts, name)
	}
}

func (b *InProcBus) Alive(name entity.ContextName) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.contexts[name]
	return ok
}

// Send delivers one request to the target context and awaits its single
// structured response. output.ErrNoReceiver reports a dead target; the
// caller owns any retry policy.
func (b *InProcBus) Send(ctx context.Context, target entity.ContextName, req entity.BusRequest) (entity.BusResponse, error) {
	b.mu.RLock()
	box, ok := b.contexts[target]
	b.mu.RUnlock()
	if !ok {
		return entity.BusResponse{}, fmt.Errorf("send %s to %s: %w", req.Type, target, output.ErrNoReceiver)
	}

	d := delivery{ctx: ctx, req: req, reply: make(chan entity.BusResponse, 1)}

	select {
	case box.queue <- d:
	case <-box.done:
		return entity.BusResponse{}, fmt.Errorf("send %s to %s: %w", req.Type, target, output.ErrNoReceiver)
	case <-ctx.Done():
		return entity.BusResponse{}, fmt.Errorf("send %s to %s: %w", req.Type, target, ctx.Err())
	}

	select {
	case resp := <-d.reply:
		return resp, nil
	case <-box.done:
		return entity.BusResponse{}, fmt.Errorf("await %s from %s: %w", req.Type, target, output.ErrNoReceiver)
	case <-ctx.Done():
		return entity.BusResponse{}, fmt.Errorf("await %s from %s: %w", req.Type, target, ctx.Err())
	}
}

func (b *InProcBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for name, box := range b.contexts {
		close(box.done)
		delete(b.contexts, name)
	}
}
