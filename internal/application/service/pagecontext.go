// Package service wires the use cases onto the message bus as the three
// execution contexts the rest of the system talks to: popup, background and
// page. Contexts share no memory; everything crosses the bus as JSON.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
	"interactai/internal/usecase/dispatcher"
	"interactai/internal/usecase/snapshot"
)

// PageContext is the in-page side of the system: it serves snapshot requests
// and executes directives against the live page. It detaches on navigation,
// which is what makes the sender's reinjection path real.
type PageContext struct {
	bus        output.MessageBus
	browser    output.BrowserPort
	extractor  *snapshot.Extractor
	dispatcher *dispatcher.UseCase
	logger     output.LoggerPort

	mu       sync.Mutex
	attached bool
}

func NewPageContext(bus output.MessageBus, browser output.BrowserPort, extractor *snapshot.Extractor, disp *dispatcher.UseCase, logger output.LoggerPort) *PageContext {
	return &PageContext{
		bus:        bus,
		browser:    browser,
		extractor:  extractor,
		dispatcher: disp,
		logger:     logger,
	}
}

// Attach registers the page context on the bus. Safe to call again after a
// Detach; that is exactly what reinjection does.
func (p *PageContext) Attach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bus.Register(entity.ContextPage, p.handle)
	p.attached = true
	p.logger.Debug("Page context attached")
}

// Detach clears any active highlights and removes the context from the bus.
// Called on navigation and page unload.
func (p *PageContext) Detach(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.attached {
		return
	}
	p.dispatcher.ClearHighlights(ctx)
	p.bus.Unregister(entity.ContextPage)
	p.attached = false
	p.logger.Debug("Page context detached")
}

func (p *PageContext) Attached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attached
}

func (p *PageContext) handle(ctx context.Context, req entity.BusRequest) entity.BusResponse {
	switch req.Type {
	case entity.MsgGetSnapshot:
		return p.handleSnapshot(ctx, req)
	case entity.MsgExecuteAction:
		return p.handleAction(ctx, req)
	default:
		return entity.BusResponse{ID: req.ID, OK: false, Error: fmt.Sprintf("page context: unsupported message %s", req.Type)}
	}
}

func (p *PageContext) handleSnapshot(ctx context.Context, req entity.BusRequest) entity.BusResponse {
	raw, err := p.browser.PageHTML(ctx)
	if err != nil {
		p.logger.Warn("Reading page HTML failed", "error", err)
		raw = ""
	}
	snap := p.extractor.Extract(raw, p.browser.CurrentURL(), p.browser.PageTitle())

	payload, err := json.Marshal(snap)
	if err != nil {
		return entity.BusResponse{ID: req.ID, OK: false, Error: fmt.Sprintf("encode snapshot: %v", err)}
	}
	return entity.BusResponse{ID: req.ID, OK: true, Payload: payload}
}

func (p *PageContext) handleAction(ctx context.Context, req entity.BusRequest) entity.BusResponse {
	var directive entity.ActionDirective
	if err := json.Unmarshal(req.Payload, &directive); err != nil {
		return entity.BusResponse{ID: req.ID, OK: false, Error: fmt.Sprintf("decode directive: %v", err)}
	}

	result := p.dispatcher.Dispatch(ctx, directive)

	payload, err := json.Marshal(result)
	if err != nil {
		return entity.BusResponse{ID: req.ID, OK: false, Error: fmt.Sprintf("encode result: %v", err)}
	}
	return entity.BusResponse{ID: req.ID, OK: true, Payload: payload}
}
