package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
	"interactai/internal/usecase/interpreter"
)

// BackgroundContext owns the model round trip. The popup never talks to the
// provider directly; it sends AI_REQUEST here and gets back either a typed
// reply or the user-facing error text.
type BackgroundContext struct {
	bus         output.MessageBus
	interpreter *interpreter.UseCase
	logger      output.LoggerPort
}

func NewBackgroundContext(bus output.MessageBus, interp *interpreter.UseCase, logger output.LoggerPort) *BackgroundContext {
	return &BackgroundContext{bus: bus, interpreter: interp, logger: logger}
}

func (b *BackgroundContext) Attach() {
	b.bus.Register(entity.ContextBackground, b.handle)
	b.logger.Debug("Background context attached")
}

func (b *BackgroundContext) handle(ctx context.Context, req entity.BusRequest) entity.BusResponse {
	if req.Type != entity.MsgAIRequest {
		return entity.BusResponse{ID: req.ID, OK: false, Error: fmt.Sprintf("background context: unsupported message %s", req.Type)}
	}

	var payload entity.AIRequestPayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		return entity.BusResponse{ID: req.ID, OK: false, Error: fmt.Sprintf("decode request: %v", err)}
	}
	if payload.Snapshot == nil {
		return entity.BusResponse{ID: req.ID, OK: false, Error: "decode request: missing page snapshot"}
	}

	reply, err := b.interpreter.Interpret(ctx, payload.Command, payload.Snapshot)
	if err != nil {
		var aiErr *entity.AIError
		if errors.As(err, &aiErr) {
			b.logger.Warn("Interpretation failed", "kind", aiErr.Kind, "status", aiErr.Status)
			return entity.BusResponse{ID: req.ID, OK: false, Error: aiErr.UserMessage()}
		}
		b.logger.Error("Interpretation failed", "error", err)
		return entity.BusResponse{ID: req.ID, OK: false, Error: err.Error()}
	}

	out, err := json.Marshal(reply)
	if err != nil {
		return entity.BusResponse{ID: req.ID, OK: false, Error: fmt.Sprintf("encode reply: %v", err)}
	}
	return entity.BusResponse{ID: req.ID, OK: true, Payload: out}
}
