package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

// sendWithRetry delivers one request to the page context with bounded
// retries. A "no receiver" failure triggers exactly one reinjection before
// the next attempt; exhaustion yields a terminal delivery error.
func (uc *UseCase) sendWithRetry(ctx context.Context, target entity.ContextName, req entity.BusRequest) (entity.BusResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= uc.cfg.MaxAttempts; attempt++ {
		resp, err := uc.bus.Send(ctx, target, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == uc.cfg.MaxAttempts {
			break
		}
		uc.logger.Info("Retrying message delivery", "target", target, "type", req.Type, "attempt", attempt)

		if errors.Is(err, output.ErrNoReceiver) && target == entity.ContextPage {
			uc.injector.Attach()
		}

		select {
		case <-time.After(uc.cfg.RetryBackoff):
		case <-ctx.Done():
			return entity.BusResponse{}, ctx.Err()
		}
	}
	return entity.BusResponse{}, fmt.Errorf("max retries reached: %w", lastErr)
}
