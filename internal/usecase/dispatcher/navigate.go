package dispatcher

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

func (uc *UseCase) executeNavigation(ctx context.Context, intent string) entity.ActionResult {
	if intent == "" {
		return failure("No navigation intent specified")
	}

	target, ok := uc.tables.ResolveIntent(intent)
	if !ok {
		return failure(fmt.Sprintf(
			`Could not understand navigation intent: %q. Try phrases like "my orders", "change address", etc.`, intent))
	}

	current, err := url.Parse(uc.browser.CurrentURL())
	if err != nil {
		return failure("Current page URL is not usable for navigation")
	}

	family := uc.tables.Family(current.Hostname())
	patterns := uc.tables.Patterns(family, target)
	if len(patterns) == 0 {
		return failure(fmt.Sprintf("%q navigation not supported on %s", target, current.Hostname()))
	}

	uc.logger.Debug("Resolving navigation",
		"intent", intent, "target", target, "family", family, "patterns", len(patterns))

	// Patterns are tried in listed order; the first usable one wins.
	for _, p := range patterns {
		switch p.Kind {
		case PatternPath:
			full := p.Value
			if full[0] == '/' {
				full = current.Scheme + "://" + current.Host + p.Value
			}
			if err := uc.browser.Navigate(ctx, full); err != nil {
				uc.logger.Warn("Navigation failed", "url", full, "error", err)
				continue
			}
			return entity.ActionResult{
				Success: true,
				Message: fmt.Sprintf("Navigating to %s...", target),
				Method:  entity.MethodRedirect,
			}

		case PatternSelector:
			el, err := uc.browser.Query(ctx, p.Value)
			if err != nil || el == nil || !el.Visible() {
				continue
			}
			if err := uc.clickWithHighlight(ctx, el); err != nil {
				uc.logger.Warn("Pattern click failed", "selector", p.Value, "error", err)
				continue
			}
			return entity.ActionResult{
				Success: true,
				Message: fmt.Sprintf("Clicking %s link...", target),
				Method:  entity.MethodClick,
			}
		}
	}

	return failure(fmt.Sprintf("Could not find %s on this page. You may need to be logged in.", target))
}

// clickWithHighlight draws attention to the element briefly before the
// click, matching the highlight-then-delayed-click pattern flow.
func (uc *UseCase) clickWithHighlight(ctx context.Context, el output.ElementHandle) error {
	uc.highlightBatch(ctx, []output.ElementHandle{el}, accentColor)
	if uc.cfg.ClickDelay > 0 {
		time.Sleep(uc.cfg.ClickDelay)
	}
	return el.Click(ctx)
}
