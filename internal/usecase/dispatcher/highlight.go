package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

// highlightProps are the inline style properties saved before a highlight
// and restored on revert.
var highlightProps = []string{"box-shadow", "outline", "background-color", "transition"}

var pricingSelectors = `[class*="price"], [class*="pricing"], [id*="price"], [id*="pricing"]`

var contactSelectors = `[class*="contact"], [id*="contact"], a[href^="mailto:"], a[href^="tel:"]`

var pricingKeywords = []string{"price", "pricing", "cost", "$", "free", "premium", "subscription", "plan"}

var contactKeywords = []string{"contact", "email", "phone", "call", "reach", "support"}

const containerScope = "div, section, article, span, p, h1, h2, h3, h4, footer, header"

func (uc *UseCase) executeHighlight(ctx context.Context, text string) entity.ActionResult {
	if text == "" {
		return failure("No text specified")
	}

	// Directive-specific shortcuts before the generic text search.
	var elements []output.ElementHandle
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "pric"):
		elements = uc.findHeuristic(ctx, pricingSelectors, pricingKeywords)
	case strings.Contains(lower, "contact"):
		elements = uc.findHeuristic(ctx, contactSelectors, contactKeywords)
	default:
		elements, _ = uc.browser.FindByText(ctx, text, output.TextSearch{Limit: maxHighlightTargets})
	}

	if len(elements) == 0 {
		return failure(fmt.Sprintf("No elements found matching: %s", text))
	}

	count := uc.highlightBatch(ctx, elements, highlightColor)
	return entity.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Highlighted %d element(s)", count),
		Count:   count,
	}
}

// findHeuristic tries the structural class/id scan first and falls back to a
// keyword scan over container-like elements.
func (uc *UseCase) findHeuristic(ctx context.Context, selectors string, keywords []string) []output.ElementHandle {
	elements, err := uc.browser.QueryAll(ctx, selectors)
	if err == nil {
		var visible []output.ElementHandle
		for _, el := range elements {
			if !el.Visible() {
				continue
			}
			visible = append(visible, el)
			if len(visible) >= maxHeuristicTargets {
				break
			}
		}
		if len(visible) > 0 {
			return visible
		}
	}

	var out []output.ElementHandle
	for _, kw := range keywords {
		found, err := uc.browser.FindByText(ctx, kw, output.TextSearch{
			Scope: containerScope,
			Limit: maxHeuristicTargets - len(out),
		})
		if err != nil {
			continue
		}
		out = append(out, found...)
		if len(out) >= maxHeuristicTargets {
			break
		}
	}
	return out
}

// highlightBatch adopts a new batch of highlights: the previous batch's
// revert timer is cancelled and its styles restored first, so only one batch
// is ever active. Returns how many elements were actually styled.
func (uc *UseCase) highlightBatch(ctx context.Context, elements []output.ElementHandle, color string) int {
	uc.ClearHighlights(ctx)

	var records []highlightRecord
	for i, el := range elements {
		if i > 0 && uc.cfg.Stagger > 0 {
			time.Sleep(uc.cfg.Stagger)
		}
		original, err := el.InlineStyles(ctx, highlightProps)
		if err != nil {
			continue
		}
		err = el.SetInlineStyles(ctx, map[string]string{
			"transition": "all 0.3s ease",
			"box-shadow": fmt.Sprintf("0 0 0 4px %s, 0 0 20px %s", color, color),
			"outline":    fmt.Sprintf("3px solid %s", color),
		})
		if err != nil {
			continue
		}
		_ = el.ScrollIntoView(ctx)
		records = append(records, highlightRecord{el: el, original: original})
	}

	uc.mu.Lock()
	uc.active = records
	if len(records) > 0 {
		uc.revertTimer = time.AfterFunc(uc.cfg.HighlightDuration, func() {
			uc.ClearHighlights(context.Background())
		})
	}
	uc.mu.Unlock()

	return len(records)
}

// ClearHighlights reverts the active batch to its pre-highlight inline
// styles. Reverting twice is harmless: the second call finds no records.
func (uc *UseCase) ClearHighlights(ctx context.Context) {
	uc.mu.Lock()
	records := uc.active
	uc.active = nil
	if uc.revertTimer != nil {
		uc.revertTimer.Stop()
		uc.revertTimer = nil
	}
	uc.mu.Unlock()

	for _, r := range records {
		if err := r.el.SetInlineStyles(ctx, r.original); err != nil {
			uc.logger.Debug("Highlight revert failed", "error", err)
		}
	}
}

// ActiveHighlights reports the size of the current batch.
func (uc *UseCase) ActiveHighlights() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.active)
}
