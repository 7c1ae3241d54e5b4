package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

const (
	defaultHighlightDuration = 5 * time.Second
	defaultStagger           = 100 * time.Millisecond
	maxHighlightTargets      = 5
	maxHeuristicTargets      = 10
	readLimitChars           = 500
	clickDelay               = 300 * time.Millisecond

	highlightColor = "rgba(255, 255, 0, 0.6)"
	accentColor    = "rgba(100, 200, 255, 0.6)"
)

// Config tunes timing so tests can run without real delays.
type Config struct {
	HighlightDuration time.Duration
	Stagger           time.Duration
	ClickDelay        time.Duration
}

func DefaultConfig() Config {
	return Config{
		HighlightDuration: defaultHighlightDuration,
		Stagger:           defaultStagger,
		ClickDelay:        clickDelay,
	}
}

// UseCase executes one typed directive against the live page. It owns the
// highlight lifecycle: one active batch at a time, auto-reverted on timeout,
// on the next highlight request, or on page unload.
type UseCase struct {
	browser output.BrowserPort
	tables  *NavTables
	logger  output.LoggerPort
	cfg     Config

	mu          sync.Mutex
	active      []highlightRecord
	revertTimer *time.Timer
}

type highlightRecord struct {
	el       output.ElementHandle
	original map[string]string
}

func New(browser output.BrowserPort, tables *NavTables, logger output.LoggerPort, cfg Config) *UseCase {
	if cfg.HighlightDuration <= 0 {
		cfg.HighlightDuration = defaultHighlightDuration
	}
	return &UseCase{browser: browser, tables: tables, logger: logger, cfg: cfg}
}

// Dispatch runs one directive to completion and always produces a result;
// execution failures are reported, never propagated as faults.
func (uc *UseCase) Dispatch(ctx context.Context, d entity.ActionDirective) entity.ActionResult {
	uc.logger.Info("Dispatching action", "action", d.Action, "text", d.Text)

	if !d.Action.Valid() {
		return failure(fmt.Sprintf("Unknown action: %s", d.Action))
	}

	switch d.Action {
	case entity.ActionHighlight:
		return uc.executeHighlight(ctx, d.Text)
	case entity.ActionScroll:
		return uc.executeScroll(ctx, d.Text)
	case entity.ActionClick:
		return uc.executeClick(ctx, d.Text)
	case entity.ActionNavigate:
		return uc.executeNavigation(ctx, d.Text)
	case entity.ActionSiteSearch:
		return uc.executeSearch(ctx, d.Text)
	case entity.ActionRead:
		return uc.executeRead(ctx)
	default:
		return failure(fmt.Sprintf("Unknown action: %s", d.Action))
	}
}

func (uc *UseCase) executeScroll(ctx context.Context, section string) entity.ActionResult {
	if section == "" {
		return failure("No section specified")
	}

	headings, err := uc.browser.FindByText(ctx, section, output.TextSearch{
		Scope: "h1, h2, h3, h4, h5, h6",
		Limit: 1,
	})
	if err != nil || len(headings) == 0 {
		return failure(fmt.Sprintf("Section not found: %s", section))
	}

	uc.highlightBatch(ctx, headings[:1], accentColor)
	return entity.ActionResult{Success: true, Message: fmt.Sprintf("Scrolled to: %s", section)}
}

func (uc *UseCase) executeClick(ctx context.Context, target string) entity.ActionResult {
	if target == "" {
		return failure("No element specified")
	}

	elements, err := uc.browser.FindByText(ctx, target, output.TextSearch{Limit: 1})
	if err != nil || len(elements) == 0 {
		return failure(fmt.Sprintf("Element not found or not clickable: %s", target))
	}

	if err := elements[0].Click(ctx); err != nil {
		uc.logger.Warn("Click failed", "target", target, "error", err)
		return failure(fmt.Sprintf("Element not found or not clickable: %s", target))
	}
	return entity.ActionResult{Success: true, Message: fmt.Sprintf("Clicked: %s", target)}
}

func (uc *UseCase) executeRead(ctx context.Context) entity.ActionResult {
	text, err := uc.browser.MainContentText(ctx, readLimitChars)
	if err != nil || text == "" {
		return failure("No readable content found on this page")
	}
	// The dispatcher only extracts; the caller owns the synthesizer.
	return entity.ActionResult{
		Success: true,
		Message: "Content ready to be read",
		Text:    text,
	}
}

func failure(msg string) entity.ActionResult {
	return entity.ActionResult{Success: false, Message: msg}
}
