package output

import (
	"context"

	"interactai/internal/domain/entity"
)

// TextSearch controls element-by-text matching. Only direct text nodes are
// considered; substring and case-insensitive by default.
type TextSearch struct {
	Scope         string // CSS selector restricting the candidate set, "*" when empty
	Exact         bool
	CaseSensitive bool
	Limit         int
}

// ElementHandle is a live handle to one page element. All operations go
// through the hosting browser; handles become stale after navigation.
type ElementHandle interface {
	Visible() bool
	Text() string
	TagName() string
	Attribute(name string) (string, bool)

	Click(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error

	// InlineStyles returns the current inline values of the given properties
	// so they can be restored after a highlight.
	InlineStyles(ctx context.Context, props []string) (map[string]string, error)
	SetInlineStyles(ctx context.Context, styles map[string]string) error

	// SetValue sets an input's value and dispatches a synthetic input event.
	SetValue(ctx context.Context, value string) error
	// SubmitEnclosingForm submits the closest form, reporting whether one
	// existed.
	SubmitEnclosingForm(ctx context.Context) (bool, error)
	PressEnter(ctx context.Context) error
	// ClickAdjacentSubmit clicks a nearby submit-labeled button, reporting
	// whether one was found.
	ClickAdjacentSubmit(ctx context.Context) (bool, error)
}

// BrowserPort drives the single active page. Malformed selectors are
// reported as not-found, never as a crash.
type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL() string
	PageTitle() string
	PageHTML(ctx context.Context) (string, error)

	// Query returns the first visible match for a CSS selector, nil when
	// nothing matches or the selector is malformed.
	Query(ctx context.Context, selector string) (ElementHandle, error)
	QueryAll(ctx context.Context, selector string) ([]ElementHandle, error)
	FindByText(ctx context.Context, text string, opts TextSearch) ([]ElementHandle, error)
	// MainContentText returns up to limit chars of the main-content
	// container's visible text.
	MainContentText(ctx context.Context, limit int) (string, error)

	Screenshot(ctx context.Context) (*entity.Screenshot, error)
	Close()
}
