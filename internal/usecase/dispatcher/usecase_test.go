package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                      {}
func (nopLogger) Info(string, ...any)                       {}
func (nopLogger) Warn(string, ...any)                       {}
func (nopLogger) Error(string, ...any)                      {}
func (l nopLogger) WithField(string, any) output.LoggerPort { return l }
func (nopLogger) Close() error                              { return nil }

func testConfig() Config {
	return Config{HighlightDuration: time.Minute, Stagger: 0, ClickDelay: 0}
}

func newTestUseCase(t *testing.T, browser output.BrowserPort) *UseCase {
	t.Helper()
	tables, err := LoadNavTables()
	require.NoError(t, err)
	return New(browser, tables, nopLogger{}, testConfig())
}

func TestDispatch_UnknownAction(t *testing.T) {
	uc := newTestUseCase(t, newFakeBrowser("https://x.test"))

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: "explode", Text: "x"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Unknown action")
}

func TestDispatch_HighlightByText(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	a, b := newFakeElement("free trial"), newFakeElement("free tier")
	browser.textResults["free"] = []output.ElementHandle{a, b}
	uc := newTestUseCase(t, browser)

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionHighlight, Text: "free"})

	require.True(t, res.Success)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 2, uc.ActiveHighlights())
	assert.Contains(t, a.styles["box-shadow"], "rgba(255, 255, 0")
	assert.Contains(t, a.styles["outline"], "3px solid")
	assert.Equal(t, 1, a.scrolled, "highlighted elements scroll into view")
}

func TestDispatch_HighlightPricingShortcut(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	block := newFakeElement("Gold $9.99/mo")
	browser.queryResults[pricingSelectors] = []output.ElementHandle{block}
	uc := newTestUseCase(t, browser)

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionHighlight, Text: "pricing"})

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Count)
	assert.Empty(t, browser.findCalls, "structural scan must win over text search")
}

func TestDispatch_HighlightSkipsHiddenStructuralMatches(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	hidden := newFakeElement("Gold $9.99/mo")
	hidden.visible = false
	shown := newFakeElement("Silver $4.99/mo")
	browser.queryResults[pricingSelectors] = []output.ElementHandle{hidden, shown}
	uc := newTestUseCase(t, browser)

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionHighlight, Text: "pricing"})

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Count)
	assert.Zero(t, hidden.setCalls, "hidden elements must not be styled")
	assert.Zero(t, hidden.scrolled)
	assert.Equal(t, 1, shown.setCalls)
}

func TestDispatch_HighlightAllStructuralMatchesHidden(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	hidden := newFakeElement("Gold $9.99/mo")
	hidden.visible = false
	browser.queryResults[pricingSelectors] = []output.ElementHandle{hidden}
	visible := newFakeElement("pricing details below")
	browser.textResults["price"] = []output.ElementHandle{visible}
	uc := newTestUseCase(t, browser)

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionHighlight, Text: "pricing"})

	require.True(t, res.Success)
	assert.NotEmpty(t, browser.findCalls, "keyword scan must take over when nothing structural is visible")
	assert.Zero(t, hidden.setCalls)
}

func TestDispatch_HighlightContactKeywordFallback(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	footer := newFakeElement("Reach our support team")
	browser.textResults["support"] = []output.ElementHandle{footer}
	uc := newTestUseCase(t, browser)

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionHighlight, Text: "contact info"})

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Count)
}

func TestDispatch_HighlightNotFound(t *testing.T) {
	uc := newTestUseCase(t, newFakeBrowser("https://x.test"))

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionHighlight, Text: "nonexistent"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "No elements found")
}

func TestHighlight_RevertIsIdempotent(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	el := newFakeElement("target")
	el.styles["box-shadow"] = "inset 0 0 2px red"
	browser.textResults["target"] = []output.ElementHandle{el}
	uc := newTestUseCase(t, browser)

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionHighlight, Text: "target"})
	require.True(t, res.Success)
	require.NotEqual(t, "inset 0 0 2px red", el.styles["box-shadow"])

	uc.ClearHighlights(context.Background())
	assert.Equal(t, "inset 0 0 2px red", el.styles["box-shadow"], "original inline style restored")
	assert.Equal(t, 0, uc.ActiveHighlights())
	setCallsAfterRevert := el.setCalls

	uc.ClearHighlights(context.Background())
	assert.Equal(t, setCallsAfterRevert, el.setCalls, "second revert must be a no-op")
}

func TestHighlight_NewBatchRevertsPrevious(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	first, second := newFakeElement("alpha"), newFakeElement("beta")
	browser.textResults["alpha"] = []output.ElementHandle{first}
	browser.textResults["beta"] = []output.ElementHandle{second}
	uc := newTestUseCase(t, browser)

	uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionHighlight, Text: "alpha"})
	uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionHighlight, Text: "beta"})

	assert.Empty(t, first.styles["outline"], "previous batch reverted when a new one arrives")
	assert.Contains(t, second.styles["outline"], "3px solid")
	assert.Equal(t, 1, uc.ActiveHighlights())
}

func TestHighlight_AutoRevertAfterDuration(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	el := newFakeElement("flash")
	browser.textResults["flash"] = []output.ElementHandle{el}

	tables, err := LoadNavTables()
	require.NoError(t, err)
	uc := New(browser, tables, nopLogger{}, Config{HighlightDuration: 20 * time.Millisecond})

	uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionHighlight, Text: "flash"})
	require.Equal(t, 1, uc.ActiveHighlights())

	assert.Eventually(t, func() bool { return uc.ActiveHighlights() == 0 },
		time.Second, 5*time.Millisecond, "highlight batch must auto-revert")
}

func TestDispatch_ScrollToHeading(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	heading := newFakeElement("Customer Reviews")
	browser.textResults["reviews"] = []output.ElementHandle{heading}
	uc := newTestUseCase(t, browser)

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionScroll, Text: "reviews"})

	require.True(t, res.Success)
	assert.Contains(t, res.Message, "Scrolled to")
	assert.Equal(t, 1, heading.scrolled)
	require.Len(t, browser.findCalls, 1)
	assert.Equal(t, "h1, h2, h3, h4, h5, h6", browser.findCalls[0].Scope, "scroll only matches headings")
}

func TestDispatch_ScrollSectionMissing(t *testing.T) {
	uc := newTestUseCase(t, newFakeBrowser("https://x.test"))

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionScroll, Text: "faq"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Section not found")
}

func TestDispatch_Click(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	btn := newFakeElement("Add to cart")
	browser.textResults["add to cart"] = []output.ElementHandle{btn}
	uc := newTestUseCase(t, browser)

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionClick, Text: "Add to cart"})

	require.True(t, res.Success)
	assert.Equal(t, 1, btn.clicked)
}

func TestDispatch_ClickFailure(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	btn := newFakeElement("Buy")
	btn.clickErr = assert.AnError
	browser.textResults["buy"] = []output.ElementHandle{btn}
	uc := newTestUseCase(t, browser)

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionClick, Text: "Buy"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "not clickable")
}

func TestDispatch_Read(t *testing.T) {
	browser := newFakeBrowser("https://x.test")
	browser.mainText = "The quick brown fox jumps over the lazy dog."
	uc := newTestUseCase(t, browser)

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionRead, Text: "main content"})

	require.True(t, res.Success)
	assert.Equal(t, browser.mainText, res.Text)
}

func TestDispatch_ReadEmptyPage(t *testing.T) {
	uc := newTestUseCase(t, newFakeBrowser("https://x.test"))

	res := uc.Dispatch(context.Background(), entity.ActionDirective{Action: entity.ActionRead})

	assert.False(t, res.Success)
}
