package dispatcher

import (
	"context"
	"strings"
	"sync"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

type fakeElement struct {
	mu       sync.Mutex
	visible  bool
	text     string
	tag      string
	attrs    map[string]string
	styles   map[string]string
	setCalls int

	clicked  int
	clickErr error
	scrolled int

	value          string
	hasForm        bool
	formSubmitted  bool
	enterPressed   bool
	adjacentSubmit bool
	adjacentUsed   bool
}

func newFakeElement(text string) *fakeElement {
	return &fakeElement{
		visible: true,
		text:    text,
		tag:     "div",
		attrs:   map[string]string{},
		styles:  map[string]string{},
	}
}

func (f *fakeElement) Visible() bool   { return f.visible }
func (f *fakeElement) Text() string    { return f.text }
func (f *fakeElement) TagName() string { return f.tag }

func (f *fakeElement) Attribute(name string) (string, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

func (f *fakeElement) Click(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clickErr != nil {
		return f.clickErr
	}
	f.clicked++
	return nil
}

func (f *fakeElement) ScrollIntoView(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolled++
	return nil
}

func (f *fakeElement) InlineStyles(ctx context.Context, props []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(props))
	for _, p := range props {
		out[p] = f.styles[p]
	}
	return out, nil
}

func (f *fakeElement) SetInlineStyles(ctx context.Context, styles map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	for k, v := range styles {
		f.styles[k] = v
	}
	return nil
}

func (f *fakeElement) SetValue(ctx context.Context, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = value
	return nil
}

func (f *fakeElement) SubmitEnclosingForm(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasForm {
		return false, nil
	}
	f.formSubmitted = true
	return true, nil
}

func (f *fakeElement) PressEnter(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enterPressed = true
	return nil
}

func (f *fakeElement) ClickAdjacentSubmit(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.adjacentSubmit {
		return false, nil
	}
	f.adjacentUsed = true
	return true, nil
}

type fakeBrowser struct {
	url      string
	title    string
	html     string
	mainText string

	// queryResults is keyed by CSS selector, textResults by search text.
	queryResults map[string][]output.ElementHandle
	textResults  map[string][]output.ElementHandle
	findCalls    []output.TextSearch

	navigated []string
	navErr    error
}

func newFakeBrowser(url string) *fakeBrowser {
	return &fakeBrowser{
		url:          url,
		queryResults: map[string][]output.ElementHandle{},
		textResults:  map[string][]output.ElementHandle{},
	}
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error {
	if f.navErr != nil {
		return f.navErr
	}
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeBrowser) CurrentURL() string { return f.url }
func (f *fakeBrowser) PageTitle() string  { return f.title }

func (f *fakeBrowser) PageHTML(ctx context.Context) (string, error) { return f.html, nil }

func (f *fakeBrowser) Query(ctx context.Context, selector string) (output.ElementHandle, error) {
	els := f.queryResults[selector]
	if len(els) == 0 {
		return nil, nil
	}
	return els[0], nil
}

func (f *fakeBrowser) QueryAll(ctx context.Context, selector string) ([]output.ElementHandle, error) {
	return f.queryResults[selector], nil
}

func (f *fakeBrowser) FindByText(ctx context.Context, text string, opts output.TextSearch) ([]output.ElementHandle, error) {
	f.findCalls = append(f.findCalls, opts)
	els := f.textResults[strings.ToLower(text)]
	if opts.Limit > 0 && len(els) > opts.Limit {
		els = els[:opts.Limit]
	}
	return els, nil
}

func (f *fakeBrowser) MainContentText(ctx context.Context, limit int) (string, error) {
	if len(f.mainText) > limit {
		return f.mainText[:limit], nil
	}
	return f.mainText, nil
}

func (f *fakeBrowser) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	return &entity.Screenshot{Format: "jpeg"}, nil
}

func (f *fakeBrowser) Close() {}
