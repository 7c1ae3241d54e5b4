// Package rod drives the single live page over CDP. It is the hosting side
// of the page context: element discovery, style mutation and input
// simulation all happen here, in the real browser.
package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
}

type Config struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool
}

func DefaultConfig() Config {
	return Config{
		Headless:  false,
		Timeout:   10 * time.Second,
		NoSandbox: true,
	}
}

func New(ctx context.Context, cfg Config) (*BrowserAdapter, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-setuid-sandbox")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
	}, nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	if err := b.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := b.page.Context(ctx).WaitLoad(); err != nil {
		return fmt.Errorf("page load failed: %w", err)
	}
	b.page.WaitIdle(5 * time.Second)
	return nil
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) PageTitle() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

func (b *BrowserAdapter) PageHTML(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// Query returns the first visible match, nil when nothing matches or the
// selector is malformed.
func (b *BrowserAdapter) Query(ctx context.Context, selector string) (output.ElementHandle, error) {
	elements, err := b.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, nil
	}
	for _, el := range elements {
		if visible, err := el.Visible(); err == nil && visible {
			return &elementHandle{el: el}, nil
		}
	}
	return nil, nil
}

func (b *BrowserAdapter) QueryAll(ctx context.Context, selector string) ([]output.ElementHandle, error) {
	elements, err := b.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, nil
	}
	result := make([]output.ElementHandle, 0, len(elements))
	for _, el := range elements {
		result = append(result, &elementHandle{el: el})
	}
	return result, nil
}

// jsFindByText matches elements whose direct text nodes contain the search
// string, skipping script/style and anything not rendered.
const jsFindByText = `(text, scope, exact, caseSensitive, limit) => {
	const search = caseSensitive ? text : text.toLowerCase();
	const candidates = document.querySelectorAll(scope || '*');
	const results = [];
	for (const el of candidates) {
		if (['SCRIPT', 'STYLE', 'NOSCRIPT'].includes(el.tagName)) continue;
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') continue;
		if (el.offsetWidth === 0 && el.offsetHeight === 0) continue;
		const direct = Array.from(el.childNodes)
			.filter(n => n.nodeType === Node.TEXT_NODE)
			.map(n => n.textContent.trim())
			.join(' ');
		if (!direct) continue;
		const cmp = caseSensitive ? direct : direct.toLowerCase();
		const matches = exact ? cmp === search : cmp.includes(search);
		if (matches) {
			results.push(el);
			if (results.length >= limit) break;
		}
	}
	return results;
}`

func (b *BrowserAdapter) FindByText(ctx context.Context, text string, opts output.TextSearch) ([]output.ElementHandle, error) {
	scope := opts.Scope
	if scope == "" {
		scope = "*"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	elements, err := b.page.Context(ctx).ElementsByJS(
		rod.Eval(jsFindByText, text, scope, opts.Exact, opts.CaseSensitive, limit))
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}

	result := make([]output.ElementHandle, 0, len(elements))
	for _, el := range elements {
		result = append(result, &elementHandle{el: el})
	}
	return result, nil
}

const jsMainContentText = `(limit) => {
	const main = document.querySelector('main, article, [role="main"], .content, #content') || document.body;
	if (!main) return '';
	return (main.innerText || '').trim().substring(0, limit);
}`

func (b *BrowserAdapter) MainContentText(ctx context.Context, limit int) (string, error) {
	res, err := b.page.Context(ctx).Eval(jsMainContentText, limit)
	if err != nil {
		return "", fmt.Errorf("content extraction failed: %w", err)
	}
	return res.Value.Str(), nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := b.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) Close() {
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}
