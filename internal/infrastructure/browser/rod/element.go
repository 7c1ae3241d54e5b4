package rod

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"interactai/internal/application/port/output"
)

var _ output.ElementHandle = (*elementHandle)(nil)

// elementHandle wraps one live element. Handles go stale on navigation;
// callers treat any operation error as "element gone".
type elementHandle struct {
	el *rod.Element
}

func (e *elementHandle) Visible() bool {
	visible, err := e.el.Visible()
	return err == nil && visible
}

func (e *elementHandle) Text() string {
	text, err := e.el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (e *elementHandle) TagName() string {
	res, err := e.el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func (e *elementHandle) Attribute(name string) (string, bool) {
	val, err := e.el.Attribute(name)
	if err != nil || val == nil {
		return "", false
	}
	return *val, true
}

func (e *elementHandle) Click(ctx context.Context) error {
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (e *elementHandle) ScrollIntoView(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`() => this.scrollIntoView({ behavior: 'smooth', block: 'center' })`)
	if err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

func (e *elementHandle) InlineStyles(ctx context.Context, props []string) (map[string]string, error) {
	res, err := e.el.Context(ctx).Eval(`(props) => {
		const out = {};
		for (const p of props) out[p] = this.style.getPropertyValue(p);
		return out;
	}`, props)
	if err != nil {
		return nil, fmt.Errorf("read styles failed: %w", err)
	}

	styles := make(map[string]string, len(props))
	for key, val := range res.Value.Map() {
		styles[key] = val.Str()
	}
	return styles, nil
}

func (e *elementHandle) SetInlineStyles(ctx context.Context, styles map[string]string) error {
	_, err := e.el.Context(ctx).Eval(`(styles) => {
		for (const [k, v] of Object.entries(styles)) {
			if (v) this.style.setProperty(k, v);
			else this.style.removeProperty(k);
		}
	}`, styles)
	if err != nil {
		return fmt.Errorf("set styles failed: %w", err)
	}
	return nil
}

// SetValue writes an input's value and fires a synthetic input event so
// framework-bound inputs notice the change.
func (e *elementHandle) SetValue(ctx context.Context, value string) error {
	_, err := e.el.Context(ctx).Eval(`(value) => {
		this.value = value;
		this.dispatchEvent(new Event('input', { bubbles: true }));
	}`, value)
	if err != nil {
		return fmt.Errorf("set value failed: %w", err)
	}
	return nil
}

func (e *elementHandle) SubmitEnclosingForm(ctx context.Context) (bool, error) {
	res, err := e.el.Context(ctx).Eval(`() => {
		const form = this.closest('form');
		if (!form) return false;
		form.submit();
		return true;
	}`)
	if err != nil {
		return false, fmt.Errorf("form submit failed: %w", err)
	}
	return res.Value.Bool(), nil
}

func (e *elementHandle) PressEnter(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`() => {
		this.dispatchEvent(new KeyboardEvent('keydown', { key: 'Enter', keyCode: 13, bubbles: true }));
	}`)
	if err != nil {
		return fmt.Errorf("enter keypress failed: %w", err)
	}
	return nil
}

// ClickAdjacentSubmit clicks a nearby submit-labeled button, the fallback
// for search boxes that live outside a form.
func (e *elementHandle) ClickAdjacentSubmit(ctx context.Context) (bool, error) {
	res, err := e.el.Context(ctx).Eval(`() => {
		const button = document.querySelector('button[type="submit"], [aria-label*="search"], [name*="submit"]');
		const box = this.closest('div');
		if (button && box && box.contains(button)) {
			button.click();
			return true;
		}
		return false;
	}`)
	if err != nil {
		return false, fmt.Errorf("submit button click failed: %w", err)
	}
	return res.Value.Bool(), nil
}
