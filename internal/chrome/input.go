package chrome

import (
	"context"
	"fmt"
)

// elementCenter returns the viewport coordinates of the center of the
// first element matching the selector.
func (p *Page) elementCenter(ctx context.Context, selector string) (x, y float64, err error) {
	var resp struct {
		Error string  `json:"error"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	err = p.eval(ctx, fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) return {error: 'not found'};
		const rect = el.getBoundingClientRect();
		return {x: rect.x + rect.width / 2, y: rect.y + rect.height / 2};
	})()`, selector), &resp)
	if err != nil {
		return 0, 0, err
	}
	if resp.Error != "" {
		return 0, 0, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return resp.X, resp.Y, nil
}

func (p *Page) dispatchMouseClick(ctx context.Context, x, y float64) error {
	_, err := p.call(ctx, "Input.dispatchMouseEvent", map[string]interface{}{
		"type": "mouseMoved",
		"x":    x,
		"y":    y,
	})
	if err != nil {
		return fmt.Errorf("dispatching mouseMoved: %w", err)
	}

	_, err = p.call(ctx, "Input.dispatchMouseEvent", map[string]interface{}{
		"type":       "mousePressed",
		"x":          x,
		"y":          y,
		"button":     "left",
		"clickCount": 1,
	})
	if err != nil {
		return fmt.Errorf("dispatching mousePressed: %w", err)
	}

	_, err = p.call(ctx, "Input.dispatchMouseEvent", map[string]interface{}{
		"type":       "mouseReleased",
		"x":          x,
		"y":          y,
		"button":     "left",
		"clickCount": 1,
	})
	if err != nil {
		return fmt.Errorf("dispatching mouseReleased: %w", err)
	}

	return nil
}

// Click clicks the first element matching a CSS selector using real mouse
// events, so listeners see trusted input.
func (p *Page) Click(ctx context.Context, selector string) error {
	x, y, err := p.elementCenter(ctx, selector)
	if err != nil {
		return err
	}
	return p.dispatchMouseClick(ctx, x, y)
}

// ClickButton clicks the first button whose text contains the given label.
// Buttons have no stable selector in the target application, so they are
// located by label text.
func (p *Page) ClickButton(ctx context.Context, label string) error {
	var resp struct {
		Found bool `json:"found"`
	}
	err := p.eval(ctx, fmt.Sprintf(`(function() {
		const buttons = document.querySelectorAll('button');
		for (const b of buttons) {
			if ((b.textContent || '').includes(%q)) { b.click(); return {found: true}; }
		}
		return {found: false};
	})()`, label), &resp)
	if err != nil {
		return err
	}
	if !resp.Found {
		return fmt.Errorf("%w: button labeled %q", ErrNotFound, label)
	}
	return nil
}

// Fill replaces the content of an input or textarea: focus, clear, then
// insert the text through the Input domain so the page sees input events.
func (p *Page) Fill(ctx context.Context, selector, text string) error {
	exists, err := p.Exists(ctx, selector)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}

	err = p.eval(ctx, fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		el.focus();
		el.value = '';
		el.dispatchEvent(new Event('input', { bubbles: true }));
	})()`, selector), nil)
	if err != nil {
		return fmt.Errorf("clearing input value: %w", err)
	}

	_, err = p.call(ctx, "Input.insertText", map[string]interface{}{
		"text": text,
	})
	if err != nil {
		return fmt.Errorf("inserting text: %w", err)
	}

	return nil
}

// SetRangeValue sets a range input's value and dispatches a synthetic
// input event. A slider and the toggle it parameterizes are independent
// pieces of UI state; callers set both.
func (p *Page) SetRangeValue(ctx context.Context, selector string, value int) error {
	var resp struct {
		Error string `json:"error"`
	}
	err := p.eval(ctx, fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) return {error: 'not found'};
		el.value = %d;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		return {};
	})()`, selector, value), &resp)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return nil
}
