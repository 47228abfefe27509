package chrome

import (
	"context"
	"fmt"
	"strings"
)

// Text returns the rendered text of the first element matching the selector.
func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	var resp struct {
		Error string `json:"error"`
		Value string `json:"value"`
	}
	err := p.eval(ctx, fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) return {error: 'not found'};
		return {value: el.innerText || ''};
	})()`, selector), &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return resp.Value, nil
}

// Attribute returns an attribute value for an element. Boolean attributes
// that are present with an empty value read as "true", matching WebDriver
// semantics; absent attributes read as the empty string.
func (p *Page) Attribute(ctx context.Context, selector, name string) (string, error) {
	var resp struct {
		Error string `json:"error"`
		Value string `json:"value"`
	}
	err := p.eval(ctx, fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) return {error: 'not found'};
		const v = el.getAttribute(%q);
		if (v === null) return {value: ''};
		if (v === '') return {value: 'true'};
		return {value: String(v)};
	})()`, selector, name), &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return resp.Value, nil
}

// Value returns the current value of an input, textarea, or select element.
func (p *Page) Value(ctx context.Context, selector string) (string, error) {
	var resp struct {
		Error string `json:"error"`
		Value string `json:"value"`
	}
	err := p.eval(ctx, fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) return {error: 'not found'};
		return {value: el.value || ''};
	})()`, selector), &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return resp.Value, nil
}

// Exists reports whether an element matching the selector is present.
func (p *Page) Exists(ctx context.Context, selector string) (bool, error) {
	var exists bool
	err := p.eval(ctx, fmt.Sprintf(`document.querySelector(%q) !== null`, selector), &exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ToggleState reports whether the checkbox whose surrounding text contains
// the given label is checked. The second return value is false when no
// such checkbox exists.
func (p *Page) ToggleState(ctx context.Context, label string) (checked bool, found bool, err error) {
	var resp struct {
		Found   bool `json:"found"`
		Checked bool `json:"checked"`
	}
	err = p.eval(ctx, fmt.Sprintf(`(function() {
		const boxes = document.querySelectorAll("input[type='checkbox']");
		for (const box of boxes) {
			const scope = box.closest('div') || box.parentElement;
			const text = scope ? scope.textContent : '';
			if (text.includes(%q)) return {found: true, checked: box.checked};
		}
		return {found: false};
	})()`, label), &resp)
	if err != nil {
		return false, false, err
	}
	return resp.Checked, resp.Found, nil
}

// ToggleCheckbox clicks the checkbox whose surrounding text contains the
// given label.
func (p *Page) ToggleCheckbox(ctx context.Context, label string) error {
	var resp struct {
		Found bool `json:"found"`
	}
	err := p.eval(ctx, fmt.Sprintf(`(function() {
		const boxes = document.querySelectorAll("input[type='checkbox']");
		for (const box of boxes) {
			const scope = box.closest('div') || box.parentElement;
			const text = scope ? scope.textContent : '';
			if (text.includes(%q)) { box.click(); return {found: true}; }
		}
		return {found: false};
	})()`, label), &resp)
	if err != nil {
		return err
	}
	if !resp.Found {
		return fmt.Errorf("%w: checkbox labeled %q", ErrNotFound, label)
	}
	return nil
}

// CheckedToggles returns the surrounding text of every checked checkbox on
// the page, trimmed. Used to sweep fault-simulation toggles regardless of
// who enabled them.
func (p *Page) CheckedToggles(ctx context.Context) ([]string, error) {
	var labels []string
	err := p.eval(ctx, `(function() {
		const out = [];
		const boxes = document.querySelectorAll("input[type='checkbox']");
		for (const box of boxes) {
			if (!box.checked) continue;
			const scope = box.closest('div') || box.parentElement;
			out.push(scope ? scope.textContent : '');
		}
		return out;
	})()`, &labels)
	if err != nil {
		return nil, err
	}
	for i := range labels {
		labels[i] = strings.TrimSpace(labels[i])
	}
	return labels, nil
}
