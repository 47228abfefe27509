package chrome

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Page is a handle to the single page target the harness drives. All
// operations go through the one session attached by FirstPage.
type Page struct {
	client    *Client
	targetID  string
	sessionID string

	consoleMu      sync.Mutex
	consoleEntries []ConsoleEntry
	consoleStop    func()
}

func (p *Page) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return p.client.call(ctx, p.sessionID, method, params)
}

// eval evaluates a JavaScript expression in the page and unmarshals the
// by-value result into out. A nil out discards the result.
func (p *Page) eval(ctx context.Context, expression string, out interface{}) error {
	result, err := p.call(ctx, "Runtime.evaluate", map[string]interface{}{
		"expression":    expression,
		"returnByValue": true,
	})
	if err != nil {
		return fmt.Errorf("evaluating expression: %w", err)
	}

	var resp struct {
		Result struct {
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return fmt.Errorf("parsing eval response: %w", err)
	}
	if resp.ExceptionDetails != nil {
		return fmt.Errorf("script exception: %s", resp.ExceptionDetails.Text)
	}

	if out != nil && len(resp.Result.Value) > 0 {
		if err := json.Unmarshal(resp.Result.Value, out); err != nil {
			return fmt.Errorf("parsing eval value: %w", err)
		}
	}
	return nil
}

// Navigate navigates the page to the given URL and waits for the load event.
func (p *Page) Navigate(ctx context.Context, url string) error {
	_, err := p.call(ctx, "Page.enable", nil)
	if err != nil {
		return fmt.Errorf("enabling Page domain: %w", err)
	}

	// Subscribe to load event before navigating
	loadCh := p.client.subscribeEvent(p.sessionID, "Page.loadEventFired")
	defer p.client.unsubscribeEvent(p.sessionID, "Page.loadEventFired", loadCh)

	navResult, err := p.call(ctx, "Page.navigate", map[string]string{
		"url": url,
	})
	if err != nil {
		return fmt.Errorf("navigating: %w", err)
	}

	var navResp struct {
		ErrorText string `json:"errorText"`
	}
	if err := json.Unmarshal(navResult, &navResp); err != nil {
		return fmt.Errorf("parsing navigate response: %w", err)
	}
	if navResp.ErrorText != "" {
		return fmt.Errorf("navigating to %s: %s", url, navResp.ErrorText)
	}

	select {
	case <-loadCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for page load")
	}
}

// Screenshot captures a PNG screenshot of the page.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	result, err := p.call(ctx, "Page.captureScreenshot", map[string]interface{}{
		"format": "png",
	})
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}

	var resp struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("parsing screenshot response: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot data: %w", err)
	}
	return data, nil
}

// SetViewport sets the page viewport size.
func (p *Page) SetViewport(ctx context.Context, width, height int) error {
	_, err := p.call(ctx, "Emulation.setDeviceMetricsOverride", map[string]interface{}{
		"width":             width,
		"height":            height,
		"deviceScaleFactor": 1,
		"mobile":            false,
	})
	if err != nil {
		return fmt.Errorf("setting viewport: %w", err)
	}
	return nil
}
