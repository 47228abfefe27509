package harness

import (
	"context"

	"github.com/jsavage/depict-harness/internal/chrome"
)

// ChromeUI adapts a chrome.Page to the UI boundary.
type ChromeUI struct {
	page *chrome.Page
}

// NewChromeUI wraps a page. Console capture is started eagerly so the
// log tail is available whenever a scenario fails.
func NewChromeUI(ctx context.Context, page *chrome.Page) (*ChromeUI, error) {
	if err := page.StartConsoleCapture(ctx); err != nil {
		return nil, err
	}
	return &ChromeUI{page: page}, nil
}

func (u *ChromeUI) Navigate(ctx context.Context, url string) error {
	return u.page.Navigate(ctx, url)
}

func (u *ChromeUI) ReadText(ctx context.Context, selector string) (string, error) {
	return u.page.Text(ctx, selector)
}

func (u *ChromeUI) ReadAttribute(ctx context.Context, selector, name string) (string, error) {
	return u.page.Attribute(ctx, selector, name)
}

func (u *ChromeUI) ReadValue(ctx context.Context, selector string) (string, error) {
	return u.page.Value(ctx, selector)
}

func (u *ChromeUI) Exists(ctx context.Context, selector string) (bool, error) {
	return u.page.Exists(ctx, selector)
}

func (u *ChromeUI) Click(ctx context.Context, selector string) error {
	return u.page.Click(ctx, selector)
}

func (u *ChromeUI) ClickButton(ctx context.Context, label string) error {
	return u.page.ClickButton(ctx, label)
}

func (u *ChromeUI) TypeText(ctx context.Context, selector, text string) error {
	return u.page.Fill(ctx, selector, text)
}

func (u *ChromeUI) ToggleState(ctx context.Context, label string) (bool, bool, error) {
	return u.page.ToggleState(ctx, label)
}

func (u *ChromeUI) ToggleCheckbox(ctx context.Context, label string) error {
	return u.page.ToggleCheckbox(ctx, label)
}

func (u *ChromeUI) CheckedToggles(ctx context.Context) ([]string, error) {
	return u.page.CheckedToggles(ctx)
}

func (u *ChromeUI) SetSlider(ctx context.Context, selector string, value int) error {
	return u.page.SetRangeValue(ctx, selector, value)
}

func (u *ChromeUI) Screenshot(ctx context.Context) ([]byte, error) {
	return u.page.Screenshot(ctx)
}

func (u *ChromeUI) ConsoleTail(n int) []LogEntry {
	entries := u.page.ConsoleTail(n)
	out := make([]LogEntry, len(entries))
	for i, e := range entries {
		out[i] = LogEntry{Level: e.Level, Message: e.Message}
	}
	return out
}

// SetNetworkLatency throttles the page to a slow profile with the given
// round-trip latency, roughly 500 kbps each way.
func (u *ChromeUI) SetNetworkLatency(ctx context.Context, latencyMs int) error {
	return u.page.EmulateNetworkConditions(ctx, chrome.NetworkConditions{
		Offline:            false,
		Latency:            latencyMs,
		DownloadThroughput: 500 * 1024 / 8,
		UploadThroughput:   500 * 1024 / 8,
	})
}

// ClearNetworkLatency restores normal network conditions.
func (u *ChromeUI) ClearNetworkLatency(ctx context.Context) error {
	return u.page.DisableNetworkThrottling(ctx)
}
