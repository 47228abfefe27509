package harness

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeClock is a deterministic clock. Sleeping advances the clock
// instead of waiting, so deadline-bounded loops run instantly.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
	return nil
}

// fakeUI is a scriptable in-memory driver. The status readout comes
// from statusFn, so tests model transitions against the fake clock.
type fakeUI struct {
	sel Selectors

	statusFn    func() (string, error)
	statusReads int

	inputValue string
	history    []string
	onType     func(text string)

	toggleOrder  []string // known toggle labels, in page order
	toggles      map[string]bool
	toggleClicks []string
	panelOpen    bool
	panelMissing bool
	panelText    string

	summaryClicks int
	sliderSets    []int

	undoClicks int
	onUndo     func()

	logs    []LogEntry
	shot    []byte
	shotErr error

	navErr    error
	typeErr   error
	missing   map[string]bool
	latencyMs int
}

func newFakeUI() *fakeUI {
	sel := DefaultSelectors()
	return &fakeUI{
		sel:         sel,
		statusFn:    func() (string, error) { return "Ready", nil },
		toggleOrder: []string{sel.SlowLabel, sel.LockupLabel},
		toggles:     map[string]bool{sel.SlowLabel: false, sel.LockupLabel: false},
		panelText:   "Test Controls Simulate Slow Processing Simulate Lockup",
		missing:     map[string]bool{},
	}
}

func (f *fakeUI) Navigate(ctx context.Context, url string) error { return f.navErr }

func (f *fakeUI) ReadText(ctx context.Context, selector string) (string, error) {
	switch selector {
	case f.sel.Status:
		f.statusReads++
		return f.statusFn()
	case f.sel.TestPanel:
		if f.panelMissing {
			return "", fmt.Errorf("no element matches %q", selector)
		}
		return f.panelText, nil
	}
	return "", fmt.Errorf("no element matches %q", selector)
}

func (f *fakeUI) ReadAttribute(ctx context.Context, selector, name string) (string, error) {
	if selector == f.sel.TestPanel && name == "open" {
		if f.panelMissing {
			return "", fmt.Errorf("no element matches %q", selector)
		}
		if f.panelOpen {
			return "true", nil
		}
		return "", nil
	}
	return "", fmt.Errorf("no element matches %q", selector)
}

func (f *fakeUI) ReadValue(ctx context.Context, selector string) (string, error) {
	if f.missing[selector] {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	return f.inputValue, nil
}

func (f *fakeUI) Exists(ctx context.Context, selector string) (bool, error) {
	return !f.missing[selector], nil
}

func (f *fakeUI) Click(ctx context.Context, selector string) error {
	if selector == f.sel.PanelSummary {
		if f.panelMissing {
			return fmt.Errorf("no element matches %q", selector)
		}
		f.summaryClicks++
		f.panelOpen = !f.panelOpen
		return nil
	}
	return fmt.Errorf("no element matches %q", selector)
}

func (f *fakeUI) ClickButton(ctx context.Context, label string) error {
	if label != f.sel.UndoLabel {
		return fmt.Errorf("no button labeled %q", label)
	}
	f.undoClicks++
	if n := len(f.history); n > 0 {
		f.inputValue = f.history[n-1]
		f.history = f.history[:n-1]
	}
	if f.onUndo != nil {
		f.onUndo()
	}
	return nil
}

func (f *fakeUI) TypeText(ctx context.Context, selector, text string) error {
	if f.typeErr != nil {
		return f.typeErr
	}
	if f.missing[selector] {
		return fmt.Errorf("no element matches %q", selector)
	}
	f.history = append(f.history, f.inputValue)
	f.inputValue = text
	if f.onType != nil {
		f.onType(text)
	}
	return nil
}

func (f *fakeUI) ToggleState(ctx context.Context, label string) (bool, bool, error) {
	if f.panelMissing {
		return false, false, nil
	}
	checked, found := f.toggles[label]
	return checked, found, nil
}

func (f *fakeUI) ToggleCheckbox(ctx context.Context, label string) error {
	if _, found := f.toggles[label]; !found {
		return fmt.Errorf("no checkbox labeled %q", label)
	}
	f.toggleClicks = append(f.toggleClicks, label)
	f.toggles[label] = !f.toggles[label]
	return nil
}

func (f *fakeUI) CheckedToggles(ctx context.Context) ([]string, error) {
	var checked []string
	for _, label := range f.toggleOrder {
		if f.toggles[label] {
			checked = append(checked, label)
		}
	}
	return checked, nil
}

func (f *fakeUI) SetSlider(ctx context.Context, selector string, value int) error {
	if f.missing[selector] {
		return fmt.Errorf("no element matches %q", selector)
	}
	f.sliderSets = append(f.sliderSets, value)
	return nil
}

func (f *fakeUI) Screenshot(ctx context.Context) ([]byte, error) {
	return f.shot, f.shotErr
}

func (f *fakeUI) ConsoleTail(n int) []LogEntry {
	if n > len(f.logs) {
		n = len(f.logs)
	}
	return append([]LogEntry(nil), f.logs[len(f.logs)-n:]...)
}

func (f *fakeUI) SetNetworkLatency(ctx context.Context, latencyMs int) error {
	f.latencyMs = latencyMs
	return nil
}

// newTestEnv wires an environment to the fake clock so every wait and
// pause is deterministic.
func newTestEnv(ui *fakeUI, clock *fakeClock) *Env {
	env := NewEnv(ui, ui.sel)
	env.now = clock.Now
	env.pause = clock.Sleep
	env.Poller.now = clock.Now
	env.Poller.sleep = clock.Sleep
	env.Modes.pause = clock.Sleep
	return env
}
