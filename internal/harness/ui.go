// Package harness drives the Depict application through a UI automation
// driver and validates its asynchronous processing pipeline: normal
// input, artificially slow processing, a simulated lockup with recovery,
// and malformed input with recovery.
package harness

import "context"

// LogEntry is one browser console log line captured for diagnostics.
type LogEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// UI is the capability boundary to the automation driver. The harness
// core never manages the driver's lifecycle; it only issues actions and
// reads through this interface. Every method that can miss its element
// reports that as an error the caller treats as a step failure, never as
// a process-fatal condition.
type UI interface {
	// Navigate loads the given URL and waits for the page load event.
	Navigate(ctx context.Context, url string) error

	// ReadText returns the rendered text of the element matching selector.
	ReadText(ctx context.Context, selector string) (string, error)

	// ReadAttribute returns an attribute value; boolean attributes read
	// as "true" when present, absent attributes as "".
	ReadAttribute(ctx context.Context, selector, name string) (string, error)

	// ReadValue returns the current value of an input or textarea.
	ReadValue(ctx context.Context, selector string) (string, error)

	// Exists reports whether an element matching selector is present.
	Exists(ctx context.Context, selector string) (bool, error)

	// Click clicks the element matching selector.
	Click(ctx context.Context, selector string) error

	// ClickButton clicks the button whose label contains text.
	ClickButton(ctx context.Context, label string) error

	// TypeText clears the element matching selector and types text into it.
	TypeText(ctx context.Context, selector, text string) error

	// ToggleState reports whether the checkbox labeled label is checked;
	// found is false when no such checkbox exists.
	ToggleState(ctx context.Context, label string) (checked bool, found bool, err error)

	// ToggleCheckbox clicks the checkbox labeled label.
	ToggleCheckbox(ctx context.Context, label string) error

	// CheckedToggles returns the labels of every currently checked
	// checkbox on the page.
	CheckedToggles(ctx context.Context) ([]string, error)

	// SetSlider sets a range input's value via a synthetic input event.
	SetSlider(ctx context.Context, selector string, value int) error

	// Screenshot captures a PNG screenshot of the page.
	Screenshot(ctx context.Context) ([]byte, error)

	// ConsoleTail returns up to the last n console log entries.
	ConsoleTail(n int) []LogEntry

	// SetNetworkLatency applies simulated network latency to the page.
	SetNetworkLatency(ctx context.Context, latencyMs int) error
}

// Selectors locates the fixed interaction surface of the target
// application: one text input, one status readout, a disclosure panel of
// test-mode toggles with a delay slider, and an undo button.
type Selectors struct {
	Input        string // the free-text input surface
	Status       string // the one-line status readout
	TestPanel    string // the disclosure panel holding test-mode toggles
	PanelSummary string // the panel's click-to-open summary
	DelaySlider  string // numeric range control for the injected delay

	SlowLabel   string // label text of the slow-processing toggle
	LockupLabel string // label text of the lockup toggle
	UndoLabel   string // label text of the undo button
	PanelLabel  string // text identifying the test-controls panel
}

// DefaultSelectors returns the selector set for the Depict application.
func DefaultSelectors() Selectors {
	return Selectors{
		Input:        "textarea",
		Status:       ".main_editor > div > div:first-child",
		TestPanel:    "details",
		PanelSummary: "details > summary",
		DelaySlider:  "input[type='range']",

		SlowLabel:   "Simulate Slow Processing",
		LockupLabel: "Simulate Lockup",
		UndoLabel:   "Undo",
		PanelLabel:  "Test Controls",
	}
}
