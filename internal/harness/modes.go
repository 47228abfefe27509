package harness

import (
	"context"
	"time"
)

// ModeController toggles the application's injected fault-simulation
// modes. All operations report failure as a boolean; the caller decides
// whether a missing control is scenario-fatal.
type ModeController struct {
	UI  UI
	Sel Selectors

	// pause is injectable for tests; the panel needs a beat to open.
	pause func(ctx context.Context, d time.Duration) error
}

// NewModeController returns a controller for the test-controls panel.
func NewModeController(ui UI, sel Selectors) *ModeController {
	return &ModeController{UI: ui, Sel: sel, pause: sleepCtx}
}

// openPanel opens the disclosure panel if it is closed.
func (m *ModeController) openPanel(ctx context.Context) bool {
	open, err := m.UI.ReadAttribute(ctx, m.Sel.TestPanel, "open")
	if err != nil {
		return false
	}
	if open == "" {
		if err := m.UI.Click(ctx, m.Sel.PanelSummary); err != nil {
			return false
		}
		m.pause(ctx, 200*time.Millisecond)
	}
	return true
}

// setToggle checks the labeled toggle if it isn't already checked.
// Enabling an already-enabled mode is a no-op: the state is read before
// any click is issued.
func (m *ModeController) setToggle(ctx context.Context, label string) bool {
	checked, found, err := m.UI.ToggleState(ctx, label)
	if err != nil || !found {
		return false
	}
	if checked {
		return true
	}
	return m.UI.ToggleCheckbox(ctx, label) == nil
}

// EnableSlow enables the slow-processing simulation with the given
// injected delay. The toggle and the delay slider are two independent
// pieces of UI state; both are set before returning true.
func (m *ModeController) EnableSlow(ctx context.Context, delayMs int) bool {
	if !m.openPanel(ctx) {
		return false
	}
	if !m.setToggle(ctx, m.Sel.SlowLabel) {
		return false
	}
	return m.UI.SetSlider(ctx, m.Sel.DelaySlider, delayMs) == nil
}

// EnableLockup enables the lockup simulation.
func (m *ModeController) EnableLockup(ctx context.Context) bool {
	if !m.openPanel(ctx) {
		return false
	}
	return m.setToggle(ctx, m.Sel.LockupLabel)
}

// DisableAll unchecks every checked toggle found on the page, regardless
// of which modes this controller enabled. The sweep makes cleanup
// self-healing even if an earlier run leaked mode state. Calling it with
// nothing enabled is a no-op and reports success.
func (m *ModeController) DisableAll(ctx context.Context) bool {
	if !m.openPanel(ctx) {
		return false
	}

	labels, err := m.UI.CheckedToggles(ctx)
	if err != nil {
		return false
	}

	ok := true
	for _, label := range labels {
		if err := m.UI.ToggleCheckbox(ctx, label); err != nil {
			ok = false
		}
	}
	return ok
}
