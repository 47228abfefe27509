package harness

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNormalScenario(t *testing.T) {
	clock := newFakeClock()
	ui := newFakeUI()
	runner := &Runner{Env: newTestEnv(ui, clock)}

	res := runner.Run(context.Background(), NormalScenario{})
	if !res.Passed {
		t.Fatalf("normal scenario failed: %v", res.Err)
	}
	if ui.inputValue == "" {
		t.Error("no input was typed")
	}
}

func TestSlowScenario(t *testing.T) {
	clock := newFakeClock()
	ui := newFakeUI()

	var typedAt time.Time
	ui.onType = func(string) { typedAt = clock.Now() }
	ui.statusFn = func() (string, error) {
		if typedAt.IsZero() {
			return "Ready", nil
		}
		if clock.Now().Sub(typedAt) < 2*time.Second {
			return "Processing...", nil
		}
		return "Ready", nil
	}

	runner := &Runner{Env: newTestEnv(ui, clock)}
	res := runner.Run(context.Background(), SlowScenario{DelayMs: 2000})
	if !res.Passed {
		t.Fatalf("slow scenario failed: %v", res.Err)
	}
	if len(ui.sliderSets) == 0 || ui.sliderSets[0] != 2000 {
		t.Errorf("delay slider sets = %v, want [2000]", ui.sliderSets)
	}
	if ui.toggles[ui.sel.SlowLabel] {
		t.Error("slow mode still enabled after teardown")
	}
}

func TestSlowScenarioRequiresProcessingState(t *testing.T) {
	clock := newFakeClock()
	ui := newFakeUI()
	// The target skips the intermediate state entirely.
	ui.statusFn = func() (string, error) { return "Ready", nil }

	runner := &Runner{Env: newTestEnv(ui, clock)}
	res := runner.Run(context.Background(), SlowScenario{DelayMs: 2000})
	if res.Passed {
		t.Fatal("scenario passed although Processing was never shown")
	}
	if !strings.Contains(res.Err.Error(), "Processing") {
		t.Errorf("err = %v, want a missing-Processing failure", res.Err)
	}
}

func TestSlowScenarioFailsWithoutPanel(t *testing.T) {
	clock := newFakeClock()
	ui := newFakeUI()
	ui.panelMissing = true

	runner := &Runner{Env: newTestEnv(ui, clock)}
	res := runner.Run(context.Background(), SlowScenario{})
	if res.Passed {
		t.Fatal("scenario passed with no test-controls panel")
	}
}

func TestLockupScenario(t *testing.T) {
	for _, original := range []string{"", "seed -> model: kept", "P -> Q: trigger lockup"} {
		clock := newFakeClock()
		ui := newFakeUI()
		ui.inputValue = original

		var typedAt time.Time
		ui.onType = func(string) { typedAt = clock.Now() }
		ui.statusFn = func() (string, error) {
			if typedAt.IsZero() {
				return "Ready", nil
			}
			if clock.Now().Sub(typedAt) < 5*time.Second {
				return "Processing...", nil
			}
			return "TIMEOUT: Processing took too long - check your model", nil
		}

		runner := &Runner{Env: newTestEnv(ui, clock)}
		res := runner.Run(context.Background(), LockupScenario{})
		if !res.Passed {
			t.Fatalf("original %q: lockup scenario failed: %v", original, res.Err)
		}
		if ui.inputValue != original {
			t.Errorf("original %q: input is %q after undo", original, ui.inputValue)
		}
		if ui.undoClicks != 1 {
			t.Errorf("original %q: undo clicked %d times, want 1", original, ui.undoClicks)
		}
		if ui.toggles[ui.sel.LockupLabel] {
			t.Errorf("original %q: lockup mode still enabled after teardown", original)
		}
	}
}

func TestLockupScenarioDetectsBadRestore(t *testing.T) {
	clock := newFakeClock()
	ui := newFakeUI()
	ui.inputValue = "keep -> me"

	var typedAt time.Time
	ui.onType = func(string) { typedAt = clock.Now() }
	ui.statusFn = func() (string, error) {
		if typedAt.IsZero() || clock.Now().Sub(typedAt) < 5*time.Second {
			return "Processing...", nil
		}
		return "TIMEOUT: Processing took too long", nil
	}
	ui.onUndo = func() { ui.inputValue = "keep -> me " } // trailing space

	runner := &Runner{Env: newTestEnv(ui, clock)}
	res := runner.Run(context.Background(), LockupScenario{})
	if res.Passed {
		t.Fatal("scenario passed although undo restored a different value")
	}
	if !strings.Contains(res.Err.Error(), "restore") {
		t.Errorf("err = %v, want a restore mismatch", res.Err)
	}
}

func TestErrorScenario(t *testing.T) {
	clock := newFakeClock()
	ui := newFakeUI()

	state := "ready"
	ui.onType = func(string) { state = "error" }
	ui.onUndo = func() { state = "ready" }
	ui.statusFn = func() (string, error) {
		if state == "error" {
			return "ERROR: Check your syntax (line 1)", nil
		}
		return "Ready", nil
	}

	runner := &Runner{Env: newTestEnv(ui, clock)}
	res := runner.Run(context.Background(), ErrorScenario{})
	if !res.Passed {
		t.Fatalf("error scenario failed: %v", res.Err)
	}
	if ui.undoClicks != 1 {
		t.Errorf("undo clicked %d times, want 1", ui.undoClicks)
	}
}

func TestErrorScenarioFailsWhenErrorNeverShown(t *testing.T) {
	clock := newFakeClock()
	ui := newFakeUI()
	ui.statusFn = func() (string, error) { return "Ready", nil }

	runner := &Runner{Env: newTestEnv(ui, clock)}
	res := runner.Run(context.Background(), ErrorScenario{})
	if res.Passed {
		t.Fatal("scenario passed although the error status never appeared")
	}
}

type panicScenario struct{}

func (panicScenario) Name() string { return "panics midway" }

func (panicScenario) Run(ctx context.Context, env *Env) error {
	env.Modes.EnableLockup(ctx)
	panic("dispatch failed")
}

func TestRunnerRecoversPanicAndTearsDown(t *testing.T) {
	clock := newFakeClock()
	ui := newFakeUI()

	runner := &Runner{Env: newTestEnv(ui, clock)}
	res := runner.Run(context.Background(), panicScenario{})
	if res.Passed {
		t.Fatal("panicking scenario reported as passed")
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "unexpected error") {
		t.Errorf("err = %v, want a recovered panic", res.Err)
	}
	if ui.toggles[ui.sel.LockupLabel] {
		t.Error("lockup mode leaked past a panicking scenario")
	}
}

type enableAndFailScenario struct{}

func (enableAndFailScenario) Name() string { return "enable and fail" }

func (enableAndFailScenario) Run(ctx context.Context, env *Env) error {
	env.Modes.EnableSlow(ctx, 1000)
	return context.Canceled
}

func TestRunnerTeardownSurvivesCanceledContext(t *testing.T) {
	clock := newFakeClock()
	ui := newFakeUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &Runner{Env: newTestEnv(ui, clock)}
	res := runner.Run(ctx, enableAndFailScenario{})
	if res.Passed {
		t.Fatal("scenario passed under a canceled context")
	}
	// Teardown runs on its own context, so the sweep must still have
	// cleared anything the scenario managed to enable.
	for label, checked := range ui.toggles {
		if checked {
			t.Errorf("toggle %q leaked past teardown", label)
		}
	}
}

func TestScenariosFor(t *testing.T) {
	all := ScenariosFor("all", 1500)
	wantOrder := []string{"Normal Operation", "Slow Processing", "Lockup Recovery", "Error Recovery"}
	if len(all) != len(wantOrder) {
		t.Fatalf("got %d scenarios, want %d", len(all), len(wantOrder))
	}
	for i, sc := range all {
		if sc.Name() != wantOrder[i] {
			t.Errorf("scenario %d = %q, want %q", i, sc.Name(), wantOrder[i])
		}
	}

	slow := ScenariosFor("slow", 1500)
	if len(slow) != 1 || slow[0].Name() != "Slow Processing" {
		t.Fatalf("slow selector returned %v", slow)
	}
	if sc, ok := slow[0].(SlowScenario); !ok || sc.DelayMs != 1500 {
		t.Errorf("slow selector dropped the delay: %#v", slow[0])
	}

	lockup := ScenariosFor("lockup", 1500)
	if len(lockup) != 1 || lockup[0].Name() != "Lockup Recovery" {
		t.Fatalf("lockup selector returned %v", lockup)
	}
}

// A target that answers "Ready" to everything satisfies only the normal
// scenario; the fault-injection scenarios must all reject it.
func TestTrivialTargetFailsFaultScenarios(t *testing.T) {
	clock := newFakeClock()
	ui := newFakeUI()
	ui.statusFn = func() (string, error) { return "Ready", nil }

	runner := &Runner{Env: newTestEnv(ui, clock)}
	for _, sc := range DefaultScenarios(2000) {
		res := runner.Run(context.Background(), sc)
		wantPass := sc.Name() == "Normal Operation"
		if res.Passed != wantPass {
			t.Errorf("%s: passed = %v, want %v (err: %v)", sc.Name(), res.Passed, wantPass, res.Err)
		}
	}
}
