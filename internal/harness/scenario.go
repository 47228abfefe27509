package harness

import (
	"context"
	"fmt"
	"time"
)

// Scenario is one fixed protocol of setup, action, expected status
// transition, optional recovery, and teardown. Run returns nil when the
// scenario passed; the runner guarantees mode teardown on every exit
// path, so scenarios never clean up fault-simulation state themselves.
type Scenario interface {
	Name() string
	Run(ctx context.Context, env *Env) error
}

// Env is the shared environment a scenario runs against.
type Env struct {
	UI     UI
	Poller *Poller
	Modes  *ModeController
	Sel    Selectors

	// Clock seam, injectable for tests.
	now   func() time.Time
	pause func(ctx context.Context, d time.Duration) error
}

// NewEnv builds a scenario environment over a driver.
func NewEnv(ui UI, sel Selectors) *Env {
	return &Env{
		UI:     ui,
		Poller: NewPoller(ui, sel.Status),
		Modes:  NewModeController(ui, sel),
		Sel:    sel,
		now:    time.Now,
		pause:  sleepCtx,
	}
}

// Runner executes scenarios one at a time, guaranteeing that no scenario
// leaks fault-simulation state into the next: mode teardown runs on
// every exit path, including panics escaping a scenario.
type Runner struct {
	Env *Env
}

// Run executes one scenario and returns its result. A panic inside the
// scenario is recorded as a failure, never propagated: one broken
// scenario must not abort the rest of the run.
func (r *Runner) Run(ctx context.Context, sc Scenario) (res Result) {
	res.Name = sc.Name()

	defer func() {
		// Teardown happens even when the run context is already
		// canceled or the scenario panicked.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.Env.Modes.DisableAll(cleanupCtx)

		if rec := recover(); rec != nil {
			res.Passed = false
			res.Err = fmt.Errorf("unexpected error: %v", rec)
		}
	}()

	if err := sc.Run(ctx, r.Env); err != nil {
		res.Err = err
		return res
	}
	res.Passed = true
	return res
}

// --- Scenarios ---

// NormalScenario types well-formed input and expects the status to reach
// "Ready" within five seconds.
type NormalScenario struct{}

func (NormalScenario) Name() string { return "Normal Operation" }

func (NormalScenario) Run(ctx context.Context, env *Env) error {
	input := "A -> B: hello\nB -> C: world"
	if err := env.UI.TypeText(ctx, env.Sel.Input, input); err != nil {
		return fmt.Errorf("typing input: %w", err)
	}

	if !env.Poller.WaitFor(ctx, Contains("Ready"), 5*time.Second) {
		return fmt.Errorf("status never reached Ready")
	}
	return nil
}

// SlowScenario enables the slow-processing simulation, then requires two
// transitions: "Processing" observed promptly after input, and "Ready"
// within the injected delay plus slack.
type SlowScenario struct {
	DelayMs int
}

func (SlowScenario) Name() string { return "Slow Processing" }

func (s SlowScenario) Run(ctx context.Context, env *Env) error {
	delay := s.DelayMs
	if delay <= 0 {
		delay = 2000
	}

	if !env.Modes.EnableSlow(ctx, delay) {
		return fmt.Errorf("could not enable slow-processing mode")
	}

	if err := env.UI.TypeText(ctx, env.Sel.Input, "X -> Y: test slow"); err != nil {
		return fmt.Errorf("typing input: %w", err)
	}

	if !env.Poller.WaitFor(ctx, Contains("Processing"), 500*time.Millisecond) {
		return fmt.Errorf("Processing status never observed")
	}

	timeout := time.Duration(delay)*time.Millisecond + 3*time.Second
	if !env.Poller.WaitFor(ctx, Contains("Ready"), timeout) {
		return fmt.Errorf("slow processing did not complete within %v", timeout)
	}
	return nil
}

// LockupScenario enables the lockup simulation, expects the application
// to report a timeout, then recovers with undo and requires the input to
// equal its pre-scenario value exactly.
type LockupScenario struct{}

func (LockupScenario) Name() string { return "Lockup Recovery" }

func (LockupScenario) Run(ctx context.Context, env *Env) error {
	// Snapshot before anything is typed: the pass condition is exact
	// equality to this value after undo, not to any fixed literal.
	original, err := env.UI.ReadValue(ctx, env.Sel.Input)
	if err != nil {
		return fmt.Errorf("reading original input: %w", err)
	}

	if !env.Modes.EnableLockup(ctx) {
		return fmt.Errorf("could not enable lockup mode")
	}

	if err := env.UI.TypeText(ctx, env.Sel.Input, "P -> Q: trigger lockup"); err != nil {
		return fmt.Errorf("typing input: %w", err)
	}

	if !env.Poller.WaitFor(ctx, Contains("TIMEOUT"), 7*time.Second) {
		return fmt.Errorf("timeout was not detected")
	}

	if err := env.UI.ClickButton(ctx, env.Sel.UndoLabel); err != nil {
		return fmt.Errorf("clicking undo: %w", err)
	}
	env.pause(ctx, 500*time.Millisecond)

	restored, err := env.UI.ReadValue(ctx, env.Sel.Input)
	if err != nil {
		return fmt.Errorf("reading restored input: %w", err)
	}
	if restored != original {
		return fmt.Errorf("undo did not restore input: want %q, got %q", original, restored)
	}
	return nil
}

// ErrorScenario types malformed input, expects an error status within a
// second, then recovers with undo back to "Ready".
type ErrorScenario struct{}

func (ErrorScenario) Name() string { return "Error Recovery" }

func (ErrorScenario) Run(ctx context.Context, env *Env) error {
	badInput := "A -> -> B C: invalid syntax [[[]]"
	if err := env.UI.TypeText(ctx, env.Sel.Input, badInput); err != nil {
		return fmt.Errorf("typing input: %w", err)
	}

	if !env.Poller.WaitFor(ctx, Contains("error"), time.Second) {
		return fmt.Errorf("error status never observed")
	}

	if err := env.UI.ClickButton(ctx, env.Sel.UndoLabel); err != nil {
		return fmt.Errorf("clicking undo: %w", err)
	}

	if !env.Poller.WaitFor(ctx, Contains("Ready"), 2*time.Second) {
		return fmt.Errorf("did not recover to Ready after undo")
	}
	return nil
}

// DefaultScenarios returns the full suite in run order.
func DefaultScenarios(delayMs int) []Scenario {
	return []Scenario{
		NormalScenario{},
		SlowScenario{DelayMs: delayMs},
		LockupScenario{},
		ErrorScenario{},
	}
}

// ScenariosFor returns the scenarios selected by name: "slow" or
// "lockup" run a single scenario, anything else the full suite.
func ScenariosFor(selector string, delayMs int) []Scenario {
	switch selector {
	case "slow":
		return []Scenario{SlowScenario{DelayMs: delayMs}}
	case "lockup":
		return []Scenario{LockupScenario{}}
	default:
		return DefaultScenarios(delayMs)
	}
}
