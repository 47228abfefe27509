package harness

import (
	"context"
	"strings"
	"time"
)

// DefaultPollInterval is how often the status readout is sampled.
const DefaultPollInterval = 100 * time.Millisecond

// Poller repeatedly samples the status readout until a predicate is
// satisfied or a deadline elapses. The status is read fresh on every
// sample; nothing is cached, since a stale label would defeat the point
// of synchronization testing.
type Poller struct {
	UI       UI
	Selector string
	Interval time.Duration

	// Clock seam for deterministic tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller returns a poller sampling the given status selector at the
// default interval.
func NewPoller(ui UI, statusSelector string) *Poller {
	return &Poller{
		UI:       ui,
		Selector: statusSelector,
		Interval: DefaultPollInterval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// WaitFor samples the status readout until pred is satisfied (true) or
// the deadline elapses (false). A failed read counts as an unsatisfied
// sample: the status element may be momentarily absent during a DOM
// re-render, and a single unreadable sample must not abort the wait.
// The loop is bounded strictly by the deadline; it never overruns by
// more than one polling interval.
func (p *Poller) WaitFor(ctx context.Context, pred func(status string) bool, timeout time.Duration) bool {
	deadline := p.now().Add(timeout)

	for {
		status, err := p.UI.ReadText(ctx, p.Selector)
		if err == nil && pred(status) {
			return true
		}

		if !p.now().Before(deadline) {
			return false
		}
		if err := p.sleep(ctx, p.Interval); err != nil {
			return false
		}
	}
}

// Contains returns the default predicate shape: a case-insensitive
// substring match. The target emits free-text status phrases, not a
// fixed enum, so substring matching is the correctness boundary.
func Contains(expected string) func(string) bool {
	want := strings.ToLower(expected)
	return func(status string) bool {
		return strings.Contains(strings.ToLower(status), want)
	}
}
