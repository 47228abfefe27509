package harness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CheckReachable probes the target URL with a plain HTTP GET before any
// navigation. An unreachable target aborts the run immediately.
func CheckReachable(ctx context.Context, url string) error {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", url, err)
	}
	resp.Body.Close()
	return nil
}

// LoadTarget navigates to the target application and waits for its input
// surface to appear. A missing test-controls panel is reported as a
// warning, not a failure: the page loaded, it just may not be the
// application this harness expects.
func (env *Env) LoadTarget(ctx context.Context, url string, out io.Writer) error {
	if err := env.UI.Navigate(ctx, url); err != nil {
		return fmt.Errorf("loading %s: %w", url, err)
	}

	deadline := env.now().Add(10 * time.Second)
	for {
		present, err := env.UI.Exists(ctx, env.Sel.Input)
		if err == nil && present {
			break
		}
		if !env.now().Before(deadline) {
			return fmt.Errorf("page loaded but input surface %q never appeared", env.Sel.Input)
		}
		if err := env.pause(ctx, DefaultPollInterval); err != nil {
			return err
		}
	}

	panelText, err := env.UI.ReadText(ctx, env.Sel.TestPanel)
	if err != nil || !strings.Contains(panelText, env.Sel.PanelLabel) {
		fmt.Fprintf(out, "warning: %s panel not found; this may not be the expected application\n", env.Sel.PanelLabel)
	}

	return nil
}
