package harness

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// logTailSize is how many console entries are attached to a failure.
const logTailSize = 10

// Result is the immutable outcome of one scenario run.
type Result struct {
	Name       string
	Passed     bool
	Err        error
	Screenshot string // path of the saved failure screenshot, if any
	Logs       []LogEntry
}

// Summary is the ordered outcome of a run.
type Summary struct {
	Results     []Result
	Interrupted bool
}

// Passed reports overall success: the logical AND over all results.
// An interrupted run never passes.
func (s Summary) Passed() bool {
	if s.Interrupted || len(s.Results) == 0 {
		return false
	}
	for _, r := range s.Results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Marks selects the progress decorations; plain ASCII when stdout is not
// a terminal.
type Marks struct {
	Pass string
	Fail string
}

// UnicodeMarks are used on a TTY, ASCIIMarks otherwise.
var (
	UnicodeMarks = Marks{Pass: "✓", Fail: "✗"}
	ASCIIMarks   = Marks{Pass: "PASS", Fail: "FAIL"}
)

// Suite runs scenarios strictly in sequence against a single driver
// session and aggregates their results. Scenarios mutate shared UI
// state, so there is no concurrent execution.
type Suite struct {
	Runner *Runner
	Diag   *Recorder // nil disables failure diagnostics
	Out    io.Writer
	Marks  Marks
}

// Run executes the scenarios in order and returns the summary. An
// interrupt (canceled ctx) stops the run between scenario boundaries;
// the scenario in flight still reaches its own teardown.
func (s *Suite) Run(ctx context.Context, scenarios []Scenario) Summary {
	var summary Summary

	for _, sc := range scenarios {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		fmt.Fprintf(s.Out, "\n=== %s ===\n", sc.Name())
		result := s.Runner.Run(ctx, sc)

		if !result.Passed {
			s.captureDiagnostics(&result)
		}
		summary.Results = append(summary.Results, result)

		if result.Passed {
			fmt.Fprintf(s.Out, "%s %s passed\n", s.Marks.Pass, sc.Name())
		} else {
			fmt.Fprintf(s.Out, "%s %s failed: %v\n", s.Marks.Fail, sc.Name(), result.Err)
		}

		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
	}

	s.printSummary(summary)
	return summary
}

// captureDiagnostics attaches a screenshot and the console log tail to a
// failed result. Capture is best-effort and bounded: it never fails the
// run and never blocks beyond its own timeout.
func (s *Suite) captureDiagnostics(result *Result) {
	result.Logs = s.Runner.Env.UI.ConsoleTail(logTailSize)

	if s.Diag == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	png, err := s.Runner.Env.UI.Screenshot(ctx)
	if err != nil {
		fmt.Fprintf(s.Out, "  (screenshot capture failed: %v)\n", err)
		return
	}

	path, err := s.Diag.SaveScreenshot(slugify(result.Name), png)
	if err != nil {
		fmt.Fprintf(s.Out, "  (screenshot save failed: %v)\n", err)
		return
	}
	result.Screenshot = path
	fmt.Fprintf(s.Out, "  screenshot saved: %s\n", path)
}

func (s *Suite) printSummary(summary Summary) {
	fmt.Fprintf(s.Out, "\n%s\n", strings.Repeat("=", 50))
	fmt.Fprintln(s.Out, "TEST SUMMARY")
	fmt.Fprintln(s.Out, strings.Repeat("=", 50))

	passed := 0
	for _, r := range summary.Results {
		mark := s.Marks.Fail + " FAILED"
		if r.Passed {
			mark = s.Marks.Pass + " PASSED"
			passed++
		}
		fmt.Fprintf(s.Out, "%s %s\n", padDots(r.Name, 40), mark)
	}

	if summary.Interrupted {
		fmt.Fprintln(s.Out, "(run interrupted)")
	}
	fmt.Fprintf(s.Out, "\nTotal: %d/%d scenarios passed\n", passed, len(summary.Results))
}

// PrintLogTail writes the most recent console entries, one per line.
func (s *Suite) PrintLogTail(n int) {
	logs := s.Runner.Env.UI.ConsoleTail(n)
	if len(logs) == 0 {
		return
	}
	fmt.Fprintln(s.Out, "\n=== Recent Browser Logs ===")
	for _, entry := range logs {
		fmt.Fprintf(s.Out, "[%s] %s\n", entry.Level, entry.Message)
	}
}

func padDots(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(".", width-len(s))
}

func slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}
