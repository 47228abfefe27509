// Command depict-harness validates the Depict web application's
// asynchronous processing pipeline by driving a browser through the
// Chrome DevTools Protocol: normal input, slow processing, lockup with
// recovery, and malformed input with recovery.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/jsavage/depict-harness/internal/chrome"
	"github.com/jsavage/depict-harness/internal/chrome/launcher"
	"github.com/jsavage/depict-harness/internal/harness"
)

// Exit codes. Any failure (failed scenario, unreachable target,
// interrupt, or unhandled error) exits 1; the exit status is the only
// machine-readable signal this command emits.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Config holds the CLI configuration.
type Config struct {
	URL                 string
	Headless            bool
	Attach              bool // attach to an already-running Chrome instead of launching one
	Host                string
	Port                int
	Scenario            string // "slow", "lockup", or empty for the full suite
	DelayMs             int
	NetworkLatencyMs    int
	ScreenshotOnFailure bool
	OutputDir           string

	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns the built-in defaults. The rc file, environment
// variables, and CLI flags are layered on top in run.
func DefaultConfig() *Config {
	return &Config{
		URL:       "http://localhost:8080",
		Host:      "localhost",
		Port:      9222,
		DelayMs:   2000,
		OutputDir: "./test_results",
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

func main() {
	os.Exit(run(os.Args[1:], DefaultConfig()))
}

// flagValues stores values parsed from CLI flags before config layering
// may overwrite them.
type flagValues struct {
	url         string
	headless    bool
	attach      bool
	host        string
	port        int
	scenario    string
	delay       int
	netLatency  int
	screenshots bool
	outputDir   string
}

func run(args []string, cfg *Config) int {
	var fv flagValues
	fs := flag.NewFlagSet("depict-harness", flag.ContinueOnError)
	fs.SetOutput(cfg.Stderr)
	fs.StringVar(&fv.url, "url", cfg.URL, "URL of the Depict application (env: DEPICT_HARNESS_URL)")
	fs.BoolVar(&fv.headless, "headless", cfg.Headless, "Run the browser in headless mode")
	fs.BoolVar(&fv.attach, "attach", cfg.Attach, "Attach to an already-running Chrome debug endpoint instead of launching")
	fs.StringVar(&fv.host, "host", cfg.Host, "Chrome debug host (env: DEPICT_HARNESS_HOST)")
	fs.IntVar(&fv.port, "port", cfg.Port, "Chrome debug port (env: DEPICT_HARNESS_PORT)")
	fs.StringVar(&fv.scenario, "scenario", cfg.Scenario, "Run a single scenario: slow or lockup (default: full suite)")
	fs.IntVar(&fv.delay, "delay", cfg.DelayMs, "Injected delay for the slow scenario (milliseconds)")
	fs.IntVar(&fv.netLatency, "network-latency", cfg.NetworkLatencyMs, "Simulated network latency (milliseconds)")
	fs.BoolVar(&fv.screenshots, "screenshot-on-failure", cfg.ScreenshotOnFailure, "Save a screenshot when a scenario fails")
	fs.StringVar(&fv.outputDir, "output-dir", cfg.OutputDir, "Directory for diagnostic artifacts")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return ExitSuccess
		}
		return ExitFailure
	}

	if len(fs.Args()) > 0 {
		fmt.Fprintf(cfg.Stderr, "unexpected argument: %s\n", fs.Args()[0])
		return ExitFailure
	}

	// Track which flags were explicitly set on the command line
	explicitFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		explicitFlags[f.Name] = true
	})

	// Config precedence: built-in defaults < rc file < env vars < CLI flags
	loadConfigFile(cfg)
	applyEnvVars(cfg, explicitFlags)
	reapplyExplicitFlags(cfg, &fv, explicitFlags)

	switch cfg.Scenario {
	case "", "all", "slow", "lockup":
	default:
		fmt.Fprintf(cfg.Stderr, "unknown scenario: %s (want slow, lockup, or all)\n", cfg.Scenario)
		return ExitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := runSuite(ctx, cfg)
	if ctx.Err() != nil {
		fmt.Fprintln(cfg.Stderr, "interrupted")
		return ExitFailure
	}
	return code
}

// runSuite owns the automation session for the whole run: created here,
// released on every exit path including interrupt.
func runSuite(ctx context.Context, cfg *Config) int {
	fmt.Fprintf(cfg.Stdout, "Loading %s...\n", cfg.URL)
	if err := harness.CheckReachable(ctx, cfg.URL); err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\nIs the server running?\n", err)
		return ExitFailure
	}

	host := cfg.Host
	if !cfg.Attach {
		inst, err := launcher.Launch(launcher.Options{
			Port:     cfg.Port,
			Headless: cfg.Headless,
		})
		if err != nil {
			fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
			return ExitFailure
		}
		defer inst.Stop()
		host = "localhost"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := chrome.Connect(connectCtx, host, cfg.Port)
	cancel()
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitFailure
	}
	defer client.Close()

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	page, err := client.FirstPage(setupCtx)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitFailure
	}
	if err := page.SetViewport(setupCtx, 1920, 1080); err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitFailure
	}

	ui, err := harness.NewChromeUI(setupCtx, page)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitFailure
	}

	if cfg.NetworkLatencyMs > 0 {
		fmt.Fprintf(cfg.Stdout, "simulating %dms network latency\n", cfg.NetworkLatencyMs)
		if err := ui.SetNetworkLatency(setupCtx, cfg.NetworkLatencyMs); err != nil {
			fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
			return ExitFailure
		}
		defer func() {
			// Restore normal conditions on the way out; the run
			// context may already be canceled.
			clearCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			ui.ClearNetworkLatency(clearCtx)
		}()
	}

	env := harness.NewEnv(ui, harness.DefaultSelectors())
	if err := env.LoadTarget(ctx, cfg.URL, cfg.Stdout); err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\nIs the server running?\n", err)
		return ExitFailure
	}
	fmt.Fprintln(cfg.Stdout, "page loaded successfully")

	var diag *harness.Recorder
	if cfg.ScreenshotOnFailure {
		diag = harness.NewRecorder(cfg.OutputDir)
	}

	suite := &harness.Suite{
		Runner: &harness.Runner{Env: env},
		Diag:   diag,
		Out:    cfg.Stdout,
		Marks:  marksFor(cfg.Stdout),
	}

	scenarios := harness.ScenariosFor(cfg.Scenario, cfg.DelayMs)
	summary := suite.Run(ctx, scenarios)

	if cfg.Scenario == "" || cfg.Scenario == "all" {
		suite.PrintLogTail(10)
	}

	if !summary.Passed() {
		return ExitFailure
	}
	return ExitSuccess
}

// marksFor picks unicode progress marks on a terminal, plain ASCII
// otherwise.
func marksFor(out io.Writer) harness.Marks {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return harness.UnicodeMarks
	}
	return harness.ASCIIMarks
}
