package chrome

import (
	"context"
	"encoding/json"
	"fmt"
)

// consoleBufferCap bounds the in-memory console capture.
const consoleBufferCap = 200

// StartConsoleCapture begins capturing console messages into a bounded
// in-memory buffer readable with ConsoleTail. Capture runs until the
// client is closed or StopConsoleCapture is called.
func (p *Page) StartConsoleCapture(ctx context.Context) error {
	_, err := p.call(ctx, "Runtime.enable", nil)
	if err != nil {
		return fmt.Errorf("enabling Runtime domain: %w", err)
	}

	eventCh := p.client.subscribeEvent(p.sessionID, "Runtime.consoleAPICalled")
	done := make(chan struct{})

	p.consoleMu.Lock()
	p.consoleStop = func() { close(done) }
	p.consoleMu.Unlock()

	go func() {
		for {
			select {
			case params, ok := <-eventCh:
				if !ok {
					return
				}
				var event struct {
					Type string `json:"type"`
					Args []struct {
						Value interface{} `json:"value"`
					} `json:"args"`
				}
				if err := json.Unmarshal(params, &event); err != nil {
					continue
				}

				var text string
				for i, arg := range event.Args {
					if i > 0 {
						text += " "
					}
					if arg.Value != nil {
						text += fmt.Sprintf("%v", arg.Value)
					}
				}

				p.appendConsole(ConsoleEntry{
					Level:   consoleLevel(event.Type),
					Message: text,
				})
			case <-done:
				p.client.unsubscribeEvent(p.sessionID, "Runtime.consoleAPICalled", eventCh)
				return
			case <-p.client.closeCh:
				return
			}
		}
	}()

	return nil
}

// StopConsoleCapture stops a running capture. Safe to call when capture
// was never started.
func (p *Page) StopConsoleCapture() {
	p.consoleMu.Lock()
	stop := p.consoleStop
	p.consoleStop = nil
	p.consoleMu.Unlock()
	if stop != nil {
		stop()
	}
}

func (p *Page) appendConsole(entry ConsoleEntry) {
	p.consoleMu.Lock()
	defer p.consoleMu.Unlock()
	p.consoleEntries = append(p.consoleEntries, entry)
	if len(p.consoleEntries) > consoleBufferCap {
		p.consoleEntries = p.consoleEntries[len(p.consoleEntries)-consoleBufferCap:]
	}
}

// ConsoleTail returns up to the last n captured console entries, oldest
// first.
func (p *Page) ConsoleTail(n int) []ConsoleEntry {
	p.consoleMu.Lock()
	defer p.consoleMu.Unlock()
	if n <= 0 || len(p.consoleEntries) == 0 {
		return nil
	}
	start := len(p.consoleEntries) - n
	if start < 0 {
		start = 0
	}
	out := make([]ConsoleEntry, len(p.consoleEntries)-start)
	copy(out, p.consoleEntries[start:])
	return out
}

// consoleLevel maps a consoleAPICalled type to a harness log level.
func consoleLevel(typ string) string {
	switch typ {
	case "error", "assert":
		return "ERROR"
	case "warning", "warn":
		return "WARN"
	default:
		return "INFO"
	}
}
