package chrome

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrProtocolError    = errors.New("protocol error")
	ErrNotFound         = errors.New("element not found")
)

// ProtocolError represents an error returned by the Chrome DevTools Protocol.
type ProtocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %d: %s", e.Code, e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocolError
}

// ConsoleEntry is one captured browser console message.
type ConsoleEntry struct {
	Level   string `json:"level"` // "INFO", "WARN", "ERROR"
	Message string `json:"message"`
}

// NetworkConditions configures network throttling for a page.
type NetworkConditions struct {
	Offline            bool
	Latency            int // ms
	DownloadThroughput int // bytes/s, -1 disables throttling
	UploadThroughput   int // bytes/s, -1 disables throttling
}
