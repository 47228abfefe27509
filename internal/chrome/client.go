// Package chrome is a minimal Chrome DevTools Protocol client scoped to
// driving a single page: navigate, query, read, click, type, screenshot,
// console capture, and network emulation.
package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a connection to a Chrome instance's debugging endpoint.
type Client struct {
	conn      *websocket.Conn
	wsURL     string
	writeMu   sync.Mutex
	messageID atomic.Int64

	pending   map[int64]chan callResult
	pendingMu sync.Mutex

	handlers   map[string][]chan json.RawMessage // key: "sessionID:method"
	handlersMu sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once
	closeCh   chan struct{}

	sessionID string // first-page session, set by FirstPage
	sessionMu sync.Mutex
}

type callResult struct {
	Result json.RawMessage
	Error  *ProtocolError
}

// Connect establishes a connection to Chrome at the given host and port.
func Connect(ctx context.Context, host string, port int) (*Client, error) {
	jsonURL := fmt.Sprintf("http://%s:%d/json/version", host, port)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jsonURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to Chrome: %w", err)
	}
	defer resp.Body.Close()

	var versionResp struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&versionResp); err != nil {
		return nil, fmt.Errorf("decoding version response: %w", err)
	}
	if versionResp.WebSocketDebuggerURL == "" {
		return nil, fmt.Errorf("no WebSocket URL in response")
	}

	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, versionResp.WebSocketDebuggerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to WebSocket: %w", err)
	}

	client := &Client{
		conn:     conn,
		wsURL:    versionResp.WebSocketDebuggerURL,
		pending:  make(map[int64]chan callResult),
		handlers: make(map[string][]chan json.RawMessage),
		closeCh:  make(chan struct{}),
	}

	go client.readMessages()

	return client, nil
}

// WebSocketURL returns the WebSocket URL used for this connection.
func (c *Client) WebSocketURL() string {
	return c.wsURL
}

// Close detaches the page session and closes the connection. It is safe
// to call more than once and from a signal path.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.sessionMu.Lock()
		sessionID := c.sessionID
		c.sessionID = ""
		c.sessionMu.Unlock()

		if sessionID != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			c.call(ctx, "", "Target.detachFromTarget", map[string]interface{}{
				"sessionId": sessionID,
			})
			cancel()
		}

		c.closed.Store(true)
		close(c.closeCh)
		err = c.conn.Close()

		// Wake up all pending callers
		c.pendingMu.Lock()
		for _, ch := range c.pending {
			close(ch)
		}
		c.pending = make(map[int64]chan callResult)
		c.pendingMu.Unlock()
	})
	return err
}

type cdpRequest struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"sessionId,omitempty"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
}

type cdpResponse struct {
	ID        int64           `json:"id"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *ProtocolError  `json:"error,omitempty"`
	Method    string          `json:"method,omitempty"` // events
	Params    json.RawMessage `json:"params,omitempty"` // events
	SessionID string          `json:"sessionId,omitempty"`
}

// call sends a protocol command, optionally scoped to a session, and
// waits for the response.
func (c *Client) call(ctx context.Context, sessionID, method string, params interface{}) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}

	req := cdpRequest{
		ID:        c.messageID.Add(1),
		SessionID: sessionID,
		Method:    method,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshaling params: %w", err)
		}
		req.Params = data
	}

	respChan := make(chan callResult, 1)
	c.pendingMu.Lock()
	c.pending[req.ID] = respChan
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.ID)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}

	select {
	case result, ok := <-respChan:
		if !ok {
			return nil, ErrConnectionClosed
		}
		if result.Error != nil {
			return nil, result.Error
		}
		return result.Result, nil
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) readMessages() {
	defer c.Close()

	for {
		var resp cdpResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			return
		}

		// Route response to waiting caller
		if resp.ID > 0 {
			c.pendingMu.Lock()
			if ch, ok := c.pending[resp.ID]; ok {
				ch <- callResult{Result: resp.Result, Error: resp.Error}
			}
			c.pendingMu.Unlock()
		}

		// Route events to handlers
		if resp.Method != "" {
			key := resp.SessionID + ":" + resp.Method
			c.handlersMu.Lock()
			for _, h := range c.handlers[key] {
				select {
				case h <- resp.Params:
				default:
					// Drop if channel is full
				}
			}
			c.handlersMu.Unlock()
		}
	}
}

// subscribeEvent registers a handler for protocol events on a session.
func (c *Client) subscribeEvent(sessionID, method string) chan json.RawMessage {
	ch := make(chan json.RawMessage, 100)
	key := sessionID + ":" + method

	c.handlersMu.Lock()
	c.handlers[key] = append(c.handlers[key], ch)
	c.handlersMu.Unlock()

	return ch
}

// unsubscribeEvent removes an event handler.
func (c *Client) unsubscribeEvent(sessionID, method string, ch chan json.RawMessage) {
	key := sessionID + ":" + method

	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	handlers := c.handlers[key]
	for i, h := range handlers {
		if h == ch {
			c.handlers[key] = append(handlers[:i], handlers[i+1:]...)
			close(ch)
			return
		}
	}
}

// FirstPage attaches to the first page target and returns a Page handle.
// The harness drives exactly one page for the lifetime of the run, so the
// session is attached once and cached on the client.
func (c *Client) FirstPage(ctx context.Context) (*Page, error) {
	result, err := c.call(ctx, "", "Target.getTargets", nil)
	if err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}

	var resp struct {
		TargetInfos []struct {
			TargetID string `json:"targetId"`
			Type     string `json:"type"`
		} `json:"targetInfos"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling targets: %w", err)
	}

	targetID := ""
	for _, t := range resp.TargetInfos {
		if t.Type == "page" {
			targetID = t.TargetID
			break
		}
	}
	if targetID == "" {
		return nil, fmt.Errorf("no page targets available")
	}

	attachResult, err := c.call(ctx, "", "Target.attachToTarget", map[string]interface{}{
		"targetId": targetID,
		"flatten":  true,
	})
	if err != nil {
		return nil, fmt.Errorf("attaching to target: %w", err)
	}

	var attachResp struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(attachResult, &attachResp); err != nil {
		return nil, fmt.Errorf("parsing attach response: %w", err)
	}

	c.sessionMu.Lock()
	c.sessionID = attachResp.SessionID
	c.sessionMu.Unlock()

	return &Page{client: c, targetID: targetID, sessionID: attachResp.SessionID}, nil
}
