package chrome

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const (
	fakePageTarget = "page-1"
	fakeSessionID  = "sess-1"
)

// fakeChrome is an in-process DevTools endpoint: it serves /json/version,
// upgrades to a websocket, and answers commands from per-method handlers.
// Methods without a handler get an empty result, which covers the many
// enable/dispatch commands whose responses carry no data.
type fakeChrome struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string]func(params json.RawMessage) (interface{}, *ProtocolError)
	calls    []string
}

func newFakeChrome(t *testing.T) *fakeChrome {
	f := &fakeChrome{
		t:        t,
		handlers: make(map[string]func(json.RawMessage) (interface{}, *ProtocolError)),
	}

	f.handle("Target.getTargets", func(json.RawMessage) (interface{}, *ProtocolError) {
		return map[string]interface{}{
			"targetInfos": []map[string]string{
				{"targetId": "browser-0", "type": "browser"},
				{"targetId": fakePageTarget, "type": "page"},
			},
		}, nil
	})
	f.handle("Target.attachToTarget", func(json.RawMessage) (interface{}, *ProtocolError) {
		return map[string]string{"sessionId": fakeSessionID}, nil
	})
	f.handle("Page.navigate", func(json.RawMessage) (interface{}, *ProtocolError) {
		f.emit(fakeSessionID, "Page.loadEventFired", map[string]float64{"timestamp": 1})
		return map[string]string{"frameId": "frame-1"}, nil
	})

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"webSocketDebuggerUrl": "ws://" + f.srv.Listener.Addr().String() + "/devtools/browser/fake",
		})
	})
	mux.HandleFunc("/devtools/browser/fake", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()
		f.serve(conn)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeChrome) hostPort() (string, int) {
	host, portStr, err := net.SplitHostPort(f.srv.Listener.Addr().String())
	if err != nil {
		f.t.Fatalf("splitting listener address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		f.t.Fatalf("parsing listener port: %v", err)
	}
	return host, port
}

func (f *fakeChrome) handle(method string, fn func(json.RawMessage) (interface{}, *ProtocolError)) {
	f.mu.Lock()
	f.handlers[method] = fn
	f.mu.Unlock()
}

func (f *fakeChrome) serve(conn *websocket.Conn) {
	for {
		var req struct {
			ID        int64           `json:"id"`
			SessionID string          `json:"sessionId"`
			Method    string          `json:"method"`
			Params    json.RawMessage `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		f.mu.Lock()
		f.calls = append(f.calls, req.Method)
		fn := f.handlers[req.Method]
		f.mu.Unlock()

		resp := map[string]interface{}{"id": req.ID}
		if fn == nil {
			resp["result"] = map[string]interface{}{}
		} else if result, perr := fn(req.Params); perr != nil {
			resp["error"] = perr
		} else {
			resp["result"] = result
		}
		f.write(resp)
	}
}

func (f *fakeChrome) write(v interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.WriteJSON(v)
	}
}

// emit sends a protocol event scoped to a session.
func (f *fakeChrome) emit(sessionID, method string, params interface{}) {
	data, err := json.Marshal(params)
	if err != nil {
		f.t.Fatalf("marshaling event params: %v", err)
	}
	f.write(map[string]interface{}{
		"method":    method,
		"sessionId": sessionID,
		"params":    json.RawMessage(data),
	})
}

func (f *fakeChrome) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.calls {
		if m == method {
			n++
		}
	}
	return n
}

func (f *fakeChrome) sawCall(method string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.calls {
		if m == method {
			return true
		}
	}
	return false
}

// evalValue wraps a value in the shape Runtime.evaluate returns for
// returnByValue expressions.
func evalValue(v interface{}) (interface{}, *ProtocolError) {
	return map[string]interface{}{
		"result": map[string]interface{}{"value": v},
	}, nil
}

// waitUntil polls cond for up to two seconds.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached within 2s")
}
