package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moltislabs/moltis/internal/logging"
)

var driverLog = logging.NewComponentLogger("BrowserDriver")

var errDriverClosed = errors.New("browser driver closed")

type rpcRequest struct {
	ID        int64           `json:"id"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Driver is a raw Chrome DevTools Protocol client over a single WebSocket
// connection: JSON-RPC calls keyed by an incrementing id, with unsolicited
// CDP events drained continuously in the background for the life of the
// connection.
type Driver struct {
	conn   *websocket.Conn
	nextID int64

	mu      sync.Mutex
	pending map[int64]chan rpcResponse

	closed   atomic.Bool
	doneCh   chan struct{}
}

// Dial connects to a CDP WebSocket endpoint and starts the background event
// drain. The returned Driver must be closed by the caller.
func Dial(ctx context.Context, wsURL string) (*Driver, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial cdp endpoint: %w", err)
	}
	d := &Driver{
		conn:    conn,
		pending: make(map[int64]chan rpcResponse),
		doneCh:  make(chan struct{}),
	}
	go d.drain()
	return d, nil
}

// drain continuously reads frames until the connection closes, routing
// responses to their waiting Call and discarding unsolicited events (a
// fuller binding would dispatch these to target-specific subscribers).
func (d *Driver) drain() {
	defer close(d.doneCh)
	for {
		var resp rpcResponse
		if err := d.conn.ReadJSON(&resp); err != nil {
			d.closed.Store(true)
			d.failAllPending(err)
			return
		}
		if resp.Method != "" {
			continue // unsolicited event, no subscriber model wired yet
		}
		d.mu.Lock()
		ch, ok := d.pending[resp.ID]
		if ok {
			delete(d.pending, resp.ID)
		}
		d.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (d *Driver) failAllPending(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, ch := range d.pending {
		ch <- rpcResponse{ID: id, Error: &rpcError{Message: err.Error()}}
		delete(d.pending, id)
	}
}

// Call issues a CDP method call and blocks for its response.
func (d *Driver) Call(ctx context.Context, sessionID, method string, params any) (json.RawMessage, error) {
	if d.closed.Load() {
		return nil, errDriverClosed
	}

	id := atomic.AddInt64(&d.nextID, 1)
	var raw json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}

	ch := make(chan rpcResponse, 1)
	d.mu.Lock()
	d.pending[id] = ch
	d.mu.Unlock()

	if err := d.conn.WriteJSON(rpcRequest{ID: id, Method: method, Params: raw, SessionID: sessionID}); err != nil {
		d.mu.Lock()
		delete(d.pending, id)
		d.mu.Unlock()
		return nil, fmt.Errorf("write cdp request: %w", err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, fmt.Errorf("cdp error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(30 * time.Second):
		return nil, fmt.Errorf("cdp call %s timed out", method)
	}
}

// Close closes the underlying connection and waits for the drain loop to
// exit.
func (d *Driver) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	err := d.conn.Close()
	<-d.doneCh
	return err
}
