package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketProber performs a WebSocket opening handshake; success means the
// handshake completed. The connection is closed cleanly afterward.
type WebSocketProber struct {
	dialer *websocket.Dialer
}

func NewWebSocketProber() *WebSocketProber {
	return &WebSocketProber{dialer: &websocket.Dialer{}}
}

func (p *WebSocketProber) Probe(ctx context.Context, target string, params Params, timeout time.Duration) Result {
	start := time.Now()

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, resp, err := p.dialer.DialContext(dialCtx, target, nil)
	elapsed := int(time.Since(start) / time.Millisecond)
	if err != nil {
		return timeoutResult(start, fmt.Errorf("websocket handshake failed: %w", err))
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	conn.Close()

	return Result{
		Success:        true,
		ResponseTimeMs: elapsed,
		Context: Context{
			KeyConnected:    true,
			KeyResponseTime: elapsed,
			KeyTimestamp:    time.Now().UTC().Format(time.RFC3339),
		},
	}
}
