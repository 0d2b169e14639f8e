package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPProber dials host:port and closes immediately; CONNECTED mirrors
// transport success.
type TCPProber struct{}

func NewTCPProber() *TCPProber { return &TCPProber{} }

func (p *TCPProber) Probe(ctx context.Context, target string, params Params, timeout time.Duration) Result {
	start := time.Now()

	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := d.DialContext(dialCtx, "tcp", target)
	elapsed := int(time.Since(start) / time.Millisecond)
	if err != nil {
		return timeoutResult(start, fmt.Errorf("tcp dial failed: %w", err))
	}
	defer conn.Close()

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
