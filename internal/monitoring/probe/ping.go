package probe

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// PingProber sends ICMP echo requests (unprivileged datagram sockets) to the
// target host; success means at least one reply arrived within timeout.
type PingProber struct{}

func NewPingProber() *PingProber { return &PingProber{} }

func (p *PingProber) Probe(ctx context.Context, target string, params Params, timeout time.Duration) Result {
	start := time.Now()

	pinger, err := probing.NewPinger(target)
	if err != nil {
		return timeoutResult(start, fmt.Errorf("invalid ping target: %w", err))
	}
	pinger.SetPrivileged(false)
	pinger.Count = 3
	pinger.Timeout = timeout

	done := make(chan error, 1)
	go func() { done <- pinger.RunWithContext(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			return timeoutResult(start, fmt.Errorf("ping failed: %w", err))
		}
	case <-ctx.Done():
		pinger.Stop()
		return timeoutResult(start, ctx.Err())
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return timeoutResult(start, fmt.Errorf("no ping replies received"))
	}

	rtt := int(stats.AvgRtt / time.Millisecond)
	return Result{
		Success:        true,
		ResponseTimeMs: rtt,
		Context: Context{
			KeyConnected:    true,
			KeyResponseTime: rtt,
			KeyTimestamp:    time.Now().UTC().Format(time.RFC3339),
		},
	}
}
