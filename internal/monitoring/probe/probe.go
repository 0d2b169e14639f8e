// Package probe implements the protocol-specific I/O operations that turn a
// monitor target into an observable context: HTTP, TCP, WebSocket, DNS, and
// ICMP ping.
package probe

import (
	"context"
	"time"
)

// Context keys recognized by the condition evaluator. Absent keys are
// treated as null by the evaluator; comparisons against null yield false.
const (
	KeyStatus                = "STATUS"
	KeyResponseTime           = "RESPONSE_TIME"
	KeyConnected              = "CONNECTED"
	KeyBody                   = "BODY"
	KeyHeaders                = "HEADERS"
	KeyCertExpiration         = "CERTIFICATE_EXPIRATION"
	KeyCertExpiryDays         = "CERTIFICATE_EXPIRY_DAYS"
	KeyDNSRcode               = "DNS_RCODE"
	KeyError                  = "ERROR"
	KeyTimestamp              = "TIMESTAMP"
)

// Context is the typed bag of observable attributes produced by one probe.
type Context map[string]interface{}

// Get returns the value for key, or nil if the key is absent.
func (c Context) Get(key string) interface{} {
	if c == nil {
		return nil
	}
	return c[key]
}

// Result is what a single probe invocation returns. Success is the
// transport-level outcome; condition evaluation happens separately.
type Result struct {
	Success        bool
	ResponseTimeMs int
	Context        Context
	Error          string
}

// Params carries the protocol-specific parameters a monitor may configure
// (currently only DNS query name/type).
type Params struct {
	DNSQueryName string
	DNSQueryType string
}

// Prober executes a single check of a given protocol against target and
// returns within timeout plus a small grace period.
type Prober interface {
	Probe(ctx context.Context, target string, params Params, timeout time.Duration) Result
}

func timeoutResult(start time.Time, err error) Result {
	return Result{
		Success:        false,
		ResponseTimeMs: int(time.Since(start) / time.Millisecond),
		Context: Context{
			KeyConnected: false,
			KeyError:     err.Error(),
			KeyTimestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Error: err.Error(),
	}
}
