package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// DNSProber issues a query for params.DNSQueryName of params.DNSQueryType
// (default A) against the system resolver; success requires a non-empty
// answer with rcode NOERROR.
type DNSProber struct {
	resolver string // host:port; first /etc/resolv.conf server, else 8.8.8.8:53
}

func NewDNSProber() *DNSProber {
	server := "8.8.8.8:53"
	if cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(cfg.Servers) > 0 {
		server = cfg.Servers[0] + ":" + cfg.Port
	}
	return &DNSProber{resolver: server}
}

func (p *DNSProber) Probe(ctx context.Context, target string, params Params, timeout time.Duration) Result {
	start := time.Now()

	name := params.DNSQueryName
	if name == "" {
		name = target
	}
	qtype := dns.TypeA
	if params.DNSQueryType != "" {
		if t, ok := dns.StringToType[params.DNSQueryType]; ok {
			qtype = t
		}
	}

	client := &dns.Client{Timeout: timeout}
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	resp, _, err := client.ExchangeContext(ctx, msg, p.resolver)
	elapsed := int(time.Since(start) / time.Millisecond)
	if err != nil {
		return timeoutResult(start, fmt.Errorf("dns query failed: %w", err))
	}

	rcode := dns.RcodeToString[resp.Rcode]
	success := resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0

	result := Result{
		Success:        success,
		ResponseTimeMs: elapsed,
		Context: Context{
			KeyConnected:    true,
			KeyResponseTime: elapsed,
			KeyDNSRcode:     rcode,
			KeyTimestamp:    time.Now().UTC().Format(time.RFC3339),
		},
	}
	if !success {
		result.Error = fmt.Sprintf("dns rcode %s or empty answer", rcode)
		result.Context[KeyError] = result.Error
	}
	return result
}
