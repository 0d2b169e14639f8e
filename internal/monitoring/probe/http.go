package probe

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const maxRedirects = 5

// HTTPProber issues a GET, follows up to five redirects, and accepts every
// status code — condition evaluation, not the probe, decides pass/fail on
// status. For https targets it opens a parallel, unverified TLS connection
// to observe certificate expiry without ever blocking the primary result.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber builds an HTTP prober with a bounded redirect policy.
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

func (p *HTTPProber) Probe(ctx context.Context, target string, params Params, timeout time.Duration) Result {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return timeoutResult(start, fmt.Errorf("invalid url: %w", err))
	}
	req.Header.Set("User-Agent", "uptime-engine/1.0")

	var certCtx Context
	var wg sync.WaitGroup
	if strings.HasPrefix(target, "https://") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			certCtx = probeCertificate(target)
		}()
	}

	resp, err := p.client.Do(req)
	if err != nil {
		wg.Wait()
		elapsed := int(time.Since(start) / time.Millisecond)
		return Result{
			Success:        false,
			ResponseTimeMs: elapsed,
			Error:          err.Error(),
			Context: Context{
				KeyConnected: false,
				KeyError:     err.Error(),
				KeyTimestamp: time.Now().UTC().Format(time.RFC3339),
			},
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	elapsed := int(time.Since(start) / time.Millisecond)

	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	var bodyValue interface{}
	if json.Valid(body) {
		_ = json.Unmarshal(body, &bodyValue)
	} else {
		bodyValue = string(body)
	}

	resultCtx := Context{
		KeyStatus:       resp.StatusCode,
		KeyResponseTime: elapsed,
		KeyConnected:    true,
		KeyBody:         bodyValue,
		KeyHeaders:      headers,
		KeyTimestamp:    time.Now().UTC().Format(time.RFC3339),
	}

	wg.Wait()
	for k, v := range certCtx {
		resultCtx[k] = v
	}

	return Result{
		Success:        true,
		ResponseTimeMs: elapsed,
		Context:        resultCtx,
	}
}

// probeCertificate opens its own short-lived TLS connection to observe peer
// certificate expiry. Verification is disabled on purpose: we want to
// observe expiry even for invalid certs. Never blocks the primary result
// beyond its own timeout.
func probeCertificate(target string) Context {
	host := strings.TrimPrefix(target, "https://")
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	hostname := host
	port := "443"
	if h, p, err := net.SplitHostPort(host); err == nil {
		hostname, port = h, p
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(hostname, port), &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // side-channel only observes expiry, never trusted for transport decisions
		ServerName:         hostname,
	})
	if err != nil {
		return nil
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil
	}
	cert := certs[0]
	untilExpiry := time.Until(cert.NotAfter)
	days := int(untilExpiry / (24 * time.Hour))

	var expiration string
	if days >= 1 {
		expiration = strconv.Itoa(days) + "d"
	} else {
		hours := int(untilExpiry / time.Hour)
		if hours < 0 {
			hours = 0
		}
		expiration = strconv.Itoa(hours) + "h"
	}

	logrus.WithField("component", "probe.http").Debugf("certificate for %s expires in %s", hostname, expiration)

	return Context{
		KeyCertExpiryDays: days,
		KeyCertExpiration: expiration,
	}
}
