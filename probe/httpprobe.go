// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"time"

	"github.com/siemens/edgedig/types"

	"github.com/go-ping/ping"
)

// fragmentSize is how much of a response body gets captured as the identity
// signal for the confirmation stage.
const fragmentSize = 2048

// dial carries out a single probe against the in-flight candidate and
// returns the final verdict: the candidate address is connected directly,
// the probed domain travels as the virtual host, and the wall clock runs
// from connection start to the first response byte.
func (p *Prober) dial(ctx context.Context, inflight *types.DomainProbeValue) types.DomainVerdict {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if p.precheck {
		if err := p.echo(ctx, inflight.Addr()); err != nil {
			return inflight.WithOutcome(types.ConnectionError, err).(types.DomainVerdict)
		}
	}

	target := net.JoinHostPort(inflight.Addr(), strconv.Itoa(int(p.port)))
	scheme := "https"
	if p.plaintext {
		scheme = "http"
	}
	// A throw-away transport per probe: every connection must go to the
	// candidate address, never to whatever the domain resolves to, and
	// probers must not keep state between probes.
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(ctx, network, target)
		},
		TLSClientConfig: &tls.Config{
			ServerName: inflight.Domain(),
			// The edge's certificate situation is the confirmation stage's
			// problem, not a transport error.
			InsecureSkipVerify: true,
		},
		DisableKeepAlives: true,
	}
	defer transport.CloseIdleConnections()
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// A redirect is already a response; following it would leave the
			// candidate address under test.
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		scheme+"://"+inflight.Domain()+p.path, nil)
	if err != nil {
		return inflight.WithOutcome(types.ConnectionError, err).(types.DomainVerdict)
	}
	req.Host = inflight.Domain()
	req.Header.Set("User-Agent", p.userAgent)

	// The wall clock starts immediately before dialing; as the dial goes to
	// an IP literal there is no name resolution to skew the measurement.
	started := time.Now()
	var latency time.Duration
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			latency = time.Since(started)
		},
	}))

	resp, err := client.Do(req)
	if err != nil {
		return inflight.WithOutcome(classify(err), err).(types.DomainVerdict)
	}
	defer resp.Body.Close()
	if latency == 0 {
		latency = time.Since(started)
	}
	fragment, _ := io.ReadAll(io.LimitReader(resp.Body, fragmentSize))

	result := inflight.DP()
	result.Outcome = types.Success
	result.Latency = latency
	result.Signal = types.Signal{
		StatusCode:   resp.StatusCode,
		Headers:      flatten(resp.Header),
		BodyFragment: string(fragment),
	}
	return &result
}

// echo sends a single ICMP echo to the candidate and fails if no reply
// arrives before the context deadline.
func (p *Prober) echo(ctx context.Context, addr string) error {
	pinger, err := ping.NewPinger(addr)
	if err != nil {
		return err
	}
	pinger.SetPrivileged(!p.unprivileged)
	pinger.Count = 1
	pinger.Timeout = p.timeout
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()
	if err := pinger.Run(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return fmt.Errorf("no echo reply from %s", addr)
	}
	return nil
}

// classify sorts a transport error into the timeout or connection-error
// outcome.
func classify(err error) types.Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.Timeout
	}
	var neterr net.Error
	if errors.As(err, &neterr) && neterr.Timeout() {
		return types.Timeout
	}
	return types.ConnectionError
}

// flatten reduces response headers to their first values; the identity
// matchers never need more.
func flatten(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for name := range header {
		flat[name] = header.Get(name)
	}
	return flat
}
